package workflow

import (
	"context"
	"time"

	"github.com/storeops/isbnscan/internal/models"
	"github.com/storeops/isbnscan/internal/save"
)

// Field names an editable metadata form field
type Field string

const (
	FieldTitle       Field = "title"
	FieldAuthor      Field = "author"
	FieldPrice       Field = "price"
	FieldQuantity    Field = "quantity"
	FieldLocation    Field = "location"
	FieldCategory    Field = "category"
	FieldSubCategory Field = "sub_category"
)

// SetField edits one field of the in-flight record. Title and author are
// only editable when the lookup left them for manual entry; nothing is
// editable while loading, saving or after a successful save.
func (e *Engine) SetField(field Field, value string) error {
	e.mu.Lock()
	md, err := e.editableLocked()
	if err != nil {
		e.mu.Unlock()
		return err
	}

	rec := &md.Record
	extended := e.variant.TracksAuthor()
	switch field {
	case FieldTitle:
		if !md.TitleManual {
			err = ErrFieldLocked
		} else {
			rec.Title = value
		}
	case FieldAuthor:
		switch {
		case !extended:
			err = ErrUnknownField
		case !md.AuthorManual:
			err = ErrFieldLocked
		default:
			rec.Author = value
		}
	case FieldPrice:
		rec.Price = value
	case FieldQuantity:
		rec.Quantity = value
	case FieldLocation:
		rec.Location = value
	case FieldCategory:
		if !extended {
			err = ErrUnknownField
		} else {
			rec.Category = value
		}
	case FieldSubCategory:
		if !extended {
			err = ErrUnknownField
		} else {
			rec.SubCategory = value
		}
	default:
		err = ErrUnknownField
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.notify()
	return nil
}

// Save submits the in-flight record. Validation failures are returned
// without a network call. On success the form shows the saved message and
// resets after the reset delay: back to manual entry for typed ISBNs,
// otherwise to the main menu. On failure the fields stay as they were and
// Save may be retried.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	md, err := e.editableLocked()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.saver.Validate(md.Record); err != nil {
		e.mu.Unlock()
		return err
	}

	md.Saving = true
	md.Message = ""
	rec := md.Record
	token := e.attempt
	ctx, cancel := context.WithCancel(ctx)
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	e.notify()

	err = e.saver.Submit(ctx, rec)

	e.mu.Lock()
	current, ok := e.screen.(*MetadataEntry)
	if token != e.attempt || !ok || current != md {
		// the operator left the form; the outcome no longer has a screen
		e.mu.Unlock()
		e.logger.Debug("Discarding stale save outcome", "isbn", rec.ISBN, "error", err)
		return err
	}
	e.cancel = nil
	md.Saving = false
	if err != nil {
		md.Message = save.MessageFailed
	} else {
		md.Saved = true
		md.Message = save.MessageSaved
		e.scheduleResetLocked(token, rec.EntryMethod)
	}
	e.mu.Unlock()

	e.notify()
	return err
}

func (e *Engine) editableLocked() (*MetadataEntry, error) {
	if e.closed {
		return nil, ErrClosed
	}
	md, ok := e.screen.(*MetadataEntry)
	switch {
	case !ok:
		return nil, ErrWrongScreen
	case md.Saved:
		return nil, ErrAlreadySaved
	case md.Saving:
		return nil, save.ErrInFlight
	case md.Loading:
		return nil, ErrLoading
	}
	return md, nil
}

func (e *Engine) scheduleResetLocked(token uint64, method models.EntryMethod) {
	e.resetTimer = time.AfterFunc(e.resetDelay, func() {
		e.mu.Lock()
		if e.closed || token != e.attempt {
			e.mu.Unlock()
			return
		}
		e.leaveLocked()
		if method == models.EntryManual {
			e.screen = &ManualEntry{}
		} else {
			e.screen = &MainMenu{}
		}
		e.mu.Unlock()

		e.logger.Debug("Workflow reset", "entry_method", method)
		e.notify()
	})
}
