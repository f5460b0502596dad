// Package save validates a completed BookRecord and submits it to the catalog service at most once at a time.
package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/storeops/isbnscan/internal/catalog"
	"github.com/storeops/isbnscan/internal/metrics"
	"github.com/storeops/isbnscan/internal/models"
)

// Operator-facing messages
const (
	MessageSaved  = "Saved successfully"
	MessageFailed = "Error while saving"
)

// ErrInFlight is returned when a save is triggered while another is pending
var ErrInFlight = errors.New("save already in progress")

// ValidationError lists the fields that block submission. No network call is made.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// FailureError wraps a network, status or decode failure of the save call
type FailureError struct {
	Err error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("save failed: %v", e.Err)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// Submitter is the remote save call
type Submitter interface {
	SaveTitle(ctx context.Context, req catalog.SaveRequest) error
}

// Orchestrator guards the save call
type Orchestrator struct {
	submitter Submitter
	variant   models.Variant
	vocab     models.Vocabulary
	inFlight  atomic.Bool
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewOrchestrator creates a save orchestrator
func NewOrchestrator(submitter Submitter, variant models.Variant, vocab models.Vocabulary, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		submitter: submitter,
		variant:   variant,
		vocab:     vocab,
		logger:    logger,
		metrics:   m,
	}
}

// InFlight reports whether a submission is pending
func (o *Orchestrator) InFlight() bool {
	return o.inFlight.Load()
}

// Validate checks rec without submitting it
func (o *Orchestrator) Validate(rec models.BookRecord) error {
	_, err := o.build(rec)
	return err
}

// Submit validates rec and issues the save call. It returns a
// *ValidationError, ErrInFlight, or a *FailureError on failure.
func (o *Orchestrator) Submit(ctx context.Context, rec models.BookRecord) error {
	req, err := o.build(rec)
	if err != nil {
		return err
	}

	if !o.inFlight.CompareAndSwap(false, true) {
		o.metrics.Save(metrics.SaveRejected)
		return ErrInFlight
	}
	defer o.inFlight.Store(false)

	if err := o.submitter.SaveTitle(ctx, req); err != nil {
		o.logger.Error("Failed to save title", "isbn", req.ISBN, "error", err)
		o.metrics.Save(metrics.SaveFailure)
		return &FailureError{Err: err}
	}

	o.logger.Info("Title saved", "isbn", req.ISBN, "title", req.Title, "quantity", req.Quantity, "location", req.Location)
	o.metrics.Save(metrics.SaveSuccess)
	return nil
}

func (o *Orchestrator) build(rec models.BookRecord) (catalog.SaveRequest, error) {
	req, err := BuildRequest(rec, o.variant, o.vocab)
	if err != nil {
		o.logger.Debug("Record not ready to save", "isbn", rec.ISBN, "error", err)
		o.metrics.Save(metrics.SaveValidation)
	}
	return req, err
}

// BuildRequest validates the record for the given form variant and returns the save payload
func BuildRequest(rec models.BookRecord, variant models.Variant, vocab models.Vocabulary) (catalog.SaveRequest, error) {
	verr := &ValidationError{}
	require := func(name, value string) bool {
		if strings.TrimSpace(value) == "" {
			verr.Missing = append(verr.Missing, name)
			return false
		}
		return true
	}

	req := catalog.SaveRequest{
		ISBN:     strings.TrimSpace(rec.ISBN),
		Title:    strings.TrimSpace(rec.Title),
		Location: rec.Location,
	}

	require("isbn", rec.ISBN)
	require("title", rec.Title)

	if require("price", rec.Price) {
		price, err := models.ParsePrice(rec.Price)
		if err != nil {
			verr.Invalid = append(verr.Invalid, "price")
		} else {
			req.Price = json.Number(price.String())
		}
	}

	if require("quantity", rec.Quantity) {
		qty, err := models.ParseQuantity(rec.Quantity)
		if err != nil {
			verr.Invalid = append(verr.Invalid, "quantity")
		} else {
			req.Quantity = qty
		}
	}

	if require("location", rec.Location) && !vocab.HasLocation(rec.Location) {
		verr.Invalid = append(verr.Invalid, "location")
	}

	if variant.TracksAuthor() {
		req.Author = strings.TrimSpace(rec.Author)
		req.Category = rec.Category
		req.SubCategory = rec.SubCategory

		require("author", rec.Author)
		if require("category", rec.Category) && !vocab.HasCategory(rec.Category) {
			verr.Invalid = append(verr.Invalid, "category")
		}
		if require("sub_category", rec.SubCategory) && !vocab.HasSubCategory(rec.SubCategory) {
			verr.Invalid = append(verr.Invalid, "sub_category")
		}
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return catalog.SaveRequest{}, verr
	}
	return req, nil
}
