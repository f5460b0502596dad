// Package workflow is the scan-to-catalog state machine. It owns the active
// screen and the single in-flight BookRecord, and sequences ISBN capture,
// metadata lookup, saving and the automatic reset.
//
// Every asynchronous result (camera acceptance, lookup, save, reset timer)
// carries the attempt token that was current when it started. Navigation
// bumps the token, so results that arrive after the operator has moved on
// are dropped instead of mutating a newer record.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/storeops/isbnscan/internal/camera"
	"github.com/storeops/isbnscan/internal/isbn"
	"github.com/storeops/isbnscan/internal/lookup"
	"github.com/storeops/isbnscan/internal/metrics"
	"github.com/storeops/isbnscan/internal/models"
	"github.com/storeops/isbnscan/internal/save"
)

// DefaultResetDelay is how long the success message stays up before the automatic reset
const DefaultResetDelay = 1500 * time.Millisecond

var (
	ErrInvalidTransition = errors.New("invalid screen transition")
	ErrWrongScreen       = errors.New("operation not available on this screen")
	ErrLoading           = errors.New("metadata is still loading")
	ErrAlreadySaved      = errors.New("record already saved")
	ErrFieldLocked       = errors.New("field is not editable")
	ErrUnknownField      = errors.New("unknown field")
	ErrClosed            = errors.New("workflow closed")
	ErrNoCapability      = errors.New("no camera capability configured")
)

// Config wires an Engine to its collaborators
type Config struct {
	Lookup *lookup.Orchestrator
	Saver  *save.Orchestrator
	// Camera is the capture capability; nil disables live scanning
	Camera       camera.Capability
	CameraConfig camera.Config
	Variant      models.Variant
	ResetDelay   time.Duration
	// Initial is the first screen, MainMenu or ManualEntry
	Initial ScreenName
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// OnChange is called with a fresh View after every state change.
	// It runs outside the engine lock.
	OnChange func(View)
}

// Engine is the workflow state machine for one station
type Engine struct {
	lookup       *lookup.Orchestrator
	saver        *save.Orchestrator
	capability   camera.Capability
	cameraConfig camera.Config
	variant      models.Variant
	resetDelay   time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
	onChange     func(View)

	mu         sync.Mutex
	screen     Screen
	attempt    uint64
	cancel     context.CancelFunc
	resetTimer *time.Timer
	closed     bool

	// lastSession is the most recently started capture session. A new
	// session waits for its Start to return so the two never hold the
	// device at once.
	lastSession *camera.Session
}

// New creates an engine on its initial screen
func New(cfg Config) *Engine {
	e := &Engine{
		lookup:       cfg.Lookup,
		saver:        cfg.Saver,
		capability:   cfg.Camera,
		cameraConfig: cfg.CameraConfig,
		variant:      cfg.Variant,
		resetDelay:   cfg.ResetDelay,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		onChange:     cfg.OnChange,
		screen:       &MainMenu{},
	}
	if e.variant == "" {
		e.variant = models.VariantExtended
	}
	if e.resetDelay <= 0 {
		e.resetDelay = DefaultResetDelay
	}
	if e.cameraConfig.FPS == 0 {
		e.cameraConfig = camera.DefaultConfig()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if cfg.Initial == ScreenManualEntry {
		e.screen = &ManualEntry{}
	}
	return e
}

// View returns a snapshot of the current screen
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.screen, e.variant)
}

// ShowMainMenu returns to the main menu from any screen, discarding the
// in-flight record and disposing an active camera session before returning.
func (e *Engine) ShowMainMenu() error {
	return e.navigate(func(Screen) (Screen, error) {
		return &MainMenu{}, nil
	})
}

// StartManualEntry opens manual ISBN entry from the main menu
func (e *Engine) StartManualEntry() error {
	return e.navigate(func(cur Screen) (Screen, error) {
		if cur.Name() != ScreenMainMenu {
			return nil, ErrInvalidTransition
		}
		return &ManualEntry{}, nil
	})
}

// StartLiveScan opens the scanner from the main menu and starts a fresh
// capture session in the background. Camera failures are reported through
// the LiveScan view; the screen stays up, inert, until the operator leaves.
func (e *Engine) StartLiveScan() error {
	if e.capability == nil {
		return ErrNoCapability
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.screen.Name() != ScreenMainMenu {
		e.mu.Unlock()
		return ErrInvalidTransition
	}
	stale := e.leaveLocked()

	var session *camera.Session
	session = camera.NewSession(e.capability,
		func(candidate string) { e.acceptScan(session, candidate) },
		camera.WithConfig(e.cameraConfig),
		camera.WithLogger(e.logger),
		camera.WithMetrics(e.metrics),
		camera.OnStateChange(func(camera.State, string) { e.notify() }),
	)
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.screen = &LiveScan{session: session}
	previous := e.lastSession
	e.lastSession = session
	e.mu.Unlock()

	dispose(stale)
	e.notify()

	go func() {
		if previous != nil {
			<-previous.Done()
		}
		if err := session.Start(ctx); err != nil {
			e.logger.Warn("Live scan unavailable", "error", err)
		}
	}()
	return nil
}

// SetManualInput updates the typed ISBN. The lookup fires the moment the
// normalized input first reaches 13 characters; the screen then leaves
// manual entry, so later edits cannot trigger it again.
func (e *Engine) SetManualInput(raw string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	manual, ok := e.screen.(*ManualEntry)
	if !ok {
		e.mu.Unlock()
		return ErrWrongScreen
	}

	manual.Input = isbn.NormalizeManual(raw)
	if isbn.ManualReady(manual.Input) {
		e.beginFetchLocked(manual.Input, models.EntryManual)
	}
	e.mu.Unlock()

	e.notify()
	return nil
}

// Close tears the engine down: camera disposed, pending work abandoned
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	stale := e.leaveLocked()
	e.screen = &MainMenu{}
	e.mu.Unlock()

	dispose(stale)
}

func (e *Engine) navigate(next func(cur Screen) (Screen, error)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	screen, err := next(e.screen)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	from := e.screen.Name()
	stale := e.leaveLocked()
	e.screen = screen
	e.mu.Unlock()

	dispose(stale)
	e.logger.Debug("Screen changed", "from", from, "to", screen.Name())
	e.notify()
	return nil
}

// acceptScan moves a live scan to metadata entry. Acceptances from a
// session that is no longer the active one are ignored.
func (e *Engine) acceptScan(session *camera.Session, candidate string) {
	e.mu.Lock()
	scan, ok := e.screen.(*LiveScan)
	if e.closed || !ok || scan.session != session {
		e.mu.Unlock()
		e.logger.Debug("Ignoring stale scan", "isbn", candidate)
		return
	}
	// the session stopped its stream before calling back; disposing it
	// only marks it spent
	stale := e.beginFetchLocked(candidate, models.EntryScan)
	e.mu.Unlock()

	dispose(stale)
	e.notify()
}

// beginFetchLocked opens MetadataEntry for a validated ISBN and starts the
// lookup. It returns the session of the screen it replaced.
func (e *Engine) beginFetchLocked(accepted string, method models.EntryMethod) *camera.Session {
	stale := e.leaveLocked()

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	token := e.attempt
	e.screen = &MetadataEntry{
		Record:  *models.NewBookRecord(accepted, method),
		Loading: true,
	}

	e.logger.Info("Fetching metadata", "isbn", accepted, "entry_method", method)
	go e.runFetch(ctx, token, accepted)
	return stale
}

func (e *Engine) runFetch(ctx context.Context, token uint64, accepted string) {
	result, err := e.lookup.Fetch(ctx, accepted)
	if err != nil {
		return
	}

	e.mu.Lock()
	md, ok := e.screen.(*MetadataEntry)
	if token != e.attempt || !ok || md.Record.ISBN != accepted {
		e.mu.Unlock()
		return
	}
	md.Loading = false
	md.TitleManual = result.TitleManual
	md.Record.Title = result.Title
	md.Record.TitleSource = sourceFor(result.TitleManual)
	if e.variant.TracksAuthor() {
		md.AuthorManual = result.AuthorManual
		md.Record.Author = result.Author
		md.Record.AuthorSource = sourceFor(result.AuthorManual)
	}
	e.mu.Unlock()

	e.notify()
}

// leaveLocked invalidates every pending async result of the current screen
// and returns the camera session to dispose once the lock is released.
func (e *Engine) leaveLocked() *camera.Session {
	e.attempt++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.resetTimer != nil {
		e.resetTimer.Stop()
		e.resetTimer = nil
	}
	if scan, ok := e.screen.(*LiveScan); ok {
		session := scan.session
		scan.session = nil
		return session
	}
	return nil
}

func (e *Engine) notify() {
	if e.onChange != nil {
		e.onChange(e.View())
	}
}

func dispose(session *camera.Session) {
	if session != nil {
		session.Dispose()
	}
}

func sourceFor(manual bool) models.Source {
	if manual {
		return models.SourceManual
	}
	return models.SourceRemote
}
