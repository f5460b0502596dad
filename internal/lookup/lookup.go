// Package lookup resolves an accepted ISBN to title and author for the metadata form.
//
// The Orchestrator issues exactly one call per ISBN through a Backend, keeps
// the loading state visible for a minimum duration, and turns every failure
// into a "nothing found" result so the operator can always fall back to
// manual entry.
package lookup

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/storeops/isbnscan/internal/catalog"
	"github.com/storeops/isbnscan/internal/metrics"
)

// DefaultLoadingFloor is how long the loading indicator stays up at minimum
const DefaultLoadingFloor = 300 * time.Millisecond

// Backend resolves an ISBN to bibliographic metadata
type Backend interface {
	LookupISBN(ctx context.Context, isbn string) (catalog.Metadata, error)
}

// Result is what the metadata form shows once loading clears
type Result struct {
	ISBN   string
	Title  string
	Author string
	// TitleManual is set when the operator has to type the title
	TitleManual bool
	// AuthorManual is set when the operator has to type the author.
	// Always false when the form does not track authors.
	AuthorManual bool
	// Err is the lookup failure, if any. It is informational only.
	Err error
}

// Orchestrator drives one lookup per ISBN
type Orchestrator struct {
	backend     Backend
	floor       time.Duration
	trackAuthor bool
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

func WithLoadingFloor(d time.Duration) Option { return func(o *Orchestrator) { o.floor = d } }
func WithAuthor(track bool) Option             { return func(o *Orchestrator) { o.trackAuthor = track } }
func WithLogger(l *slog.Logger) Option         { return func(o *Orchestrator) { o.logger = l } }
func WithMetrics(m *metrics.Metrics) Option    { return func(o *Orchestrator) { o.metrics = m } }

// NewOrchestrator creates an orchestrator over backend
func NewOrchestrator(backend Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend: backend,
		floor:   DefaultLoadingFloor,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fetch performs the lookup and blocks until both the call has returned and
// the loading floor has elapsed since the call started. The only error is
// ctx.Err() when the caller lost interest; the result must then be discarded.
func (o *Orchestrator) Fetch(ctx context.Context, isbn string) (Result, error) {
	start := time.Now()
	meta, err := o.backend.LookupISBN(ctx, isbn)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	result := o.mapResult(isbn, meta, err)
	o.logOutcome(result, elapsed)

	if remaining := o.floor - elapsed; remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	return result, nil
}

func (o *Orchestrator) mapResult(isbn string, meta catalog.Metadata, err error) Result {
	result := Result{ISBN: isbn, Err: err}
	if err != nil {
		meta = catalog.Metadata{}
	}

	result.Title = strings.TrimSpace(meta.Title)
	result.TitleManual = result.Title == ""

	if o.trackAuthor {
		result.Author = strings.TrimSpace(meta.Author)
		result.AuthorManual = result.Author == ""
	}
	return result
}

func (o *Orchestrator) logOutcome(result Result, elapsed time.Duration) {
	switch {
	case result.Err != nil:
		o.logger.Warn("ISBN lookup failed, falling back to manual entry", "isbn", result.ISBN, "error", result.Err, "elapsed", elapsed)
		o.metrics.Lookup(metrics.LookupFailed, elapsed)
	case result.TitleManual:
		o.logger.Info("ISBN not found by lookup service", "isbn", result.ISBN, "elapsed", elapsed)
		o.metrics.Lookup(metrics.LookupNotFound, elapsed)
	default:
		o.logger.Info("ISBN resolved", "isbn", result.ISBN, "title", result.Title, "elapsed", elapsed)
		o.metrics.Lookup(metrics.LookupFound, elapsed)
	}
}
