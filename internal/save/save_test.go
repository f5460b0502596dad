package save

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storeops/isbnscan/internal/catalog"
	"github.com/storeops/isbnscan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
	mu      sync.Mutex
	last    catalog.SaveRequest
}

func (f *fakeSubmitter) SaveTitle(ctx context.Context, req catalog.SaveRequest) error {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.err
}

func basicRecord() models.BookRecord {
	rec := models.NewBookRecord("9780132350884", models.EntryManual)
	rec.Title = "Clean Code"
	rec.TitleSource = models.SourceRemote
	rec.Price = "12.50"
	rec.Quantity = "2"
	rec.Location = "DLF"
	return *rec
}

func TestBuildRequestBasic(t *testing.T) {
	req, err := BuildRequest(basicRecord(), models.VariantBasic, models.DefaultVocabulary())
	require.NoError(t, err)

	assert.Equal(t, catalog.SaveRequest{
		ISBN:     "9780132350884",
		Title:    "Clean Code",
		Price:    json.Number("12.5"),
		Quantity: 2,
		Location: "DLF",
	}, req)
}

func TestBuildRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		variant models.Variant
		mutate  func(*models.BookRecord)
		missing []string
		invalid []string
	}{
		{
			name:    "missing title",
			variant: models.VariantBasic,
			mutate:  func(r *models.BookRecord) { r.Title = "" },
			missing: []string{"title"},
		},
		{
			name:    "missing price and quantity",
			variant: models.VariantBasic,
			mutate:  func(r *models.BookRecord) { r.Price = ""; r.Quantity = " " },
			missing: []string{"price", "quantity"},
		},
		{
			name:    "negative price, zero quantity",
			variant: models.VariantBasic,
			mutate:  func(r *models.BookRecord) { r.Price = "-2"; r.Quantity = "0" },
			invalid: []string{"price", "quantity"},
		},
		{
			name:    "unknown location",
			variant: models.VariantBasic,
			mutate:  func(r *models.BookRecord) { r.Location = "MOON" },
			invalid: []string{"location"},
		},
		{
			name:    "extended form requires author and categories",
			variant: models.VariantExtended,
			mutate:  func(r *models.BookRecord) {},
			missing: []string{"author", "category", "sub_category"},
		},
		{
			name:    "extended form rejects unknown category",
			variant: models.VariantExtended,
			mutate: func(r *models.BookRecord) {
				r.Author = "Robert C. Martin"
				r.Category = "COOKING"
				r.SubCategory = "GENERAL"
			},
			invalid: []string{"category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := basicRecord()
			tt.mutate(&rec)

			_, err := BuildRequest(rec, tt.variant, models.DefaultVocabulary())
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.missing, verr.Missing)
			assert.Equal(t, tt.invalid, verr.Invalid)
		})
	}
}

func TestSubmitValidationMakesNoCall(t *testing.T) {
	sub := &fakeSubmitter{}
	o := NewOrchestrator(sub, models.VariantBasic, models.DefaultVocabulary(), nil, nil)

	rec := basicRecord()
	rec.Title = ""
	err := o.Submit(context.Background(), rec)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.EqualValues(t, 0, sub.calls.Load())
}

func TestSubmitRejectsConcurrentTrigger(t *testing.T) {
	sub := &fakeSubmitter{release: make(chan struct{})}
	o := NewOrchestrator(sub, models.VariantBasic, models.DefaultVocabulary(), nil, nil)

	first := make(chan error, 1)
	go func() { first <- o.Submit(context.Background(), basicRecord()) }()

	require.Eventually(t, o.InFlight, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, o.Submit(context.Background(), basicRecord()), ErrInFlight)

	close(sub.release)
	require.NoError(t, <-first)
	assert.EqualValues(t, 1, sub.calls.Load())
	assert.False(t, o.InFlight())
}

func TestSubmitFailureIsRetryable(t *testing.T) {
	sub := &fakeSubmitter{err: &catalog.StatusError{Endpoint: "/save_title", StatusCode: 500}}
	o := NewOrchestrator(sub, models.VariantBasic, models.DefaultVocabulary(), nil, nil)

	err := o.Submit(context.Background(), basicRecord())
	var ferr *FailureError
	require.ErrorAs(t, err, &ferr)
	var statusErr *catalog.StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.False(t, o.InFlight(), "affordance re-enabled after failure")

	sub.err = nil
	assert.NoError(t, o.Submit(context.Background(), basicRecord()))
	assert.EqualValues(t, 2, sub.calls.Load())
}
