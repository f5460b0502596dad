package station

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/isbnscan/internal/catalog"
	"github.com/storeops/isbnscan/internal/config"
	"github.com/storeops/isbnscan/internal/lookup"
	"github.com/storeops/isbnscan/internal/models"
	"github.com/storeops/isbnscan/internal/save"
	"github.com/storeops/isbnscan/internal/workflow"
)

func TestNewBackend(t *testing.T) {
	client := catalog.NewClient("", nil)
	tests := []struct {
		name    string
		cfg     config.Lookup
		check   func(lookup.Backend) bool
		wantErr bool
	}{
		{
			name:  "catalog",
			cfg:   config.Lookup{Backend: config.BackendCatalog},
			check: func(b lookup.Backend) bool { return b == client },
		},
		{
			name:  "open library",
			cfg:   config.Lookup{Backend: config.BackendOpenLibrary},
			check: func(b lookup.Backend) bool { _, ok := b.(*lookup.OpenLibrary); return ok },
		},
		{
			name:  "llm over ollama",
			cfg:   config.Lookup{Backend: config.BackendLLM, Provider: config.ProviderOllama, Model: "mistral"},
			check: func(b lookup.Backend) bool { _, ok := b.(*lookup.LLM); return ok },
		},
		{
			name:    "llm with unknown provider",
			cfg:     config.Lookup{Backend: config.BackendLLM, Provider: "claude"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			cfg:     config.Lookup{Backend: "isbndb"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := NewBackend(tt.cfg, client)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			if !tt.check(backend) {
				t.Errorf("Unexpected backend %T", backend)
			}
		})
	}
}

func TestFactoryNew(t *testing.T) {
	f := NewFactory(config.Default(), nil, nil, nil, nil)

	st := f.New("st-1", "till 2", nil, workflow.ScreenManualEntry, nil)
	defer st.Engine.Close()

	if st.Feed == nil {
		t.Fatal("Expected a feed-backed station")
	}
	summary := st.Summary()
	if summary.ID != "st-1" || summary.Label != "till 2" {
		t.Errorf("Unexpected summary %+v", summary)
	}
	if summary.View.Screen != workflow.ScreenManualEntry {
		t.Errorf("Expected %s, got %s", workflow.ScreenManualEntry, summary.View.Screen)
	}
}

// gatedCatalog holds saves for the ISBN in hold until release is closed
type gatedCatalog struct {
	hold    string
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedCatalog) LookupISBN(ctx context.Context, isbn string) (catalog.Metadata, error) {
	return catalog.Metadata{Title: "Title " + isbn}, nil
}

func (g *gatedCatalog) SaveTitle(ctx context.Context, req catalog.SaveRequest) error {
	g.calls.Add(1)
	if req.ISBN == g.hold {
		<-g.release
	}
	return nil
}

func TestStationsSaveIndependently(t *testing.T) {
	cfg := config.Default()
	cfg.Variant = models.VariantBasic
	cfg.LoadingFloor = 0
	cfg.ResetDelay = time.Minute

	gated := &gatedCatalog{hold: "9780132350884", release: make(chan struct{})}
	f := NewFactory(cfg, gated, gated, nil, nil)

	stations := map[string]*Station{
		"9780132350884": f.New("a", "", nil, workflow.ScreenManualEntry, nil),
		"9780201633610": f.New("b", "", nil, workflow.ScreenManualEntry, nil),
	}
	for isbn, st := range stations {
		defer st.Engine.Close()
		require.NoError(t, st.Engine.SetManualInput(isbn))
		require.Eventually(t, func() bool {
			v := st.Engine.View()
			return v.Metadata != nil && !v.Metadata.Loading
		}, 2*time.Second, 5*time.Millisecond)
		require.NoError(t, st.Engine.SetField(workflow.FieldPrice, "10"))
	}
	a, b := stations["9780132350884"], stations["9780201633610"]

	pending := make(chan error, 1)
	go func() { pending <- a.Engine.Save(context.Background()) }()
	require.Eventually(t, func() bool { return gated.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, b.Engine.Save(context.Background()))
	assert.Equal(t, save.MessageSaved, b.Engine.View().Metadata.Message)
	assert.Equal(t, int32(2), gated.calls.Load())
	assert.True(t, a.Engine.View().Metadata.Saving)

	close(gated.release)
	require.NoError(t, <-pending)
	assert.Equal(t, save.MessageSaved, a.Engine.View().Metadata.Message)
}
