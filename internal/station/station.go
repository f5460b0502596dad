// Package station assembles a workflow engine and its collaborators from configuration.
package station

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/storeops/isbnscan/internal/camera"
	"github.com/storeops/isbnscan/internal/catalog"
	"github.com/storeops/isbnscan/internal/config"
	"github.com/storeops/isbnscan/internal/gemini"
	"github.com/storeops/isbnscan/internal/lookup"
	"github.com/storeops/isbnscan/internal/metrics"
	"github.com/storeops/isbnscan/internal/ollama"
	"github.com/storeops/isbnscan/internal/openai"
	"github.com/storeops/isbnscan/internal/providers"
	"github.com/storeops/isbnscan/internal/save"
	"github.com/storeops/isbnscan/internal/workflow"
)

// Station is one operator's workflow with its capture device
type Station struct {
	ID        string
	Label     string
	CreatedAt time.Time

	Engine *workflow.Engine
	// Feed is set when scans are pushed in rather than decoded from a device
	Feed *camera.Feed
}

// Summary is the JSON form of a station
type Summary struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	CreatedAt time.Time     `json:"created_at"`
	View      workflow.View `json:"view"`
}

// Summary snapshots the station for rendering
func (s *Station) Summary() Summary {
	return Summary{
		ID:        s.ID,
		Label:     s.Label,
		CreatedAt: s.CreatedAt,
		View:      s.Engine.View(),
	}
}

// Factory builds stations that share one lookup backend and one catalog
// client. Each station gets its own save orchestrator, so a pending save at
// one station never blocks another.
type Factory struct {
	cfg       config.Config
	lookup    *lookup.Orchestrator
	submitter save.Submitter
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewFactory wires the shared lookup orchestrator
func NewFactory(cfg config.Config, backend lookup.Backend, submitter save.Submitter, logger *slog.Logger, m *metrics.Metrics) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		cfg: cfg,
		lookup: lookup.NewOrchestrator(backend,
			lookup.WithLoadingFloor(cfg.LoadingFloor),
			lookup.WithAuthor(cfg.Variant.TracksAuthor()),
			lookup.WithLogger(logger),
			lookup.WithMetrics(m),
		),
		submitter: submitter,
		logger:    logger,
		metrics:   m,
	}
}

// Config returns the configuration the factory builds with
func (f *Factory) Config() config.Config {
	return f.cfg
}

// New builds a station around capability. When capability is nil the
// station gets a Feed. initial picks the first screen.
func (f *Factory) New(id, label string, capability camera.Capability, initial workflow.ScreenName, onChange func(workflow.View)) *Station {
	s := &Station{
		ID:        id,
		Label:     label,
		CreatedAt: time.Now(),
	}
	if capability == nil {
		s.Feed = camera.NewFeed(label)
		capability = s.Feed
	}

	logger := f.logger.With("station", id)
	s.Engine = workflow.New(workflow.Config{
		Lookup:       f.lookup,
		Saver:        save.NewOrchestrator(f.submitter, f.cfg.Variant, f.cfg.Vocabulary, logger, f.metrics),
		Camera:       capability,
		CameraConfig: f.cfg.CameraConfig(),
		Variant:      f.cfg.Variant,
		ResetDelay:   f.cfg.ResetDelay,
		Initial:      initial,
		Logger:       logger,
		Metrics:      f.metrics,
		OnChange:     onChange,
	})
	return s
}

// NewBackend returns the lookup backend the configuration selects. The
// catalog client doubles as the default backend.
func NewBackend(cfg config.Lookup, client *catalog.Client) (lookup.Backend, error) {
	switch cfg.Backend {
	case config.BackendCatalog, "":
		return client, nil
	case config.BackendOpenLibrary:
		return lookup.NewOpenLibrary(), nil
	case config.BackendLLM:
		provider, err := newProvider(cfg)
		if err != nil {
			return nil, err
		}
		return lookup.NewLLM(provider, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported lookup backend: %s", cfg.Backend)
	}
}

func newProvider(cfg config.Lookup) (providers.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL), nil
	case config.ProviderOpenAI:
		return openai.New(os.Getenv("OPENAI_API_KEY")), nil
	case config.ProviderGemini:
		return gemini.New(os.Getenv("GEMINI_API_KEY")), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
