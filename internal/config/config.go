// Package config loads station settings. Compiled-in defaults apply unless
// a YAML file or the environment overrides them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/storeops/isbnscan/internal/camera"
	"github.com/storeops/isbnscan/internal/catalog"
	"github.com/storeops/isbnscan/internal/lookup"
	"github.com/storeops/isbnscan/internal/models"
	"github.com/storeops/isbnscan/internal/ollama"
	"github.com/storeops/isbnscan/internal/workflow"
)

// Lookup backends
const (
	BackendCatalog     = "catalog"
	BackendOpenLibrary = "openlibrary"
	BackendLLM         = "llm"
)

// LLM providers for the llm backend
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config is the station configuration
type Config struct {
	CatalogURL   string            `yaml:"catalog_url"`
	Variant      models.Variant    `yaml:"variant"`
	LoadingFloor time.Duration     `yaml:"loading_floor"`
	ResetDelay   time.Duration     `yaml:"reset_delay"`
	Lookup       Lookup            `yaml:"lookup"`
	Camera       Camera            `yaml:"camera"`
	Vocabulary   models.Vocabulary `yaml:"vocabulary"`
}

// Lookup selects where metadata comes from
type Lookup struct {
	Backend   string `yaml:"backend"`
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	OllamaURL string `yaml:"ollama_url"`
}

// Camera tunes the decode loop
type Camera struct {
	FPS       int `yaml:"fps"`
	BoxWidth  int `yaml:"box_width"`
	BoxHeight int `yaml:"box_height"`
}

// Default returns the compiled-in configuration
func Default() Config {
	cam := camera.DefaultConfig()
	return Config{
		CatalogURL:   catalog.DefaultBaseURL,
		Variant:      models.VariantExtended,
		LoadingFloor: lookup.DefaultLoadingFloor,
		ResetDelay:   workflow.DefaultResetDelay,
		Lookup: Lookup{
			Backend:   BackendCatalog,
			Provider:  ProviderOllama,
			OllamaURL: ollama.DefaultURL,
		},
		Camera: Camera{
			FPS:       cam.FPS,
			BoxWidth:  cam.Box.Width,
			BoxHeight: cam.Box.Height,
		},
		Vocabulary: models.DefaultVocabulary(),
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if cfg.Lookup.Model == "" {
		cfg.Lookup.Model = DefaultModel(cfg.Lookup.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ISBNSCAN_CATALOG_URL"); v != "" {
		c.CatalogURL = v
	}
	if v := os.Getenv("ISBNSCAN_VARIANT"); v != "" {
		c.Variant = models.Variant(strings.ToLower(v))
	}
	if v := os.Getenv("ISBNSCAN_LOOKUP"); v != "" {
		c.Lookup.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CATALOGING_PROVIDER"); v != "" {
		c.Lookup.Provider = strings.ToLower(v)
	}

	ollamaHost := os.Getenv("OLLAMA_URL")
	if ollamaHost == "" {
		ollamaHost = os.Getenv("OLLAMA_HOST")
	}
	if ollamaHost != "" {
		c.Lookup.OllamaURL = ollamaHost
	}

	var model string
	switch c.Lookup.Provider {
	case ProviderOpenAI:
		model = os.Getenv("OPENAI_MODEL")
	case ProviderOllama:
		model = os.Getenv("OLLAMA_MODEL")
	case ProviderGemini:
		model = os.Getenv("GEMINI_MODEL")
	}
	if model != "" {
		c.Lookup.Model = model
	}
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderOllama:
		return "mistral-small3.2:24b"
	case ProviderGemini:
		return "gemini-1.5-flash"
	default:
		return ""
	}
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var errs []error
	if c.CatalogURL == "" {
		errs = append(errs, errors.New("catalog_url must be set"))
	}
	if c.Variant != models.VariantBasic && c.Variant != models.VariantExtended {
		errs = append(errs, fmt.Errorf("unsupported form variant: %s", c.Variant))
	}
	if c.LoadingFloor < 0 {
		errs = append(errs, errors.New("loading_floor must not be negative"))
	}
	if c.ResetDelay <= 0 {
		errs = append(errs, errors.New("reset_delay must be positive"))
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, errors.New("camera fps must be positive"))
	}

	switch c.Lookup.Backend {
	case BackendCatalog, BackendOpenLibrary:
	case BackendLLM:
		switch c.Lookup.Provider {
		case ProviderGemini, ProviderOllama, ProviderOpenAI:
		default:
			errs = append(errs, fmt.Errorf("unsupported provider: %s", c.Lookup.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported lookup backend: %s", c.Lookup.Backend))
	}

	if len(c.Vocabulary.Locations) == 0 {
		errs = append(errs, errors.New("at least one location is required"))
	} else if !c.Vocabulary.HasLocation(models.DefaultLocation) {
		errs = append(errs, fmt.Errorf("locations must include the default %s", models.DefaultLocation))
	}
	if c.Variant.TracksAuthor() && (len(c.Vocabulary.Categories) == 0 || len(c.Vocabulary.SubCategories) == 0) {
		errs = append(errs, errors.New("the extended form needs categories and sub-categories"))
	}

	return errors.Join(errs...)
}

// CameraConfig returns the decode loop settings
func (c Config) CameraConfig() camera.Config {
	return camera.Config{
		FPS: c.Camera.FPS,
		Box: camera.Box{Width: c.Camera.BoxWidth, Height: c.Camera.BoxHeight},
	}
}
