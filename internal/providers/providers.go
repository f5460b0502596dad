package providers

import (
	"context"
)

// Config is one prompt sent to an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// JSON asks the provider to constrain its output to a JSON object
	JSON bool
}

// Provider defines the interface for an LLM provider used as a lookup backend
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
