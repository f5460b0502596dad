package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storeops/isbnscan/internal/catalog"
	"github.com/storeops/isbnscan/internal/providers"
)

// LLM resolves ISBNs by asking a language model provider
type LLM struct {
	provider    providers.Provider
	model       string
	temperature float64
}

// NewLLM creates an LLM-backed lookup
func NewLLM(provider providers.Provider, model string) *LLM {
	return &LLM{provider: provider, model: model, temperature: 0.1}
}

func (l *LLM) LookupISBN(ctx context.Context, isbn string) (catalog.Metadata, error) {
	text, err := l.provider.ExtractText(ctx, providers.Config{
		Model:       l.model,
		Temperature: l.temperature,
		Prompt:      buildLookupPrompt(isbn),
		JSON:        true,
	})
	if err != nil {
		return catalog.Metadata{}, fmt.Errorf("provider lookup failed: %w", err)
	}
	return parseLookupResponse(text)
}

func buildLookupPrompt(isbn string) string {
	return fmt.Sprintf(`You are a bibliographic reference assistant for a bookstore inventory system.

Identify the published book with ISBN %s.

Respond with ONLY a JSON object in the following format:

{
  "title": "Full title of the book",
  "author": "Primary author"
}

If you do not know the book with certainty, respond with {"title": "", "author": ""}.
Do not guess.`, isbn)
}

// parseLookupResponse extracts the JSON object, tolerating markdown code fences
func parseLookupResponse(response string) (catalog.Metadata, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var meta catalog.Metadata
	if err := json.Unmarshal([]byte(response), &meta); err != nil {
		slog.Debug("Provider returned non-JSON lookup response", "response", response)
		return catalog.Metadata{}, fmt.Errorf("failed to parse provider response: %w", err)
	}
	return meta, nil
}
