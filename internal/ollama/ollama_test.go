package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storeops/isbnscan/internal/providers"
)

func TestExtractText(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"response":"{\"title\":\"Dune\"}"}`))
	}))
	defer server.Close()

	text, err := New(server.URL).ExtractText(context.Background(), providers.Config{
		Model:  "llama3",
		Prompt: "isbn 9780441013593",
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != `{"title":"Dune"}` {
		t.Errorf("Unexpected response text: %s", text)
	}
	if got["format"] != "json" {
		t.Errorf("Expected JSON format request, got %v", got["format"])
	}
	if got["stream"] != false {
		t.Errorf("Expected non-streaming request")
	}
}

func TestExtractTextNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := New(server.URL).ExtractText(context.Background(), providers.Config{Model: "x"}); err == nil {
		t.Fatal("Expected error for 404")
	}
}
