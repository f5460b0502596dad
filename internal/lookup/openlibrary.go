package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/storeops/isbnscan/internal/catalog"
)

const openLibraryURL = "https://openlibrary.org"

// OpenLibrary resolves ISBNs through the Open Library Books API
type OpenLibrary struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewOpenLibrary creates an Open Library backend
func NewOpenLibrary() *OpenLibrary {
	return &OpenLibrary{
		BaseURL:    openLibraryURL,
		HTTPClient: &http.Client{},
	}
}

// openLibraryBooksResponse is keyed by bibkey, e.g. "ISBN:9780132350884"
type openLibraryBooksResponse map[string]struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// LookupISBN returns the title and first listed author. An unknown ISBN
// yields empty metadata, not an error.
func (f *OpenLibrary) LookupISBN(ctx context.Context, isbn string) (catalog.Metadata, error) {
	key := "ISBN:" + isbn
	endpoint := fmt.Sprintf("%s/api/books?bibkeys=%s&format=json&jscmd=data", f.BaseURL, url.QueryEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return catalog.Metadata{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return catalog.Metadata{}, fmt.Errorf("failed to query Open Library: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return catalog.Metadata{}, fmt.Errorf("open Library API returned status %d", resp.StatusCode)
	}

	var result openLibraryBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return catalog.Metadata{}, fmt.Errorf("failed to decode Open Library response: %w", err)
	}

	book, ok := result[key]
	if !ok {
		return catalog.Metadata{}, nil
	}

	meta := catalog.Metadata{Title: book.Title}
	if len(book.Authors) > 0 {
		meta.Author = book.Authors[0].Name
	}
	return meta, nil
}
