package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupISBN(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/receive_isbn" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"title":"Clean Code","author":"Robert C. Martin"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", nil)
	meta, err := client.LookupISBN(context.Background(), "9780132350884")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotBody["isbn"] != "9780132350884" {
		t.Errorf("Expected isbn in body, got %v", gotBody)
	}
	if meta.Title != "Clean Code" || meta.Author != "Robert C. Martin" {
		t.Errorf("Unexpected metadata: %+v", meta)
	}
}

func TestLookupISBNFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantStatus: true},
		{name: "not found", status: http.StatusNotFound, body: "", wantStatus: true},
		{name: "malformed body", status: http.StatusOK, body: "<html>", wantStatus: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, nil).LookupISBN(context.Background(), "9780132350884")
			if err == nil {
				t.Fatal("Expected error")
			}
			var statusErr *StatusError
			if errors.As(err, &statusErr) != tt.wantStatus {
				t.Errorf("Expected StatusError=%v, got %v", tt.wantStatus, err)
			}
		})
	}
}

func TestSaveTitle(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/save_title" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	err := NewClient(server.URL, nil).SaveTitle(context.Background(), SaveRequest{
		ISBN:     "9780132350884",
		Title:    "Clean Code",
		Price:    json.Number("12.5"),
		Quantity: 2,
		Location: "DLF",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got["price"] != 12.5 {
		t.Errorf("Expected numeric price 12.5, got %#v", got["price"])
	}
	if got["quantity"] != float64(2) {
		t.Errorf("Expected quantity 2, got %#v", got["quantity"])
	}
	if got["b_title"] != "Clean Code" || got["location"] != "DLF" {
		t.Errorf("Unexpected body: %v", got)
	}
	for _, key := range []string{"b_author", "category", "sub_category"} {
		if _, ok := got[key]; ok {
			t.Errorf("Expected %s to be omitted in a title-only save", key)
		}
	}
}

func TestSaveTitleRejectsNonJSONAck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("saved"))
	}))
	defer server.Close()

	err := NewClient(server.URL, nil).SaveTitle(context.Background(), SaveRequest{ISBN: "1", Price: "1"})
	if err == nil {
		t.Fatal("Expected decode error for non-JSON acknowledgement")
	}
}
