package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultBaseURL is the compiled-in catalog service
const DefaultBaseURL = "https://testocrtest.pythonanywhere.com"

// Client talks to the remote catalog service: ISBN lookup and title save
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// Metadata is the lookup response. Both fields are optional.
type Metadata struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

// SaveRequest is the body of a save call
type SaveRequest struct {
	ISBN        string      `json:"isbn"`
	Title       string      `json:"b_title"`
	Author      string      `json:"b_author,omitempty"`
	Price       json.Number `json:"price"`
	Quantity    int         `json:"quantity"`
	Location    string      `json:"location"`
	Category    string      `json:"category,omitempty"`
	SubCategory string      `json:"sub_category,omitempty"`
}

// StatusError is returned when the service answers with a non-2xx status
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// NewClient creates a new catalog client. No client-side timeout is set;
// callers bound requests through the context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// LookupISBN asks the service for the title and author of an ISBN
func (c *Client) LookupISBN(ctx context.Context, isbn string) (Metadata, error) {
	var meta Metadata
	if err := c.post(ctx, "/receive_isbn", map[string]string{"isbn": isbn}, &meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// SaveTitle submits a completed record. The acknowledgement body must
// parse as JSON but its content is otherwise ignored.
func (c *Client) SaveTitle(ctx context.Context, req SaveRequest) error {
	var ack json.RawMessage
	return c.post(ctx, "/save_title", req, &ack)
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}
