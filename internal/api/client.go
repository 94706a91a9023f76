package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running daemon over its HTTP API.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client for the daemon at bind, which may be a bare
// host:port or a full URL.
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if base == "" {
		base = "127.0.0.1:7489"
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Health fetches the daemon health summary.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/api/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemLookup asks whether an item is already archived.
func (c *Client) ItemLookup(id string) (*LookupResponse, error) {
	var resp LookupResponse
	if err := c.get("/api/items/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchItem triggers an item download.
func (c *Client) FetchItem(id string) (*FetchResponse, error) {
	var resp FetchResponse
	if err := c.post("/api/items/"+url.PathEscape(id)+"/fetch", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemStatus polls an item job.
func (c *Client) ItemStatus(id string) (*ItemStatusResponse, error) {
	var resp ItemStatusResponse
	if err := c.get("/api/items/"+url.PathEscape(id)+"/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchCollection triggers a collection download.
func (c *Client) FetchCollection(id string) (*FetchResponse, error) {
	var resp FetchResponse
	if err := c.post("/api/collections/"+url.PathEscape(id)+"/fetch", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CollectionStatus polls a collection job.
func (c *Client) CollectionStatus(id string) (*CollectionStatusResponse, error) {
	var resp CollectionStatusResponse
	if err := c.get("/api/collections/"+url.PathEscape(id)+"/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(path string, out any) error {
	return c.do(http.MethodGet, path, out)
}

func (c *Client) post(path string, out any) error {
	return c.do(http.MethodPost, path, out)
}

func (c *Client) do(method, path string, out any) error {
	req, err := http.NewRequest(method, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope ErrorResponse
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("daemon: %s (%s)", envelope.Error, resp.Status)
		}
		return fmt.Errorf("daemon: unexpected status %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
