// Package navapi is the HTTP client for the fund search, NAV history and CSV
// download endpoints.
package navapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"navfinder/internal/domain"
)

// Endpoints holds the collaborator paths relative to the base URL.
type Endpoints struct {
	Search   string
	History  string
	Download string
}

// DefaultEndpoints returns the paths served by the reference NAV service.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Search:   "/api/search",
		History:  "/api/history",
		Download: "/download",
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("GET %s: %d %s: %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Client talks to a NAV service.
type Client struct {
	baseURL    string
	endpoints  Endpoints
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a client for the service at baseURL. A zero timeout
// disables the client-side deadline.
func NewClient(baseURL string, endpoints Endpoints, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "navapi"),
	}
}

// HTTPClient returns the underlying client, shared with the file exporter.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

// DownloadEndpoint returns the absolute URL of the CSV download endpoint.
func (c *Client) DownloadEndpoint() string {
	return c.baseURL + c.endpoints.Download
}

// Search returns the funds whose name matches query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.FundSummary, error) {
	params := url.Values{}
	params.Set("q", query)

	var funds []domain.FundSummary
	if err := c.getJSON(ctx, c.endpoints.Search, params, &funds); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	return funds, nil
}

// History returns the NAV series for code. Empty bounds are left out of the
// request.
func (c *Client) History(ctx context.Context, code string, r domain.DateRange) ([]domain.NavRecord, error) {
	params := url.Values{}
	params.Set("code", code)
	if r.Start != "" {
		params.Set("start", r.Start)
	}
	if r.End != "" {
		params.Set("end", r.End)
	}

	var records []domain.NavRecord
	if err := c.getJSON(ctx, c.endpoints.History, params, &records); err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", code, err)
	}
	return records, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, target any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("GET", "url", u, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{URL: u, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
