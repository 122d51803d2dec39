// Package googlebooks provides access to the Google Books volumes API.
package googlebooks

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/lilizblack/bookeareads-server/internal/metadata"
)

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"
	defaultLimit   = 10
)

// Client provides access to the Google Books volumes API.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	baseURL     string
}

// NewClient creates a new Google Books client. The unauthenticated quota is
// generous but shared, so requests are kept to one per second.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 3),
		logger:      logger,
		baseURL:     defaultBaseURL,
	}
}

// WithBaseURL overrides the API base URL. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Name identifies the provider in logs and lookup results.
func (c *Client) Name() string { return "googlebooks" }

// Search queries Google Books by title and optional author.
func (c *Client) Search(ctx context.Context, title, author string) ([]metadata.Candidate, error) {
	q := fmt.Sprintf("intitle:%q", title)
	if author != "" {
		q += fmt.Sprintf("+inauthor:%q", author)
	}
	return c.search(ctx, q)
}

// SearchISBN queries Google Books by ISBN.
func (c *Client) SearchISBN(ctx context.Context, isbn string) ([]metadata.Candidate, error) {
	return c.search(ctx, "isbn:"+isbn)
}

func (c *Client) search(ctx context.Context, query string) ([]metadata.Candidate, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", defaultLimit))

	searchURL := c.baseURL + "/volumes?" + params.Encode()

	c.logger.Debug("searching Google Books", "url", searchURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: status %d", resp.StatusCode)
	}

	var searchResp volumesResponse
	if err := json.UnmarshalRead(resp.Body, &searchResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	c.logger.Debug("Google Books search results", "count", len(searchResp.Items))

	results := make([]metadata.Candidate, 0, len(searchResp.Items))
	for i := range searchResp.Items {
		results = append(results, searchResp.Items[i].VolumeInfo.toCandidate())
	}
	return results, nil
}
