// Package openlibrary provides access to the Open Library search API.
package openlibrary

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/lilizblack/bookeareads-server/internal/metadata"
)

const (
	defaultBaseURL = "https://openlibrary.org"
	defaultLimit   = 10
)

// Client provides access to the Open Library search API.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	baseURL     string
}

// NewClient creates a new Open Library client.
// Open Library asks for courteous use; one request per second with a small
// burst stays well within that.
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
func (c *Client) Name() string { return "openlibrary" }

// Search queries Open Library by title and optional author.
func (c *Client) Search(ctx context.Context, title, author string) ([]metadata.Candidate, error) {
	params := url.Values{}
	params.Set("title", title)
	if author != "" {
		params.Set("author", author)
	}
	return c.search(ctx, params)
}

// SearchISBN queries Open Library by ISBN.
func (c *Client) SearchISBN(ctx context.Context, isbn string) ([]metadata.Candidate, error) {
	params := url.Values{}
	params.Set("isbn", isbn)
	return c.search(ctx, params)
}

func (c *Client) search(ctx context.Context, params url.Values) ([]metadata.Candidate, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params.Set("limit", strconv.Itoa(defaultLimit))
	searchURL := c.baseURL + "/search.json?" + params.Encode()

	c.logger.Debug("searching Open Library", "url", searchURL)

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

	var searchResp searchResponse
	if err := json.UnmarshalRead(resp.Body, &searchResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	c.logger.Debug("Open Library search results", "count", searchResp.NumFound)

	results := make([]metadata.Candidate, 0, len(searchResp.Docs))
	for i := range searchResp.Docs {
		results = append(results, searchResp.Docs[i].toCandidate())
	}
	return results, nil
}
