// Package tavily provides a client for the Tavily search and extract API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.tavily.com"

// Client defines the Tavily operations used by the resolver chains.
type Client interface {
	// Search runs a web search and returns ranked results.
	Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error)
	// Extract fetches readable raw content for a single URL.
	Extract(ctx context.Context, targetURL string) (string, error)
}

// Result is a single search hit.
type Result struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchOption configures a search request.
type SearchOption func(*searchRequest)

// WithDomains restricts results to the given domains.
func WithDomains(domains ...string) SearchOption {
	return func(r *searchRequest) {
		r.IncludeDomains = domains
	}
}

// WithMaxResults caps the number of returned results.
func WithMaxResults(n int) SearchOption {
	return func(r *searchRequest) {
		r.MaxResults = n
	}
}

type searchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

type extractRequest struct {
	URLs []string `json:"urls"`
}

type extractResponse struct {
	Results []struct {
		URL        string `json:"url"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
	FailedResults []struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	} `json:"failed_results"`
}

// Option configures the Tavily client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Tavily API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 45 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// post sends a JSON request with backoff retries on transient statuses.
func (c *httpClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: marshal request")
	}

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "tavily: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = eris.Wrap(err, "tavily: send request")
		} else {
			respBody, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				return nil, eris.Wrap(readErr, "tavily: read response")
			}
			if resp.StatusCode == http.StatusOK {
				return respBody, nil
			}
			lastErr = eris.Errorf("tavily: status %d: %s", resp.StatusCode, string(respBody))
			if !retryableStatusCode(resp.StatusCode) {
				return nil, lastErr
			}
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	req := searchRequest{
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  5,
	}
	for _, opt := range opts {
		opt(&req)
	}

	body, err := c.post(ctx, "/search", req)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "tavily: unmarshal search response")
	}
	return resp.Results, nil
}

func (c *httpClient) Extract(ctx context.Context, targetURL string) (string, error) {
	body, err := c.post(ctx, "/extract", extractRequest{URLs: []string{targetURL}})
	if err != nil {
		return "", err
	}

	var resp extractResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", eris.Wrap(err, "tavily: unmarshal extract response")
	}
	if len(resp.Results) == 0 || resp.Results[0].RawContent == "" {
		if len(resp.FailedResults) > 0 {
			return "", eris.Errorf("tavily: extract failed for %s: %s", targetURL, resp.FailedResults[0].Error)
		}
		return "", eris.Errorf("tavily: extract returned no content for %s", targetURL)
	}
	return resp.Results[0].RawContent, nil
}
