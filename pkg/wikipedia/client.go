// Package wikipedia provides a client for the Wikipedia REST and Action
// APIs, used to resolve person biographies.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/civiclens/enrich-cli/internal/resilience"
)

const defaultBaseURL = "https://en.wikipedia.org"

// Summary is the REST page summary, enough to detect disambiguation pages.
type Summary struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Extract string `json:"extract"`
}

// IsDisambiguation reports whether the summary describes a disambiguation
// page rather than a concrete subject.
func (s *Summary) IsDisambiguation() bool {
	return s.Type == "disambiguation"
}

// Page is a search result candidate.
type Page struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Client defines the encyclopedia operations the person resolver needs.
type Client interface {
	// Summary fetches the page summary for an exact title.
	Summary(ctx context.Context, title string) (*Summary, error)
	// Plaintext fetches the full plain-text body for a title, falling back
	// to the Action API extract when the REST endpoint fails.
	Plaintext(ctx context.Context, title string) (string, error)
	// SearchTitles returns up to limit candidate pages for a query.
	SearchTitles(ctx context.Context, query string, limit int) ([]Page, error)
}

// Option configures the Wikipedia client.
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

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Wikipedia client with a polite default rate limit.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, eris.Wrap(err, "wikipedia: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "wikipedia: create request")
	}
	req.Header.Set("User-Agent", "civiclens-enrich/1.0 (https://civiclens.app)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "wikipedia: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "wikipedia: read body")
	}
	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resp.StatusCode, resilience.NewTransientError(
			eris.Errorf("wikipedia: status %d", resp.StatusCode), resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

func (c *httpClient) Summary(ctx context.Context, title string) (*Summary, error) {
	reqURL := fmt.Sprintf("%s/api/rest_v1/page/summary/%s", c.baseURL, url.PathEscape(title))

	cfg := resilience.Single()
	cfg.OnRetry = resilience.RetryLogger("wikipedia", "summary")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Summary, error) {
		body, status, err := c.get(ctx, reqURL)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, eris.Errorf("wikipedia: no page for title %q", title)
		}
		if status != http.StatusOK {
			return nil, eris.Errorf("wikipedia: summary status %d", status)
		}
		var s Summary
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, eris.Wrap(err, "wikipedia: unmarshal summary")
		}
		return &s, nil
	})
}

func (c *httpClient) Plaintext(ctx context.Context, title string) (string, error) {
	text, restErr := c.plainREST(ctx, title)
	if restErr == nil && text != "" {
		return text, nil
	}

	text, actionErr := c.plainAction(ctx, title)
	if actionErr != nil {
		if restErr != nil {
			return "", eris.Wrapf(actionErr, "wikipedia: plaintext for %q (rest: %v)", title, restErr)
		}
		return "", eris.Wrapf(actionErr, "wikipedia: plaintext for %q", title)
	}
	return text, nil
}

func (c *httpClient) plainREST(ctx context.Context, title string) (string, error) {
	reqURL := fmt.Sprintf("%s/api/rest_v1/page/plain/%s", c.baseURL, url.PathEscape(title))

	cfg := resilience.Single()
	cfg.OnRetry = resilience.RetryLogger("wikipedia", "plain")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		body, status, err := c.get(ctx, reqURL)
		if err != nil {
			return "", err
		}
		if status != http.StatusOK {
			return "", eris.Errorf("wikipedia: plain status %d", status)
		}
		return string(body), nil
	})
}

// actionExtractResponse is the Action API prop=extracts shape.
type actionExtractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *httpClient) plainAction(ctx context.Context, title string) (string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("prop", "extracts")
	q.Set("explaintext", "1")
	q.Set("format", "json")
	q.Set("redirects", "1")
	q.Set("titles", title)
	reqURL := fmt.Sprintf("%s/w/api.php?%s", c.baseURL, q.Encode())

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", eris.Errorf("wikipedia: action extract status %d", status)
	}

	var resp actionExtractResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", eris.Wrap(err, "wikipedia: unmarshal action extract")
	}
	for _, page := range resp.Query.Pages {
		if page.Extract != "" {
			return page.Extract, nil
		}
	}
	return "", eris.Errorf("wikipedia: no extract for title %q", title)
}

// searchResponse is the REST v1 search shape.
type searchResponse struct {
	Pages []Page `json:"pages"`
}

func (c *httpClient) SearchTitles(ctx context.Context, query string, limit int) ([]Page, error) {
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	reqURL := fmt.Sprintf("%s/w/rest.php/v1/search/page?%s", c.baseURL, q.Encode())

	cfg := resilience.Single()
	cfg.OnRetry = resilience.RetryLogger("wikipedia", "search")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]Page, error) {
		body, status, err := c.get(ctx, reqURL)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, eris.Errorf("wikipedia: search status %d", status)
		}
		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, eris.Wrap(err, "wikipedia: unmarshal search")
		}
		return resp.Pages, nil
	})
}
