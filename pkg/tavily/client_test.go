package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL))
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hres537 119th congress", req["query"])
		assert.Equal(t, []any{"congress.gov"}, req["include_domains"])

		w.Write([]byte(`{"results":[{"url":"https://www.congress.gov/bill/119th-congress/house-resolution/537","title":"H.Res.537","score":0.98}]}`))
	}))

	results, err := c.Search(context.Background(), "hres537 119th congress", WithDomains("congress.gov"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].URL, "house-resolution/537")
}

func TestSearch_RetriesOn503(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"results":[]}`))
	}))

	_, err := c.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearch_FailsOn400(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := c.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}

func TestExtract(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		w.Write([]byte(`{"results":[{"url":"https://example.gov/bio","raw_content":"Full biography text."}]}`))
	}))

	text, err := c.Extract(context.Background(), "https://example.gov/bio")
	require.NoError(t, err)
	assert.Equal(t, "Full biography text.", text)
}

func TestExtract_Failed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[],"failed_results":[{"url":"https://example.gov/bio","error":"blocked"}]}`))
	}))

	_, err := c.Extract(context.Background(), "https://example.gov/bio")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}
