package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/https://www.congress.gov/bill/119th-congress/senate-bill/146", r.URL.Path)
		assert.Equal(t, "text", r.Header.Get("X-Return-Format"))
		assert.Empty(t, r.Header.Get("Authorization"), "no auth header without a key")
		w.Write([]byte("Bill text rendered as plain text."))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	text, err := c.Read(context.Background(), "https://www.congress.gov/bill/119th-congress/senate-bill/146")
	require.NoError(t, err)
	assert.Equal(t, "Bill text rendered as plain text.", text)
}

func TestRead_SendsKeyWhenSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jina-key", r.Header.Get("Authorization"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient("jina-key", WithBaseURL(srv.URL))
	_, err := c.Read(context.Background(), "https://example.org")
	require.NoError(t, err)
}

func TestRead_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	text, err := c.Read(context.Background(), "https://example.org")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRead_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	_, err := c.Read(context.Background(), "https://example.org")
	assert.Error(t, err)
}
