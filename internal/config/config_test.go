package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "enrich.db", cfg.Store.Path)
	assert.Equal(t, "fs", cfg.Blob.Driver)
	assert.Equal(t, "https://en.wikipedia.org", cfg.Wikipedia.BaseURL)
	assert.Equal(t, "https://api.tavily.com", cfg.Tavily.BaseURL)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, 5, cfg.Pipeline.Concurrency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Summary.Enabled)
	assert.Equal(t, 10, cfg.Summary.ToleranceWords)
	assert.Equal(t, 45, cfg.Anthropic.JSONTimeoutSecs)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CIVIC_STORE_DRIVER", "postgres")
	t.Setenv("CIVIC_SERVER_PORT", "9090")
	t.Setenv("CIVIC_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level"}))
}
