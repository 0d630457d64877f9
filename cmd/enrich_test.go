package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civiclens/enrich-cli/internal/config"
)

func TestResolveConcurrency(t *testing.T) {
	cfg = &config.Config{Pipeline: config.PipelineConfig{Concurrency: 5}}
	t.Cleanup(func() { cfg = nil; enrichConcurrency = 0 })

	enrichConcurrency = 0
	assert.Equal(t, 5, resolveConcurrency())

	enrichConcurrency = 3
	assert.Equal(t, 3, resolveConcurrency())

	enrichConcurrency = 99
	assert.Equal(t, 15, resolveConcurrency())
}
