package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON_Plain(t *testing.T) {
	raw, err := CleanJSON(`{"office_type":"senator"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"office_type":"senator"}`, string(raw))
}

func TestCleanJSON_CodeFence(t *testing.T) {
	raw, err := CleanJSON("```json\n{\"party\":\"R\"}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"party":"R"}`, string(raw))
}

func TestCleanJSON_SurroundingProse(t *testing.T) {
	raw, err := CleanJSON(`Here is the extraction: {"state":"WY"} Let me know if you need more.`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"WY"}`, string(raw))
}

func TestCleanJSON_NoObject(t *testing.T) {
	_, err := CleanJSON("I could not find any facts.")
	assert.Error(t, err)
}

func TestCleanJSON_Malformed(t *testing.T) {
	_, err := CleanJSON(`{"office": senator}`)
	assert.Error(t, err)
}
