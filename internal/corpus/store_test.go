package corpus

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/enrich-cli/internal/blob"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	bucket, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	return New(bucket)
}

func TestStore_SaveLoad_SinglePart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	paths, err := s.Save(ctx, PersonBase(1), "short biography")
	require.NoError(t, err)
	assert.Equal(t, []string{"ppl/1/profile.wikipedia.txt"}, paths)

	text, err := s.Load(ctx, PersonBase(1), 4)
	require.NoError(t, err)
	assert.Equal(t, "short biography", text)
}

func TestStore_SaveLoad_MultiPart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	long := strings.Repeat("x", 2*PartLen+123)
	paths, err := s.Save(ctx, LegislationBase(3, 9), long)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"legi/3/synopsis.9.congress.1.txt",
		"legi/3/synopsis.9.congress.2.txt",
		"legi/3/synopsis.9.congress.3.txt",
	}, paths)

	text, err := s.Load(ctx, LegislationBase(3, 9), 4)
	require.NoError(t, err)
	assert.Equal(t, long, text)
}

func TestStore_Exists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, PersonBase(5))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Save(ctx, PersonBase(5), "stub")
	require.NoError(t, err)

	ok, err = s.Exists(ctx, PersonBase(5))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), PersonBase(404), 4)
	require.Error(t, err)
	assert.True(t, blob.IsNotFound(err))
}
