package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSBucket_RoundTrip(t *testing.T) {
	b, err := NewFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Upload(ctx, "ppl/7/profile.wikipedia.txt", []byte("hello")))

	data, err := b.Download(ctx, "ppl/7/profile.wikipedia.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFSBucket_ListByPrefix(t *testing.T) {
	b, err := NewFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Upload(ctx, "ppl/7/profile.wikipedia.txt", []byte("a")))
	require.NoError(t, b.Upload(ctx, "ppl/7/profile.wikipedia.2.txt", []byte("b")))
	require.NoError(t, b.Upload(ctx, "ppl/8/profile.wikipedia.txt", []byte("c")))

	paths, err := b.List(ctx, "ppl/7/profile.wikipedia")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"ppl/7/profile.wikipedia.txt",
		"ppl/7/profile.wikipedia.2.txt",
	}, paths)
}

func TestFSBucket_DownloadMissing(t *testing.T) {
	b, err := NewFS(t.TempDir())
	require.NoError(t, err)

	_, err = b.Download(context.Background(), "ppl/9/missing.txt")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestFSBucket_RejectsTraversal(t *testing.T) {
	b, err := NewFS(t.TempDir())
	require.NoError(t, err)

	err = b.Upload(context.Background(), "../outside.txt", []byte("x"))
	assert.Error(t, err)
}
