package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/app/keyschema"
	"inkwell/app/storage"
)

func TestListByLabel(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t)
	index := NewStoreLabelIndex(store, nil)

	require.NoError(t, repo.SavePost(ctx, testPost("zebra-post", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "go", "blog")))
	require.NoError(t, repo.SavePost(ctx, testPost("aardvark-post", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "go")))

	slugs, err := index.ListByLabel(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"aardvark-post", "zebra-post"}, slugs)

	slugs, err = index.ListByLabel(ctx, "blog")
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra-post"}, slugs)

	t.Run("unknown label is empty, not an error", func(t *testing.T) {
		slugs, err := index.ListByLabel(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, slugs)
	})

	t.Run("invalid label", func(t *testing.T) {
		_, err := index.ListByLabel(ctx, "has space")
		var verr *keyschema.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestListLabels(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t)
	index := NewStoreLabelIndex(store, nil)

	labels, err := index.ListLabels(ctx)
	require.NoError(t, err)
	assert.Empty(t, labels)

	require.NoError(t, repo.SavePost(ctx, testPost("my-first-post", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "go", "blog")))
	require.NoError(t, repo.SavePost(ctx, testPost("my-other-post", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "go")))

	labels, err = index.ListLabels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"blog", "go"}, labels)
}

func TestListByLabelToleratesStaleMarker(t *testing.T) {
	// Reverse markers are derived state: a marker pointing at a deleted post
	// still lists, and resolving it is the caller's concern.
	ctx := context.Background()
	store := storage.NewMemory()
	index := NewStoreLabelIndex(store, nil)

	require.NoError(t, store.Put(ctx, keyschema.ReverseLabelKey("go", "gone-post"), nil))

	slugs, err := index.ListByLabel(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"gone-post"}, slugs)
}
