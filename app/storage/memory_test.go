package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, store ObjectStore, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, store.Put(context.Background(), key, []byte("x")))
	}
}

func TestMemoryGetPutDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Put(ctx, "a/b", []byte("hello")))
	data, err := store.Get(ctx, "a/b")
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// Delete is idempotent: an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "a/b"))
	assert.NoError(t, store.Delete(ctx, "a/b"))
	_, err = store.Get(ctx, "a/b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListDelimiter(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	seedStore(t, store,
		"posts/alpha/content/raw",
		"posts/alpha/props/abc",
		"posts/beta/content/raw",
		"posts/top-level",
	)

	t.Run("with delimiter", func(t *testing.T) {
		page, err := store.List(ctx, "posts/", "/", "")
		assert.NoError(t, err)
		assert.Equal(t, []string{"posts/alpha/", "posts/beta/"}, page.CommonPrefixes)
		assert.Equal(t, []string{"posts/top-level"}, page.Entries)
		assert.Empty(t, page.NextToken)
	})

	t.Run("without delimiter", func(t *testing.T) {
		page, err := store.List(ctx, "posts/alpha/", "", "")
		assert.NoError(t, err)
		assert.Equal(t, []string{"posts/alpha/content/raw", "posts/alpha/props/abc"}, page.Entries)
		assert.Empty(t, page.CommonPrefixes)
	})

	t.Run("no matches", func(t *testing.T) {
		page, err := store.List(ctx, "nothing/", "/", "")
		assert.NoError(t, err)
		assert.Empty(t, page.Entries)
		assert.Empty(t, page.CommonPrefixes)
		assert.Empty(t, page.NextToken)
	})
}

func TestMemoryListPagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWithPageSize(2)
	seedStore(t, store, "k/a", "k/b", "k/c", "k/d", "k/e")

	var all []string
	token := ""
	pages := 0
	for {
		page, err := store.List(ctx, "k/", "", token)
		require.NoError(t, err)
		all = append(all, page.Entries...)
		pages++
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}
	assert.Equal(t, []string{"k/a", "k/b", "k/c", "k/d", "k/e"}, all)
	assert.Equal(t, 3, pages)
}

func TestMemoryPaginationGroupsAcrossPages(t *testing.T) {
	// A page can consist entirely of keys that collapse into one common
	// prefix: zero entries plus a continuation token. ListAll must keep
	// going and deduplicate the prefix.
	ctx := context.Background()
	store := NewMemoryWithPageSize(2)
	seedStore(t, store,
		"posts/alpha/content/raw",
		"posts/alpha/labels/go/true",
		"posts/alpha/props/abc",
		"posts/beta/content/raw",
		"posts/beta/props/def",
	)

	page, err := store.List(ctx, "posts/", "/", "")
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Equal(t, []string{"posts/alpha/"}, page.CommonPrefixes)
	assert.NotEmpty(t, page.NextToken)

	entries, prefixes, err := ListAll(ctx, store, "posts/", "/")
	assert.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, []string{"posts/alpha/", "posts/beta/"}, prefixes)
}

func TestPrefixedStore(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	store := WithPrefix(inner, "blog/prod")

	assert.NoError(t, store.Put(ctx, "posts/alpha/content/raw", []byte("body")))

	// The sub-path is invisible to the caller and present in the backing store.
	data, err := store.Get(ctx, "posts/alpha/content/raw")
	assert.NoError(t, err)
	assert.Equal(t, []byte("body"), data)

	raw, err := inner.Get(ctx, "blog/prod/posts/alpha/content/raw")
	assert.NoError(t, err)
	assert.Equal(t, []byte("body"), raw)

	page, err := store.List(ctx, "posts/", "/", "")
	assert.NoError(t, err)
	assert.Equal(t, []string{"posts/alpha/"}, page.CommonPrefixes)

	assert.NoError(t, store.Delete(ctx, "posts/alpha/content/raw"))
	assert.Equal(t, 0, inner.Len())
}

func TestOpenStoreURL(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, closeStore, err := Open("mem://")
		require.NoError(t, err)
		defer closeStore()
		assert.IsType(t, &Memory{}, store)
	})

	t.Run("badger", func(t *testing.T) {
		store, closeStore, err := Open("badger://" + t.TempDir())
		require.NoError(t, err)
		assert.IsType(t, &Badger{}, store)
		assert.NoError(t, closeStore())
	})

	t.Run("filesystem", func(t *testing.T) {
		store, closeStore, err := Open("file://" + t.TempDir())
		require.NoError(t, err)
		defer closeStore()
		assert.IsType(t, &Filesystem{}, store)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, _, err := Open("s4://bucket")
		assert.Error(t, err)
	})
}
