package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "nested", "assets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndex_RecordLookup(t *testing.T) {
	idx := openTestIndex(t)

	at := time.Unix(1700000000, 0)
	a := Asset{Path: "/d/monster/丘丘人.png", Category: "monster", Name: "丘丘人", URL: "http://x/a.webp", Bytes: 10, Width: 256, Height: 256, FetchedAt: at}
	require.NoError(t, idx.Record(a))

	got, ok, err := idx.Lookup(a.Path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.URL, got.URL)
	assert.Equal(t, 256, got.Width)
	assert.True(t, got.FetchedAt.Equal(at))

	_, ok, err = idx.Lookup("/missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndex_RecordUpserts(t *testing.T) {
	idx := openTestIndex(t)

	require.NoError(t, idx.Record(Asset{Path: "/p", Category: "c", Name: "n", URL: "old"}))
	require.NoError(t, idx.Record(Asset{Path: "/p", Category: "c", Name: "n", URL: "new"}))

	all, err := idx.List("")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].URL)
}

func TestIndex_ListByCategory(t *testing.T) {
	idx := openTestIndex(t)

	for _, a := range []Asset{
		{Path: "/b", Category: "reward", Name: "b", URL: "u"},
		{Path: "/a", Category: "reward", Name: "a", URL: "u"},
		{Path: "/m", Category: "monster", Name: "m", URL: "u"},
	} {
		require.NoError(t, idx.Record(a))
	}

	rewards, err := idx.List("reward")
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	assert.Equal(t, "a", rewards[0].Name)

	all, err := idx.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "monster", all[0].Category)

	require.NoError(t, idx.Forget("/m"))
	all, err = idx.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
