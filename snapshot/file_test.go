package snapshot_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyreio/cyre-go/snapshot"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cyre-snapshot.json")
	store := snapshot.NewFileStore(path)
	ctx := context.Background()

	snap, err := snapshot.Capture([]string{"a", "b", "missing"}, func(id string) (any, bool) {
		switch id {
		case "a":
			return 1, true
		case "b":
			return "two", true
		default:
			return nil, false
		}
	})
	require.NoError(t, err)
	require.Len(t, snap, 2)

	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	var a int
	require.NoError(t, snapshot.Decode(loaded["a"], &a))
	assert.Equal(t, 1, a)

	var b string
	require.NoError(t, snapshot.Decode(loaded["b"], &b))
	assert.Equal(t, "two", b)
}

func TestFileStoreLoadMissingFileReturnsEmpty(t *testing.T) {
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}
