package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/discuss/internal/kv"
)

func TestFileStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	ctx := context.Background()

	st, err := Open(path)
	require.NoError(t, err)

	_, err = st.Get(ctx, "liked_comments")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, st.Put(ctx, "liked_comments", []byte(`[1,2,3]`)))
	require.NoError(t, st.Put(ctx, "theme", []byte("light")))

	reopened, err := Open(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "liked_comments")
	require.NoError(t, err)
	require.JSONEq(t, `[1,2,3]`, string(got))

	got, err = reopened.Get(ctx, "theme")
	require.NoError(t, err)
	require.Equal(t, "light", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Open(path)
	require.Error(t, err)
}
