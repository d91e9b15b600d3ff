package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/discuss/internal/kv"
)

func TestSQLiteStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	st, err := Open(path)
	require.NoError(t, err)

	_, err = st.Get(ctx, "liked_comments")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, st.Put(ctx, "liked_comments", []byte(`[5]`)))
	require.NoError(t, st.Put(ctx, "liked_comments", []byte(`[5,6]`)))
	require.NoError(t, st.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "liked_comments")
	require.NoError(t, err)
	require.Equal(t, `[5,6]`, string(got))
}
