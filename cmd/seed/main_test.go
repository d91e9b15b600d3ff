package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/discuss/internal/store/sqlite"
)

func TestRunSeedsDatabase(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "comments.json")
	require.NoError(t, os.WriteFile(fixture, []byte(`{"comments":[
		{"id": 5, "author": "Admin", "text": "hello", "date": "2024-11-20T10:00:00Z", "likes": 2}
	]}`), 0o600))
	dbPath := filepath.Join(dir, "discuss.db")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	require.NoError(t, run(dbPath, fixture, logger))
	require.Contains(t, logs.String(), "created=1")

	require.NoError(t, run(dbPath, fixture, logger))
	require.Contains(t, logs.String(), "skipped=1")

	st, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	c, err := st.GetComment(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "hello", c.Text)
}

func TestRunMissingFixture(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	err := run(filepath.Join(dir, "discuss.db"), filepath.Join(dir, "missing.json"), logger)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Contains(t, err.Error(), "open fixture")
}
