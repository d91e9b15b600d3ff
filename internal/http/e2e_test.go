package httpapp_test

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/discuss/internal/board"
	"github.com/alphabot-ai/discuss/internal/client"
	"github.com/alphabot-ai/discuss/internal/config"
	httpapp "github.com/alphabot-ai/discuss/internal/http"
	"github.com/alphabot-ai/discuss/internal/kv/file"
	"github.com/alphabot-ai/discuss/internal/ledger"
	"github.com/alphabot-ai/discuss/internal/liststore"
	"github.com/alphabot-ai/discuss/internal/optimistic"
	"github.com/alphabot-ai/discuss/internal/rate"
	"github.com/alphabot-ai/discuss/internal/store/sqlite"
)

func TestEndToEndLikeToggle(t *testing.T) {
	ctx := context.Background()

	st, err := sqlite.Open("file:e2e_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	cfg := config.ServerConfig{
		Addr:           ":0",
		Author:         "Admin",
		RequestTimeout: 5 * time.Second,
		RateLimits:     config.RateLimits{WritesPerMinute: 1000, LikesPerMinute: 1000},
	}
	server, err := httpapp.NewServer(st, rate.NewMemory(), cfg, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	httpServer := &http.Server{Handler: server}
	go func() {
		_ = httpServer.Serve(listener)
	}()
	defer httpServer.Close()

	baseURL := "http://" + listener.Addr().String()
	statePath := filepath.Join(t.TempDir(), "state.json")

	open := func() *board.Board {
		kvStore, err := file.Open(statePath)
		require.NoError(t, err)
		led, err := ledger.Open(ctx, kvStore)
		require.NoError(t, err)
		b := board.New(client.New(baseURL), liststore.New(), led, optimistic.WithTimeout(2*time.Second))
		b.Load(ctx)
		return b
	}

	b := open()
	created, err := b.Post(ctx, "end to end", "")
	require.NoError(t, err)

	res, err := b.Like(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, optimistic.Confirmed, res.State)
	require.Equal(t, 1, res.Likes)

	// A fresh process sees the persisted ledger and the server count.
	b = open()
	require.True(t, b.Liked(created.ID))
	got, ok := b.Comment(created.ID)
	require.True(t, ok)
	require.Equal(t, 1, got.Likes)

	res, err = b.Like(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, res.WasLiked)
	require.Zero(t, res.Likes)
	require.False(t, b.Liked(created.ID))

	// With the server gone, the toggle rolls back and the ledger stays put.
	require.NoError(t, httpServer.Close())
	res, err = b.Like(ctx, created.ID)
	require.ErrorIs(t, err, optimistic.ErrTransport)
	require.Equal(t, optimistic.RolledBack, res.State)
	got, _ = b.Comment(created.ID)
	require.Zero(t, got.Likes)
	require.False(t, b.Liked(created.ID))
}
