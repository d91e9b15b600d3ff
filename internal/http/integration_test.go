package httpapp

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/discuss/internal/client"
	"github.com/alphabot-ai/discuss/internal/config"
	"github.com/alphabot-ai/discuss/internal/rate"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()
	return newTestClientWithConfig(t, testConfig())
}

func newTestClientWithConfig(t *testing.T, cfg config.ServerConfig) *client.Client {
	t.Helper()
	server, err := NewServer(newTestStore(t), rate.NewMemory(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	c := client.New(ts.URL)
	c.HTTPClient = ts.Client()
	return c
}

func TestCommentFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	first, err := c.CreateComment(ctx, "first", "")
	require.NoError(t, err)
	second, err := c.CreateComment(ctx, "second", "https://example.com/a.png")
	require.NoError(t, err)
	require.True(t, second.HasImage())

	list, err := c.ListComments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID, "newest first")

	edited, err := c.UpdateText(ctx, first.ID, "first, edited")
	require.NoError(t, err)
	require.Equal(t, "first, edited", edited.Text)

	liked, err := c.UpdateLikes(ctx, first.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, liked.Likes)
	require.Equal(t, "first, edited", liked.Text)

	_, err = c.UpdateLikes(ctx, first.ID, -1)
	require.Error(t, err)
	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 400, se.StatusCode)

	require.NoError(t, c.DeleteComment(ctx, first.ID))
	_, err = c.GetComment(ctx, first.ID)
	require.True(t, client.IsNotFound(err))
}

func TestLikeRateLimit(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.RateLimits.LikesPerMinute = 2
	c := newTestClientWithConfig(t, cfg)

	created, err := c.CreateComment(ctx, "limited", "")
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		_, err := c.UpdateLikes(ctx, created.ID, i)
		require.NoError(t, err)
	}
	_, err = c.UpdateLikes(ctx, created.ID, 3)
	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 429, se.StatusCode)

	// Text edits draw from the write budget, not the like budget.
	_, err = c.UpdateText(ctx, created.ID, "still editable")
	require.NoError(t, err)
}

func TestRequestTimeoutApplied(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeout = time.Nanosecond
	c := newTestClientWithConfig(t, cfg)

	_, err := c.ListComments(context.Background())
	require.Error(t, err)
}
