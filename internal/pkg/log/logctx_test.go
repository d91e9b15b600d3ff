package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromDefault(t *testing.T) {
	require.Same(t, slog.Default(), From(context.Background()))
}

func TestIntoFrom(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil)).With("op", "test")

	ctx := Into(context.Background(), l)
	From(ctx).Info("hello")

	require.Contains(t, buf.String(), "op=test")
	require.Contains(t, buf.String(), "hello")
}
