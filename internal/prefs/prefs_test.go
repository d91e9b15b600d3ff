package prefs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/discuss/internal/kv"
)

func TestThemeDefaultsToDark(t *testing.T) {
	p := New(kv.NewMemory())
	got, err := p.Theme(context.Background())
	require.NoError(t, err)
	require.Equal(t, Dark, got)
}

func TestToggleTheme(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	p := New(store)

	got, err := p.ToggleTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, Light, got)

	raw, err := store.Get(ctx, ThemeKey)
	require.NoError(t, err)
	require.Equal(t, "light", string(raw))

	got, err = p.ToggleTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, Dark, got)
}

func TestUnknownStoredThemeFallsBack(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Put(ctx, ThemeKey, []byte("solarized")))

	got, err := New(store).Theme(ctx)
	require.NoError(t, err)
	require.Equal(t, Dark, got)
}

func TestSetThemeRejectsInvalid(t *testing.T) {
	err := New(kv.NewMemory()).SetTheme(context.Background(), Theme("blue"))
	require.ErrorIs(t, err, ErrInvalidTheme)
}

func TestParseTheme(t *testing.T) {
	got, err := ParseTheme(" Light ")
	require.NoError(t, err)
	require.Equal(t, Light, got)
}
