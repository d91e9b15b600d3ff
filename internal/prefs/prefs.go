// Package prefs persists client display preferences next to the ledger.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alphabot-ai/discuss/internal/kv"
)

// ThemeKey is the storage key of the theme preference.
const ThemeKey = "theme"

type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

var ErrInvalidTheme = errors.New("theme must be dark or light")

// ParseTheme accepts "dark" or "light" in any case.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Dark:
		return Dark, nil
	case Light:
		return Light, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
}

type Prefs struct {
	kv kv.Store
}

func New(store kv.Store) *Prefs {
	return &Prefs{kv: store}
}

// Theme returns the stored theme. Missing or unknown values yield Dark.
func (p *Prefs) Theme(ctx context.Context) (Theme, error) {
	raw, err := p.kv.Get(ctx, ThemeKey)
	if errors.Is(err, kv.ErrNotFound) {
		return Dark, nil
	}
	if err != nil {
		return "", fmt.Errorf("load theme: %w", err)
	}
	t, err := ParseTheme(string(raw))
	if err != nil {
		return Dark, nil
	}
	return t, nil
}

func (p *Prefs) SetTheme(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	if err := p.kv.Put(ctx, ThemeKey, []byte(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// ToggleTheme flips between dark and light and returns the new theme.
func (p *Prefs) ToggleTheme(ctx context.Context) (Theme, error) {
	cur, err := p.Theme(ctx)
	if err != nil {
		return "", err
	}
	next := Light
	if cur == Light {
		next = Dark
	}
	if err := p.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
