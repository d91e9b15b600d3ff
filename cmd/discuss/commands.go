package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/alphabot-ai/discuss/internal/board"
	"github.com/alphabot-ai/discuss/internal/client"
	"github.com/alphabot-ai/discuss/internal/config"
	"github.com/alphabot-ai/discuss/internal/kv"
	"github.com/alphabot-ai/discuss/internal/kv/file"
	kvredis "github.com/alphabot-ai/discuss/internal/kv/redis"
	kvsqlite "github.com/alphabot-ai/discuss/internal/kv/sqlite"
	"github.com/alphabot-ai/discuss/internal/ledger"
	"github.com/alphabot-ai/discuss/internal/liststore"
	"github.com/alphabot-ai/discuss/internal/model"
	"github.com/alphabot-ai/discuss/internal/optimistic"
	"github.com/alphabot-ai/discuss/internal/pkg/log"
	"github.com/alphabot-ai/discuss/internal/prefs"
)

const dateLayout = "01/02/2006 15:04:05"

func (a *app) commandContext(c *cli.Context) context.Context {
	return log.Into(c.Context, a.log)
}

func (a *app) openState(ctx context.Context) (kv.Store, error) {
	st := a.cfg.State
	switch st.Backend {
	case config.BackendRedis:
		return kvredis.Open(ctx, st.RedisAddr, st.RedisPrefix)
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(st.Path), 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		return kvsqlite.Open(st.Path)
	default:
		return file.Open(st.Path)
	}
}

// openBoard loads local state and the remote collection. The returned func
// releases the state store.
func (a *app) openBoard(ctx context.Context) (*board.Board, func(), error) {
	store, err := a.openState(ctx)
	if err != nil {
		return nil, nil, err
	}
	led, err := ledger.Open(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cl := client.New(a.cfg.Client.BaseURL)
	cl.HTTPClient.Timeout = a.cfg.Client.HTTPTimeout

	b := board.New(cl, liststore.New(), led,
		optimistic.WithTimeout(a.cfg.Client.ReactionTimeout),
		optimistic.WithNotifier(optimistic.NotifierFunc(a.notify)),
	)
	b.Load(ctx)
	return b, func() { _ = store.Close() }, nil
}

func (a *app) notify(_ context.Context, n optimistic.Notice) {
	fmt.Fprintf(a.errOut, "✗ %s\n", n.Message())
	if n.Timeout {
		fmt.Fprintf(a.errOut, "  (no response within %s)\n", a.cfg.Client.ReactionTimeout)
	}
}

func (a *app) list(c *cli.Context) error {
	ctx := a.commandContext(c)
	b, closeState, err := a.openBoard(ctx)
	if err != nil {
		return err
	}
	defer closeState()

	comments := b.Comments()
	if len(comments) == 0 {
		fmt.Fprintln(a.out, "No comments yet.")
		return nil
	}
	for _, cm := range comments {
		a.printComment(cm, b.Liked(cm.ID))
	}
	return nil
}

func (a *app) printComment(cm model.Comment, liked bool) {
	heart := "♡"
	if liked {
		heart = "♥"
	}
	fmt.Fprintf(a.out, "#%d  %s  %s  %s %d\n", cm.ID, cm.Author, cm.Date.Local().Format(dateLayout), heart, cm.Likes)
	for _, line := range strings.Split(cm.Text, "\n") {
		fmt.Fprintf(a.out, "    %s\n", line)
	}
	if cm.HasImage() {
		fmt.Fprintf(a.out, "    [image] %s\n", *cm.Image)
	}
	fmt.Fprintln(a.out)
}

func (a *app) post(c *cli.Context) error {
	ctx := a.commandContext(c)
	b, closeState, err := a.openBoard(ctx)
	if err != nil {
		return err
	}
	defer closeState()

	created, err := b.Post(ctx, c.String("text"), c.String("image"))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Posted comment %d\n", created.ID)
	return nil
}

func (a *app) edit(c *cli.Context) error {
	ctx := a.commandContext(c)
	b, closeState, err := a.openBoard(ctx)
	if err != nil {
		return err
	}
	defer closeState()

	id := c.Int64("id")
	if _, err := b.Edit(ctx, id, c.String("text")); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Updated comment %d\n", id)
	return nil
}

func (a *app) like(c *cli.Context) error {
	ctx := a.commandContext(c)
	b, closeState, err := a.openBoard(ctx)
	if err != nil {
		return err
	}
	defer closeState()

	id := c.Int64("id")
	res, err := b.Like(ctx, id)
	switch res.State {
	case optimistic.Skipped:
		return fmt.Errorf("comment %d is not on the board", id)
	case optimistic.RolledBack:
		return errReported
	}
	verb := "Liked"
	if res.WasLiked {
		verb = "Unliked"
	}
	fmt.Fprintf(a.out, "✓ %s comment %d (%d likes)\n", verb, id, res.Likes)
	if err != nil {
		return fmt.Errorf("like saved on the server but not locally: %w", err)
	}
	return nil
}

func (a *app) delete(c *cli.Context) error {
	ctx := a.commandContext(c)
	b, closeState, err := a.openBoard(ctx)
	if err != nil {
		return err
	}
	defer closeState()

	confirm := board.Confirmer(board.ConfirmFunc(a.prompt))
	if c.Bool("yes") {
		confirm = board.AlwaysConfirm
	}

	id := c.Int64("id")
	deleted, err := b.Delete(ctx, id, confirm)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	fmt.Fprintf(a.out, "✓ Deleted comment %d\n", id)
	return nil
}

func (a *app) prompt(_ context.Context, question string) (bool, error) {
	fmt.Fprintf(a.out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (a *app) liked(c *cli.Context) error {
	ctx := a.commandContext(c)
	store, err := a.openState(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	led, err := ledger.Open(ctx, store)
	if err != nil {
		return err
	}
	ids := led.IDs()
	if len(ids) == 0 {
		fmt.Fprintln(a.out, "You have not liked any comments.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintf(a.out, "♥ %d\n", id)
	}
	return nil
}

func (a *app) theme(c *cli.Context) error {
	ctx := a.commandContext(c)
	store, err := a.openState(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	p := prefs.New(store)

	arg := c.Args().First()
	var t prefs.Theme
	switch arg {
	case "":
		t, err = p.Theme(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Theme: %s\n", t)
		return nil
	case "toggle":
		t, err = p.ToggleTheme(ctx)
	default:
		t, err = prefs.ParseTheme(arg)
		if err == nil {
			err = p.SetTheme(ctx, t)
		}
	}
	if err != nil {
		if errors.Is(err, prefs.ErrInvalidTheme) {
			return fmt.Errorf("%w (or toggle)", err)
		}
		return err
	}
	fmt.Fprintf(a.out, "✓ Theme set to %s\n", t)
	return nil
}
