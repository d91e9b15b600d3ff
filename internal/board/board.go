// Package board wires the list store, the reaction ledger and the optimistic
// reactor to the remote comment collection. It is the client-side entry point
// used by the CLI.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alphabot-ai/discuss/internal/client"
	"github.com/alphabot-ai/discuss/internal/ledger"
	"github.com/alphabot-ai/discuss/internal/liststore"
	"github.com/alphabot-ai/discuss/internal/model"
	"github.com/alphabot-ai/discuss/internal/optimistic"
	"github.com/alphabot-ai/discuss/internal/pkg/log"
)

var ErrBlankText = errors.New("comment text is empty")

// DeletePrompt is shown to the Confirmer before a delete.
const DeletePrompt = "Are you sure you want to delete this comment?\nThis action cannot be undone."

// Collection is the remote comment collection.
type Collection interface {
	optimistic.Transport
	ListComments(ctx context.Context) ([]model.Comment, error)
	CreateComment(ctx context.Context, text, image string) (model.Comment, error)
	UpdateText(ctx context.Context, id int64, text string) (model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// AlwaysConfirm accepts every prompt.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

type Board struct {
	coll    Collection
	list    *liststore.Store
	ledger  *ledger.Ledger
	reactor *optimistic.Reactor
}

func New(coll Collection, list *liststore.Store, led *ledger.Ledger, opts ...optimistic.Option) *Board {
	return &Board{
		coll:    coll,
		list:    list,
		ledger:  led,
		reactor: optimistic.New(list, led, coll, opts...),
	}
}

// Load fetches the collection. A failed fetch leaves an empty, loaded list
// and is only logged.
func (b *Board) Load(ctx context.Context) {
	const op = "board.Load"
	lg := log.From(ctx).With("op", op)

	comments, err := b.coll.ListComments(ctx)
	if err != nil {
		lg.Error("failed to load comments", "err", err.Error())
		b.list.LoadFailed()
		return
	}
	b.list.Load(comments)
	lg.Debug("comments loaded", "count", len(comments))
}

// Post creates a comment and prepends the server's representation.
func (b *Board) Post(ctx context.Context, text, image string) (model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return model.Comment{}, ErrBlankText
	}
	created, err := b.coll.CreateComment(ctx, text, strings.TrimSpace(image))
	if err != nil {
		return model.Comment{}, fmt.Errorf("post comment: %w", err)
	}
	if err := b.list.Insert(created); err != nil {
		return created, fmt.Errorf("post comment %d: %w", created.ID, err)
	}
	return created, nil
}

// Edit replaces the text of a comment with the server's updated record.
func (b *Board) Edit(ctx context.Context, id int64, text string) (model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return model.Comment{}, ErrBlankText
	}
	updated, err := b.coll.UpdateText(ctx, id, text)
	if err != nil {
		return model.Comment{}, fmt.Errorf("edit comment %d: %w", id, err)
	}
	b.list.Replace(id, func(model.Comment) model.Comment { return updated })
	return updated, nil
}

// Delete removes a comment after confirm accepts. It reports whether the
// comment was deleted. A comment already gone on the server is removed locally.
func (b *Board) Delete(ctx context.Context, id int64, confirm Confirmer) (bool, error) {
	ok, err := confirm.Confirm(ctx, DeletePrompt)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := b.coll.DeleteComment(ctx, id); err != nil && !client.IsNotFound(err) {
		return false, fmt.Errorf("delete comment %d: %w", id, err)
	}
	b.list.Remove(id)
	return true, nil
}

// Like toggles the local user's like on a comment.
func (b *Board) Like(ctx context.Context, id int64) (optimistic.Result, error) {
	return b.reactor.Toggle(ctx, id)
}

func (b *Board) Comments() []model.Comment { return b.list.Snapshot() }

func (b *Board) Comment(id int64) (model.Comment, bool) { return b.list.Get(id) }

func (b *Board) Loading() bool { return b.list.Loading() }

// Liked reports whether the local user has a confirmed like on id.
func (b *Board) Liked(id int64) bool { return b.ledger.Has(id) }

func (b *Board) LikedIDs() []int64 { return b.ledger.IDs() }
