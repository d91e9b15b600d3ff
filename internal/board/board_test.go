package board

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/discuss/internal/client"
	"github.com/alphabot-ai/discuss/internal/kv"
	"github.com/alphabot-ai/discuss/internal/ledger"
	"github.com/alphabot-ai/discuss/internal/liststore"
	"github.com/alphabot-ai/discuss/internal/model"
	"github.com/alphabot-ai/discuss/internal/optimistic"
)

type fakeCollection struct {
	comments map[int64]model.Comment
	nextID   int64
	listErr  error
	likesErr error
	deleted  []int64
}

func newFakeCollection(seed ...model.Comment) *fakeCollection {
	f := &fakeCollection{comments: make(map[int64]model.Comment), nextID: 100}
	for _, c := range seed {
		f.comments[c.ID] = c
	}
	return f
}

func (f *fakeCollection) ListComments(context.Context) ([]model.Comment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Comment, 0, len(f.comments))
	for _, c := range f.comments {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCollection) CreateComment(_ context.Context, text, image string) (model.Comment, error) {
	f.nextID++
	c := model.Comment{ID: f.nextID, Author: "Admin", Text: text}
	if image != "" {
		c.Image = &image
	}
	f.comments[c.ID] = c
	return c, nil
}

func (f *fakeCollection) UpdateText(_ context.Context, id int64, text string) (model.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return model.Comment{}, &client.StatusError{Op: "update comment", StatusCode: http.StatusNotFound}
	}
	c.Text = text
	f.comments[id] = c
	return c, nil
}

func (f *fakeCollection) UpdateLikes(_ context.Context, id int64, likes int) (model.Comment, error) {
	if f.likesErr != nil {
		return model.Comment{}, f.likesErr
	}
	c, ok := f.comments[id]
	if !ok {
		return model.Comment{}, &client.StatusError{Op: "update likes", StatusCode: http.StatusNotFound}
	}
	c.Likes = likes
	f.comments[id] = c
	return c, nil
}

func (f *fakeCollection) DeleteComment(_ context.Context, id int64) error {
	if _, ok := f.comments[id]; !ok {
		return &client.StatusError{Op: "delete comment", StatusCode: http.StatusNotFound}
	}
	delete(f.comments, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func newBoard(t *testing.T, coll *fakeCollection) *Board {
	t.Helper()
	led, err := ledger.Open(context.Background(), kv.NewMemory())
	require.NoError(t, err)
	return New(coll, liststore.New(), led)
}

func TestLoadFailureLeavesEmptyList(t *testing.T) {
	coll := newFakeCollection()
	coll.listErr = errors.New("connection refused")
	b := newBoard(t, coll)
	require.True(t, b.Loading())

	b.Load(context.Background())
	require.False(t, b.Loading())
	require.Empty(t, b.Comments())
}

func TestPost(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t, newFakeCollection(model.Comment{ID: 1, Text: "first"}))
	b.Load(ctx)

	_, err := b.Post(ctx, "   ", "")
	require.ErrorIs(t, err, ErrBlankText)
	require.Len(t, b.Comments(), 1)

	created, err := b.Post(ctx, "hello", " https://img/x.png ")
	require.NoError(t, err)
	require.True(t, created.HasImage())
	require.Equal(t, created.ID, b.Comments()[0].ID)
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t, newFakeCollection(model.Comment{ID: 1, Text: "old", Likes: 2}))
	b.Load(ctx)

	got, err := b.Edit(ctx, 1, "new")
	require.NoError(t, err)
	require.Equal(t, "new", got.Text)

	c, ok := b.Comment(1)
	require.True(t, ok)
	require.Equal(t, "new", c.Text)
	require.Equal(t, 2, c.Likes)

	_, err = b.Edit(ctx, 42, "x")
	require.True(t, client.IsNotFound(err))
}

func TestDeleteAsksFirst(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection(model.Comment{ID: 1}, model.Comment{ID: 2})
	b := newBoard(t, coll)
	b.Load(ctx)

	var prompt string
	decline := ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return false, nil
	})
	deleted, err := b.Delete(ctx, 1, decline)
	require.NoError(t, err)
	require.False(t, deleted)
	require.Equal(t, DeletePrompt, prompt)
	require.Empty(t, coll.deleted)
	require.Len(t, b.Comments(), 2)

	deleted, err = b.Delete(ctx, 1, AlwaysConfirm)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, []int64{1}, coll.deleted)
	_, ok := b.Comment(1)
	require.False(t, ok)
}

func TestDeleteAlreadyGoneRemovesLocally(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection(model.Comment{ID: 1})
	b := newBoard(t, coll)
	b.Load(ctx)
	delete(coll.comments, 1)

	deleted, err := b.Delete(ctx, 1, AlwaysConfirm)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Zero(t, len(b.Comments()))
}

func TestLike(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection(model.Comment{ID: 1, Likes: 3})
	b := newBoard(t, coll)
	b.Load(ctx)

	res, err := b.Like(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, optimistic.Confirmed, res.State)
	require.True(t, b.Liked(1))
	require.Equal(t, []int64{1}, b.LikedIDs())
	require.Equal(t, 4, coll.comments[1].Likes)

	coll.likesErr = errors.New("500")
	res, err = b.Like(ctx, 1)
	require.ErrorIs(t, err, optimistic.ErrTransport)
	require.Equal(t, optimistic.RolledBack, res.State)
	c, _ := b.Comment(1)
	require.Equal(t, 4, c.Likes)
	require.True(t, b.Liked(1))
}
