package liststore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/discuss/internal/model"
)

func ids(items []model.Comment) []int64 {
	out := make([]int64, len(items))
	for i, c := range items {
		out[i] = c.ID
	}
	return out
}

func TestLoadEndsLoading(t *testing.T) {
	s := New()
	require.True(t, s.Loading())

	s.Load([]model.Comment{{ID: 1}, {ID: 2}, {ID: 1}})
	require.False(t, s.Loading())
	require.Equal(t, []int64{1, 2}, ids(s.Snapshot()))
}

func TestLoadFailedLeavesEmptyList(t *testing.T) {
	s := New()
	s.LoadFailed()
	require.False(t, s.Loading())
	require.Zero(t, s.Len())
}

func TestInsertPrepends(t *testing.T) {
	s := New()
	s.Load([]model.Comment{{ID: 1}})

	require.NoError(t, s.Insert(model.Comment{ID: 2}))
	require.Equal(t, []int64{2, 1}, ids(s.Snapshot()))
	require.ErrorIs(t, s.Insert(model.Comment{ID: 1}), ErrDuplicate)
}

func TestReplace(t *testing.T) {
	s := New()
	s.Load([]model.Comment{{ID: 1, Likes: 3}, {ID: 2}})

	ok := s.Replace(1, func(c model.Comment) model.Comment { return c.WithLikes(c.Likes + 1) })
	require.True(t, ok)
	got, _ := s.Get(1)
	require.Equal(t, 4, got.Likes)

	ok = s.Replace(99, func(c model.Comment) model.Comment { return c.WithLikes(10) })
	require.False(t, ok)
	require.Equal(t, []int64{1, 2}, ids(s.Snapshot()))
}

func TestReplaceKeepsID(t *testing.T) {
	s := New()
	s.Load([]model.Comment{{ID: 1}})

	s.Replace(1, func(c model.Comment) model.Comment { return model.Comment{ID: 5, Text: "x"} })
	got, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, "x", got.Text)
}

func TestRemoveIdempotent(t *testing.T) {
	s := New()
	s.Load([]model.Comment{{ID: 1}, {ID: 2}, {ID: 3}})

	require.True(t, s.Remove(2))
	require.False(t, s.Remove(2))
	require.Equal(t, []int64{1, 3}, ids(s.Snapshot()))
}

func TestSnapshotIsDetached(t *testing.T) {
	s := New()
	s.Load([]model.Comment{{ID: 1, Likes: 1}})

	snap := s.Snapshot()
	snap[0].Likes = 100

	got, _ := s.Get(1)
	require.Equal(t, 1, got.Likes)
}

func TestConcurrentReplace(t *testing.T) {
	s := New()
	s.Load([]model.Comment{{ID: 1}})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Replace(1, func(c model.Comment) model.Comment { return c.WithLikes(c.Likes + 1) })
		}()
	}
	wg.Wait()

	got, _ := s.Get(1)
	require.Equal(t, 100, got.Likes)
}
