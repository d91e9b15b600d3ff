// Package liststore holds the ordered, in-memory collection of comments that
// the client renders. All operations are atomic with respect to each other.
package liststore

import (
	"errors"
	"sync"

	"github.com/alphabot-ai/discuss/internal/model"
)

// ErrDuplicate reports an Insert of an ID that is already present. It signals
// a programming error in the caller.
var ErrDuplicate = errors.New("liststore: duplicate comment id")

type Store struct {
	mu      sync.RWMutex
	items   []model.Comment
	loading bool
}

// New returns an empty store in the loading state.
func New() *Store {
	return &Store{loading: true}
}

// Load replaces the whole collection and ends the loading state. Records with
// an ID seen earlier in records are dropped.
func (s *Store) Load(records []model.Comment) {
	items := make([]model.Comment, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		items = append(items, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.loading = false
}

// LoadFailed ends the loading state with an empty collection.
func (s *Store) LoadFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.loading = false
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Insert prepends record.
func (s *Store) Insert(record model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(record.ID) >= 0 {
		return ErrDuplicate
	}
	items := make([]model.Comment, 0, len(s.items)+1)
	items = append(items, record)
	items = append(items, s.items...)
	s.items = items
	return nil
}

// Replace swaps the record with the given id for update(old). It returns
// false, leaving the store untouched, when id is absent.
func (s *Store) Replace(id int64, update func(model.Comment) model.Comment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	next := update(s.items[i])
	next.ID = id
	s.items[i] = next
	return true
}

// Remove deletes the record with the given id, if present.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	items := make([]model.Comment, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)
	s.items = items
	return true
}

func (s *Store) Get(id int64) (model.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Comment{}, false
	}
	return s.items[i], true
}

// Snapshot returns a copy of the collection in display order.
func (s *Store) Snapshot() []model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Comment, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) indexLocked(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
