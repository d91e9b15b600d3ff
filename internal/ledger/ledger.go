// Package ledger keeps the durable set of comment IDs the local user has liked.
//
// The ledger is only written after the server has acknowledged a reaction, so
// it decides the direction of the next toggle but never reflects a tentative
// change.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alphabot-ai/discuss/internal/kv"
)

// Key is the storage key the ledger is persisted under.
const Key = "liked_comments"

type Ledger struct {
	// writeMu serializes persistence so snapshots reach the store in order.
	writeMu sync.Mutex
	mu      sync.RWMutex
	kv      kv.Store
	ids     map[int64]struct{}
}

// Open loads the ledger from store. A missing key yields an empty ledger.
func Open(ctx context.Context, store kv.Store) (*Ledger, error) {
	l := &Ledger{kv: store, ids: make(map[int64]struct{})}

	raw, err := store.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return l, nil
		}
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	for _, id := range ids {
		l.ids[id] = struct{}{}
	}
	return l, nil
}

func (l *Ledger) Has(id int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ids[id]
	return ok
}

// IDs returns the liked IDs in ascending order.
func (l *Ledger) IDs() []int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortedLocked()
}

// Add marks id as liked and persists the ledger before returning.
func (l *Ledger) Add(ctx context.Context, id int64) error {
	return l.update(ctx, id, true)
}

// Remove clears id and persists the ledger before returning.
func (l *Ledger) Remove(ctx context.Context, id int64) error {
	return l.update(ctx, id, false)
}

// update persists the ledger with id set to liked and only then makes the
// change visible. Readers are not blocked by the store write.
func (l *Ledger) update(ctx context.Context, id int64, liked bool) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.RLock()
	_, ok := l.ids[id]
	if ok == liked {
		l.mu.RUnlock()
		return nil
	}
	next := make([]int64, 0, len(l.ids)+1)
	for cur := range l.ids {
		if cur != id {
			next = append(next, cur)
		}
	}
	l.mu.RUnlock()
	if liked {
		next = append(next, id)
	}
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })

	data, err := json.Marshal(next)
	if err != nil {
		return err
	}
	if err := l.kv.Put(ctx, Key, data); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}

	l.mu.Lock()
	if liked {
		l.ids[id] = struct{}{}
	} else {
		delete(l.ids, id)
	}
	l.mu.Unlock()
	return nil
}

func (l *Ledger) sortedLocked() []int64 {
	ids := make([]int64, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
