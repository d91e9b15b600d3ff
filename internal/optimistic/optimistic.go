// Package optimistic implements the like toggle protocol: the visible count
// changes immediately, the new value is persisted under a fixed timeout, and
// the outcome is reconciled into the list (rollback) or the ledger (commit).
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alphabot-ai/discuss/internal/model"
	"github.com/alphabot-ai/discuss/internal/pkg/log"
)

// DefaultTimeout bounds a single persistence request.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout means the persistence request did not finish before the deadline.
	ErrTimeout = errors.New("reaction request timed out")
	// ErrTransport means the request failed at the network level or the server
	// answered with a non-success status.
	ErrTransport = errors.New("reaction request failed")
)

//go:generate mockgen -destination=mocks/transport.go -package=mocks . Transport

// Transport persists a new like count for a comment.
type Transport interface {
	UpdateLikes(ctx context.Context, id int64, likes int) (model.Comment, error)
}

// List is the subset of the list store the reactor mutates.
type List interface {
	Get(id int64) (model.Comment, bool)
	Replace(id int64, update func(model.Comment) model.Comment) bool
}

// Ledger is the durable "liked by me" set.
type Ledger interface {
	Has(id int64) bool
	Add(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
}

type State int

const (
	Applied State = iota + 1
	Confirmed
	RolledBack
	// Skipped means the comment was not in the list; nothing was changed.
	Skipped
)

func (s State) String() string {
	switch s {
	case Applied:
		return "applied"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result describes one toggle.
type Result struct {
	CommentID int64
	State     State
	WasLiked  bool
	// Likes is the tentative count applied locally and sent to the server.
	Likes   int
	Version uint64
	// Deferred is set when a failed toggle was not rolled back on the spot
	// because a newer toggle on the same comment had been applied since. The
	// undo is applied once every toggle on the comment has settled, unless a
	// newer toggle was confirmed by the server.
	Deferred bool
}

// Notice is raised for every rolled back toggle.
type Notice struct {
	CommentID int64
	Timeout   bool
	Err       error
}

func (n Notice) Message() string {
	return "Failed to update likes. Please check your connection."
}

type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

type tracker struct {
	latest    uint64
	pending   int
	confirmed uint64
	// deferred maps a superseded failed version to its undo delta.
	deferred map[uint64]int
}

type Reactor struct {
	mu        sync.Mutex
	list      List
	ledger    Ledger
	transport Transport
	notifier  Notifier
	timeout   time.Duration
	versions  map[int64]*tracker
}

type Option func(*Reactor)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(r *Reactor) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(r *Reactor) {
		if n != nil {
			r.notifier = n
		}
	}
}

func New(list List, ledger Ledger, transport Transport, opts ...Option) *Reactor {
	r := &Reactor{
		list:      list,
		ledger:    ledger,
		transport: transport,
		notifier:  NotifierFunc(func(context.Context, Notice) {}),
		timeout:   DefaultTimeout,
		versions:  make(map[int64]*tracker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Toggle likes or unlikes comment id depending on the ledger. A comment that
// is not in the list yields State Skipped and a nil error. Failures are fully
// recovered locally; the returned error wraps ErrTimeout or ErrTransport and
// is informational.
func (r *Reactor) Toggle(ctx context.Context, id int64) (Result, error) {
	const op = "optimistic.Toggle"
	lg := log.From(ctx).With("op", op, "comment_id", id)

	res, ok := r.apply(id)
	if !ok {
		lg.Debug("comment not in list, toggle skipped")
		return res, nil
	}
	lg = lg.With("version", res.Version, "was_liked", res.WasLiked, "likes", res.Likes)
	lg.Debug("optimistic count applied")

	if err := r.send(ctx, id, res.Likes); err != nil {
		return r.rollback(ctx, lg, res, err)
	}
	return r.confirm(ctx, lg, res)
}

func (r *Reactor) apply(id int64) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := Result{CommentID: id, State: Skipped}
	res.WasLiked = r.ledger.Has(id)

	cur, ok := r.list.Get(id)
	if !ok {
		return res, false
	}
	next := cur.Likes + 1
	if res.WasLiked {
		next = max(0, cur.Likes-1)
	}
	if !r.list.Replace(id, func(c model.Comment) model.Comment { return c.WithLikes(next) }) {
		return res, false
	}

	t := r.versions[id]
	if t == nil {
		t = &tracker{}
		r.versions[id] = t
	}
	t.latest++
	t.pending++

	res.Likes = next
	res.Version = t.latest
	res.State = Applied
	return res, true
}

// send issues the request under the reactor timeout. The request context is
// cancelled on every return path, and a response arriving after the deadline
// is dropped.
func (r *Reactor) send(ctx context.Context, id int64, likes int) error {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := r.transport.UpdateLikes(reqCtx, id, likes)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %w", ErrTimeout, r.timeout, err)
		}
		return fmt.Errorf("%w: %w", ErrTransport, err)
	case <-reqCtx.Done():
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
		}
		return fmt.Errorf("%w: %w", ErrTransport, reqCtx.Err())
	}
}

func (r *Reactor) confirm(ctx context.Context, lg *slog.Logger, res Result) (Result, error) {
	r.mu.Lock()
	if t := r.versions[res.CommentID]; t != nil && res.Version > t.confirmed {
		t.confirmed = res.Version
	}
	undo := r.settleLocked(res.CommentID)
	r.mu.Unlock()
	if undo != 0 {
		lg.Warn("deferred rollback applied", "undo", undo)
	}
	res.State = Confirmed

	// The server already holds the new count; the ledger write must not be
	// aborted by a caller cancelling right after.
	ctx = context.WithoutCancel(ctx)

	var err error
	if res.WasLiked {
		err = r.ledger.Remove(ctx, res.CommentID)
	} else {
		err = r.ledger.Add(ctx, res.CommentID)
	}
	if err != nil {
		lg.Error("reaction confirmed but ledger commit failed", slog.String("err", err.Error()))
		return res, fmt.Errorf("commit ledger: %w", err)
	}
	lg.Info("reaction confirmed")
	return res, nil
}

func (r *Reactor) rollback(ctx context.Context, lg *slog.Logger, res Result, cause error) (Result, error) {
	timeout := errors.Is(cause, ErrTimeout)
	reason := "transport"
	if timeout {
		reason = "timeout"
	}
	lg = lg.With("reason", reason, "err", cause.Error())

	delta := -1
	if res.WasLiked {
		delta = 1
	}

	r.mu.Lock()
	res.State = RolledBack
	t := r.versions[res.CommentID]
	switch {
	case t != nil && t.latest > res.Version:
		res.Deferred = true
		if res.Version > t.confirmed {
			if t.deferred == nil {
				t.deferred = make(map[uint64]int)
			}
			t.deferred[res.Version] = delta
		}
		lg.Warn("reaction failed, rollback deferred: newer toggle applied")
	default:
		found := r.list.Replace(res.CommentID, func(c model.Comment) model.Comment {
			return c.WithLikes(max(0, c.Likes+delta))
		})
		if found {
			lg.Warn("reaction failed, rolled back")
		} else {
			lg.Warn("reaction failed, comment no longer listed")
		}
	}
	undo := r.settleLocked(res.CommentID)
	r.mu.Unlock()
	if undo != 0 {
		lg.Warn("deferred rollback applied", "undo", undo)
	}

	r.notifier.Notify(ctx, Notice{CommentID: res.CommentID, Timeout: timeout, Err: cause})
	return res, cause
}

// settleLocked marks one toggle on id as finished. When the last pending
// toggle settles, the undo deltas of superseded failures newer than the last
// confirmed version are applied to the list. It returns the applied delta.
func (r *Reactor) settleLocked(id int64) int {
	t := r.versions[id]
	if t == nil {
		return 0
	}
	t.pending--
	if t.pending > 0 {
		return 0
	}
	delete(r.versions, id)

	undo := 0
	for v, d := range t.deferred {
		if v > t.confirmed {
			undo += d
		}
	}
	if undo != 0 {
		r.list.Replace(id, func(c model.Comment) model.Comment {
			return c.WithLikes(max(0, c.Likes+undo))
		})
	}
	return undo
}
