// Package review drives a study pass over the items that are due.
//
// A Session loads every item from its Store once, keeps those whose next
// review date has passed, and walks them in due-date order. Each rating is
// scheduled with the SM-2 rules in package srs and written back to the
// store before the cursor moves on.
//
// Sessions are not safe for concurrent use. Callers serialize ratings.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/kotoba/internal/srs"
	"github.com/google/uuid"
)

var (
	// ErrNoCurrentItem is returned by Rate once the session has completed.
	ErrNoCurrentItem = errors.New("review: no current item")
	// ErrStoreWrite wraps store failures surfaced by Rate.
	ErrStoreWrite = errors.New("review: store write failed")
)

// Item is anything subject to spaced repetition.
type Item interface {
	ItemID() uuid.UUID
	Prompt() string
	Answer() string
	Schedule() *srs.State
}

// Store is the durable backing for a deck of items.
type Store[T Item] interface {
	// FetchAll returns every item ordered by next review date, earliest first.
	FetchAll(ctx context.Context) ([]T, error)
	// Update persists the scheduling fields of one item.
	Update(ctx context.Context, item T) error
}

// Phase is the lifecycle state of a Session.
type Phase int

const (
	Loading Phase = iota
	Reviewing
	Completed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Reviewing:
		return "reviewing"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Session is a single pass over the items due when it was loaded.
type Session[T Item] struct {
	store  Store[T]
	opts   options
	queue  []T
	cursor int
	phase  Phase
}

// NewSession loads the due items from store. A store read failure is logged
// and yields an empty, completed session.
func NewSession[T Item](ctx context.Context, store Store[T], opts ...Option) *Session[T] {
	s := &Session[T]{
		store: store,
		opts:  defaultOptions(),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.load(ctx)
	return s
}

func (s *Session[T]) load(ctx context.Context) {
	s.phase = Loading
	s.queue = nil
	s.cursor = 0

	items, err := s.store.FetchAll(ctx)
	if err != nil {
		s.opts.logger.Error("Failed to load review items", "deck", s.opts.deck, "error", err)
		s.opts.recorder.StoreError(ctx, s.opts.deck, "fetch")
		items = nil
	}

	now := s.opts.now()
	for _, item := range items {
		if item.Schedule().IsDue(now) {
			s.queue = append(s.queue, item)
		}
	}

	if len(s.queue) == 0 {
		s.phase = Completed
	} else {
		s.phase = Reviewing
	}
	s.opts.recorder.SessionStarted(ctx, s.opts.deck, len(s.queue))
	s.opts.logger.Debug("Review session loaded", "deck", s.opts.deck, "total", len(items), "due", len(s.queue))
}

// Reset reloads the due items, starting a fresh pass.
func (s *Session[T]) Reset(ctx context.Context) {
	s.load(ctx)
}

// Current returns the item under the cursor. It reports false once the
// session has completed.
func (s *Session[T]) Current() (T, bool) {
	if s.cursor >= len(s.queue) {
		var zero T
		return zero, false
	}
	return s.queue[s.cursor], true
}

// Rate schedules the current item with quality q, persists it and moves to
// the next item. What happens when the store rejects the write depends on
// the session's WritePolicy; either way the returned error wraps
// ErrStoreWrite.
func (s *Session[T]) Rate(ctx context.Context, q srs.Quality) error {
	item, ok := s.Current()
	if !ok {
		return ErrNoCurrentItem
	}

	sched := item.Schedule()
	previous := *sched
	sched.Apply(q, s.opts.now())

	if err := s.store.Update(ctx, item); err != nil {
		s.opts.recorder.StoreError(ctx, s.opts.deck, "update")
		s.opts.recorder.Reviewed(ctx, s.opts.deck, q, false)

		if s.opts.policy == WriteRollback {
			*sched = previous
			s.opts.logger.Error("Failed to save review, keeping item current",
				"deck", s.opts.deck, "id", item.ItemID(), "error", err)
			return fmt.Errorf("%w: %w", ErrStoreWrite, err)
		}

		s.opts.logger.Error("Failed to save review",
			"deck", s.opts.deck, "id", item.ItemID(), "error", err)
		s.advance()
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	s.opts.recorder.Reviewed(ctx, s.opts.deck, q, true)
	s.advance()
	return nil
}

func (s *Session[T]) advance() {
	s.cursor++
	if s.cursor >= len(s.queue) {
		s.phase = Completed
	}
}

// Phase returns the session's lifecycle state.
func (s *Session[T]) Phase() Phase { return s.phase }

// Completed reports whether every due item has been rated.
func (s *Session[T]) Completed() bool { return s.phase == Completed }

// Len is the number of items that were due when the session loaded.
func (s *Session[T]) Len() int { return len(s.queue) }

// Position is the zero-based cursor.
func (s *Session[T]) Position() int { return s.cursor }

// Progress renders the cursor for display, e.g. "2/5", or "0/0" when
// nothing was due.
func (s *Session[T]) Progress() string {
	if len(s.queue) == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", s.cursor+1, len(s.queue))
}

// WritePolicy decides how Rate reacts to a failed store write.
type WritePolicy int

const (
	// WriteOptimistic keeps the new schedule in memory and moves on.
	WriteOptimistic WritePolicy = iota
	// WriteRollback restores the previous schedule and keeps the item current.
	WriteRollback
)

// ParseWritePolicy accepts "optimistic" or "rollback".
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch s {
	case "optimistic", "":
		return WriteOptimistic, nil
	case "rollback":
		return WriteRollback, nil
	}
	return 0, fmt.Errorf("review: unknown write policy %q", s)
}

func (p WritePolicy) String() string {
	if p == WriteRollback {
		return "rollback"
	}
	return "optimistic"
}

// Recorder receives session events for metrics.
type Recorder interface {
	SessionStarted(ctx context.Context, deck string, due int)
	Reviewed(ctx context.Context, deck string, q srs.Quality, saved bool)
	StoreError(ctx context.Context, deck, op string)
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted(context.Context, string, int)         {}
func (nopRecorder) Reviewed(context.Context, string, srs.Quality, bool) {}
func (nopRecorder) StoreError(context.Context, string, string)          {}

type options struct {
	deck     string
	now      func() time.Time
	logger   *slog.Logger
	policy   WritePolicy
	recorder Recorder
}

func defaultOptions() options {
	return options{
		deck:     "default",
		now:      time.Now,
		logger:   slog.Default(),
		policy:   WriteOptimistic,
		recorder: nopRecorder{},
	}
}

// Option configures a Session.
type Option func(*options)

// WithDeck names the deck in logs and metrics.
func WithDeck(name string) Option {
	return func(o *options) { o.deck = name }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithWritePolicy(p WritePolicy) Option {
	return func(o *options) { o.policy = p }
}

func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}
