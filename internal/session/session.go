// Package session keeps the order forms opened through the checkout API.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
)

var (
	// ErrNotFound is returned for unknown, expired or foreign sessions.
	ErrNotFound = errors.New("session not found")
	// ErrBusy is returned when a coupon check or submission is already in
	// flight for the session.
	ErrBusy = errors.New("another request for this session is in progress")
	// ErrLimit is returned when the store is full.
	ErrLimit = errors.New("too many open sessions")
)

// Session is one open order form.
type Session struct {
	ID        string
	Owner     auth.Session
	Form      *order.Form
	Catalog   catalog.Catalog
	CreatedAt time.Time

	mu       sync.Mutex
	busy     atomic.Bool
	lastUsed atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

// LastUsed returns the time of the last action on the session.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Options configures a Store.
type Options struct {
	// IdleTTL is how long an untouched session is kept. Zero keeps
	// sessions until they are deleted.
	IdleTTL time.Duration
	// MaxSessions caps the number of open sessions. Zero means no limit.
	MaxSessions int
}

// Store holds sessions in memory. Actions on one session are serialised;
// different sessions never share state.
type Store struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session

	now   func() time.Time
	newID func() string
}

// NewStore creates an empty Store.
func NewStore(opts Options) *Store {
	return &Store{
		opts:     opts,
		sessions: map[string]*Session{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create opens a session owned by owner.
func (s *Store) Create(owner auth.Session, form *order.Form, cat catalog.Catalog) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:        s.newID(),
		Owner:     owner,
		Form:      form,
		Catalog:   cat,
		CreatedAt: now,
	}
	sess.touch(now)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		return nil, ErrLimit
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) lookup(id string, caller auth.Session) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok || sess.Owner.Token != caller.Token {
		return nil, ErrNotFound
	}
	if s.expired(sess, s.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Do runs fn with exclusive access to the session. It waits for actions
// already running on the same session.
func (s *Store) Do(ctx context.Context, id string, caller auth.Session, fn func(*Session) error) error {
	sess, err := s.lookup(id, caller)
	if err != nil {
		return err
	}
	return s.run(ctx, sess, fn)
}

// Exclusive runs a long action, such as a backend call, on the session.
// While it runs, a second Exclusive call fails with ErrBusy instead of
// queueing; Do calls wait as usual.
func (s *Store) Exclusive(ctx context.Context, id string, caller auth.Session, fn func(*Session) error) error {
	sess, err := s.lookup(id, caller)
	if err != nil {
		return err
	}
	if !sess.busy.CompareAndSwap(false, true) {
		zctx.From(ctx).Debug("Session busy", zap.String("session_id", id))
		return ErrBusy
	}
	defer sess.busy.Store(false)
	return s.run(ctx, sess, fn)
}

func (s *Store) run(ctx context.Context, sess *Session, fn func(*Session) error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	defer sess.touch(s.now())
	return fn(sess)
}

// Delete discards a session. It reports false if the session is unknown
// to caller.
func (s *Store) Delete(id string, caller auth.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Owner.Token != caller.Token {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.opts.IdleTTL > 0 && now.Sub(sess.LastUsed()) > s.opts.IdleTTL
}

// Sweep removes idle sessions and returns how many were removed. Sessions
// with an action in flight are kept.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for id, sess := range s.sessions {
		if sess.busy.Load() || !s.expired(sess, now) {
			continue
		}
		delete(s.sessions, id)
		n++
	}
	return n
}

// Run sweeps the store every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				lg.Info("Expired idle sessions", zap.Int("count", n), zap.Int("open", s.Len()))
			}
		}
	}
}
