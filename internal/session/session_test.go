package session

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T, opts Options) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	s := NewStore(opts)
	s.now = clock.Now
	var seq int
	s.newID = func() string {
		seq++
		return "s" + strconv.Itoa(seq)
	}
	return s, clock
}

func TestStore_CreateAndDo(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	owner := auth.Session{Token: "tok"}

	sess, err := s.Create(owner, order.NewForm(false), catalog.Catalog{})
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, 1, s.Len())

	var seen *Session
	require.NoError(t, s.Do(context.Background(), sess.ID, owner, func(got *Session) error {
		seen = got
		got.Form.Cart.AddLine()
		return nil
	}))
	assert.Same(t, sess, seen)
	assert.Equal(t, 2, sess.Form.Cart.Len())

	fnErr := errors.New("boom")
	assert.ErrorIs(t, s.Do(context.Background(), sess.ID, owner, func(*Session) error { return fnErr }), fnErr)
}

func TestStore_Ownership(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	sess, err := s.Create(auth.Session{Token: "alice"}, order.NewForm(false), catalog.Catalog{})
	require.NoError(t, err)

	err = s.Do(context.Background(), sess.ID, auth.Session{Token: "bob"}, func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
	err = s.Do(context.Background(), sess.ID, auth.Anonymous(), func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
	err = s.Do(context.Background(), "missing", auth.Session{Token: "alice"}, func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	assert.False(t, s.Delete(sess.ID, auth.Session{Token: "bob"}))
	assert.True(t, s.Delete(sess.ID, auth.Session{Token: "alice"}))
	assert.False(t, s.Delete(sess.ID, auth.Session{Token: "alice"}))
	assert.Zero(t, s.Len())
}

func TestStore_Limit(t *testing.T) {
	s, _ := newTestStore(t, Options{MaxSessions: 2})

	for range 2 {
		_, err := s.Create(auth.Anonymous(), order.NewForm(true), catalog.Catalog{})
		require.NoError(t, err)
	}
	_, err := s.Create(auth.Anonymous(), order.NewForm(true), catalog.Catalog{})
	assert.ErrorIs(t, err, ErrLimit)
}

func TestStore_ExclusiveRejectsSecondAction(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	sess, err := s.Create(auth.Anonymous(), order.NewForm(false), catalog.Catalog{})
	require.NoError(t, err)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Exclusive(ctx, sess.ID, auth.Anonymous(), func(*Session) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err = s.Exclusive(ctx, sess.ID, auth.Anonymous(), func(*Session) error {
		t.Error("second action must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)

	// The guard is released once the first action finishes.
	require.NoError(t, s.Exclusive(ctx, sess.ID, auth.Anonymous(), func(*Session) error { return nil }))
}

func TestStore_DoWaitsForExclusive(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	sess, err := s.Create(auth.Anonymous(), order.NewForm(false), catalog.Catalog{})
	require.NoError(t, err)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls []string
	exclusiveDone := make(chan error, 1)
	go func() {
		exclusiveDone <- s.Exclusive(ctx, sess.ID, auth.Anonymous(), func(*Session) error {
			close(started)
			<-release
			calls = append(calls, "exclusive")
			return nil
		})
	}()
	<-started

	doDone := make(chan error, 1)
	go func() {
		doDone <- s.Do(ctx, sess.ID, auth.Anonymous(), func(*Session) error {
			calls = append(calls, "do")
			return nil
		})
	}()

	select {
	case <-doDone:
		t.Fatal("Do must wait for the running action")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-exclusiveDone)
	require.NoError(t, <-doDone)
	assert.Equal(t, []string{"exclusive", "do"}, calls)
}

func TestStore_IdleExpiry(t *testing.T) {
	s, clock := newTestStore(t, Options{IdleTTL: 10 * time.Minute})
	owner := auth.Anonymous()

	idle, err := s.Create(owner, order.NewForm(false), catalog.Catalog{})
	require.NoError(t, err)
	clock.now = clock.now.Add(5 * time.Minute)
	active, err := s.Create(owner, order.NewForm(false), catalog.Catalog{})
	require.NoError(t, err)

	clock.now = clock.now.Add(6 * time.Minute)

	// Expired sessions are invisible even before a sweep.
	assert.ErrorIs(t, s.Do(context.Background(), idle.ID, owner, func(*Session) error { return nil }), ErrNotFound)
	require.NoError(t, s.Do(context.Background(), active.ID, owner, func(*Session) error { return nil }))

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	clock.now = clock.now.Add(9 * time.Minute)
	assert.Zero(t, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestStore_CanceledContext(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	sess, err := s.Create(auth.Anonymous(), order.NewForm(false), catalog.Catalog{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Do(ctx, sess.ID, auth.Anonymous(), func(*Session) error {
		t.Error("must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Run(t *testing.T) {
	s, clock := newTestStore(t, Options{IdleTTL: time.Minute})
	_, err := s.Create(auth.Anonymous(), order.NewForm(false), catalog.Catalog{})
	require.NoError(t, err)
	clock.now = clock.now.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
