package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/session"
)

func newSession(t *testing.T, id string) *session.Session {
	t.Helper()
	s, err := session.New(id, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, game.DefaultRules(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestSaveGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession(t, "one")
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Get(ctx, "one")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get(ctx, "two")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteClosesSession(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession(t, "one")
	require.NoError(t, st.Save(ctx, s))
	s.Start()

	require.NoError(t, st.Delete(ctx, "one"))
	ok, _ := s.Select(0)
	assert.False(t, ok, "closed session ignores commands")

	assert.ErrorIs(t, st.Delete(ctx, "one"), ErrNotFound)
}

func TestSweepEvictsIdle(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	idle := newSession(t, "idle")
	require.NoError(t, st.Save(ctx, idle))

	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	busy := newSession(t, "busy")
	require.NoError(t, st.Save(ctx, busy))

	assert.Equal(t, 1, st.Sweep(ctx, cutoff))
	_, err := st.Get(ctx, "idle")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, "busy")
	assert.NoError(t, err)
}

func TestJanitorStopsWithContext(t *testing.T) {
	st := NewMemoryStore()
	require.NoError(t, st.Save(context.Background(), newSession(t, "x")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Janitor(ctx, st, 5*time.Millisecond, time.Nanosecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := st.Get(context.Background(), "x")
		return err != nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
