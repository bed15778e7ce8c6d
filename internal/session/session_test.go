package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

var layout = []string{"a", "a", "b", "b"}

func fastRules() game.Rules {
	r := game.DefaultRules()
	r.Pairs = 2
	r.RevealDelay = 5 * time.Millisecond
	r.MismatchDelay = 5 * time.Millisecond
	return r
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New("test", []string{"a", "b", "c"}, fastRules(), zerolog.Nop(),
		game.WithDealer(game.FixedLayout(layout)))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// collect drains ch until fn reports done or the deadline passes.
func collect(t *testing.T, ch <-chan Event, done func([]Event) bool) []Event {
	t.Helper()
	var got []Event
	deadline := time.After(2 * time.Second)
	for !done(got) {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out, got %d events", len(got))
		}
	}
	return got
}

func hasStatus(evs []Event, e game.Event) bool {
	for _, ev := range evs {
		if ev.Type == EventStatus && ev.Status.Event == e {
			return true
		}
	}
	return false
}

func TestNewRejectsInvalidRules(t *testing.T) {
	r := fastRules()
	r.Pairs = 5
	_, err := New("bad", []string{"a"}, r, zerolog.Nop())
	assert.ErrorIs(t, err, game.ErrInvalidRules)
}

func TestMatchPublishesEvents(t *testing.T) {
	s := newTestSession(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	v := s.Start()
	assert.Equal(t, game.InProgress, v.Phase)

	ok, _ := s.Select(0)
	require.True(t, ok)
	ok, v = s.Select(1)
	require.True(t, ok)
	assert.Equal(t, 1, v.Moves)

	evs := collect(t, ch, func(evs []Event) bool { return hasStatus(evs, game.EventPairMatched) })
	assert.True(t, hasStatus(evs, game.EventStarted))

	require.Eventually(t, func() bool { return s.View().MatchedPairs == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 10, s.View().Score)
}

func TestRejectedSelectPublishesNothing(t *testing.T) {
	s := newTestSession(t)
	ch, cancel := s.Subscribe()
	defer cancel()
	require.Len(t, ch, 1, "new subscriber holds only the current state")
	<-ch

	ok, v := s.Select(0)
	assert.False(t, ok)
	assert.Equal(t, game.NotStarted, v.Phase)
	assert.Empty(t, ch)
}

func TestMismatchHidesAfterDelay(t *testing.T) {
	s := newTestSession(t)
	s.Start()
	s.Select(0)
	s.Select(2)

	require.Eventually(t, func() bool {
		v := s.View()
		return v.Tiles[0].State == game.Hidden && v.Tiles[2].State == game.Hidden && v.Pending == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, game.EventNoMatch, s.View().Status.Event)
	assert.Equal(t, 1, s.View().Moves)
}

func TestCompletionStopsTicker(t *testing.T) {
	s := newTestSession(t)
	s.Start()
	s.Select(0)
	s.Select(1)
	require.Eventually(t, func() bool { return s.View().MatchedPairs == 1 }, time.Second, 5*time.Millisecond)
	s.Select(2)
	s.Select(3)
	require.Eventually(t, func() bool { return s.View().Phase == game.Completed }, time.Second, 5*time.Millisecond)

	s.mu.Lock()
	running := s.tickDone != nil
	s.mu.Unlock()
	assert.False(t, running)
	assert.Equal(t, game.EventCompleted, s.View().Status.Event)
}

func TestTickerPublishesElapsed(t *testing.T) {
	s := newTestSession(t)
	s.tickEvery = 10 * time.Millisecond
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Start()
	evs := collect(t, ch, func(evs []Event) bool {
		for _, ev := range evs {
			if ev.Type == EventTick {
				return true
			}
		}
		return false
	})
	last := evs[len(evs)-1]
	require.NotNil(t, last.Elapsed)
	assert.Equal(t, "00:00", last.Clock)

	s.Reset()
	s.mu.Lock()
	running := s.tickDone != nil
	s.mu.Unlock()
	assert.False(t, running, "ticker stops outside in_progress")
}

func TestCloseDropsPendingCallbacks(t *testing.T) {
	s := newTestSession(t)
	ch, _ := s.Subscribe()
	s.Start()
	s.Select(0)
	s.Select(1)
	s.Close()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, s.View().MatchedPairs)
	assert.Equal(t, 2, s.View().Pending)

	// Drain: the channel must be closed.
	for range ch {
	}
	ok, _ := s.Select(2)
	assert.False(t, ok)
}

func TestRestartInvalidatesPendingEvaluation(t *testing.T) {
	s := newTestSession(t)
	s.Start()
	s.Select(0)
	s.Select(1)
	v := s.Start()
	assert.Equal(t, 0, v.Moves)

	time.Sleep(30 * time.Millisecond)
	v = s.View()
	assert.Equal(t, 0, v.MatchedPairs)
	assert.Equal(t, 0, v.Score)
	for _, tile := range v.Tiles {
		assert.Equal(t, game.Hidden, tile.State)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	s := newTestSession(t)
	for i := 0; i < 20; i++ {
		s.Reset()
	}
	h := s.History()
	assert.Len(t, h, historySize)
	assert.Equal(t, game.EventReady, h[len(h)-1].Event)
}

func TestSubscribeCancelIsIdempotent(t *testing.T) {
	s := newTestSession(t)
	ch, cancel := s.Subscribe()
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	s.Close()
	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestSubscribeReplaysHistoryThenState(t *testing.T) {
	s := newTestSession(t)
	s.Start()

	ch, cancel := s.Subscribe()
	defer cancel()
	require.Len(t, ch, 3)

	first, second, third := <-ch, <-ch, <-ch
	assert.Equal(t, game.EventReady, first.Status.Event)
	assert.Equal(t, game.EventStarted, second.Status.Event)
	require.Equal(t, EventState, third.Type)
	assert.Equal(t, game.InProgress, third.State.Phase)
}
