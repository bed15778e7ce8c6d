// internal/session/session.go
//
// A Session is one live memory game bound to wall-clock time.
// Responsibilities:
//   - Serialize every engine call and every deferred engine callback behind one mutex,
//     which is the single logical thread the engine expects.
//   - Run the one-second display ticker while the game is in progress.
//   - Fan engine events (state / status / tick) out to subscribers.
//   - Keep a short status history for subscribers that join late.
//
// Notes:
//   - Subscribers get buffered channels; a slow subscriber loses events instead
//     of stalling the game.
//   - Close stops everything; timers that fire afterwards are ignored.

package session

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/rs/zerolog"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

const (
	historySize   = 16
	subscriberBuf = 64 // must exceed historySize + 1 for the initial replay
	tickInterval  = time.Second
)

// EventType labels a pushed Event.
type EventType string

const (
	EventState  EventType = "state"
	EventStatus EventType = "status"
	EventTick   EventType = "tick"
)

// Event is a single push to subscribers. Exactly one payload field is set.
type Event struct {
	Type    EventType    `json:"type"`
	State   *game.View   `json:"state,omitempty"`
	Status  *game.Status `json:"status,omitempty"`
	Elapsed *int         `json:"elapsed,omitempty"`
	Clock   string       `json:"clock,omitempty"`
}

// Session wraps an engine for concurrent callers.
type Session struct {
	ID string

	mu         sync.Mutex
	eng        *game.Engine
	log        zerolog.Logger
	closed     bool
	lastActive time.Time

	tickEvery time.Duration
	tickDone  chan struct{} // non-nil while the ticker runs

	subs    map[int]chan Event
	nextSub int
	history deque.Deque[game.Status]
}

// New builds a session around a fresh engine. Engine options may add a dealer,
// seed or clock; the scheduler is always the session's own.
func New(id string, alphabet []string, rules game.Rules, logger zerolog.Logger, opts ...game.Option) (*Session, error) {
	s := &Session{
		ID:         id,
		log:        logger.With().Str("gameId", id).Logger(),
		lastActive: time.Now(),
		tickEvery:  tickInterval,
		subs:       make(map[int]chan Event),
	}
	opts = append(opts, game.WithScheduler(game.SchedulerFunc(s.after)))
	eng, err := game.New(alphabet, rules, opts...)
	if err != nil {
		return nil, err
	}
	eng.Subscribe(s.onStatus)
	s.eng = eng
	return s, nil
}

// after runs fn under the session lock once d has elapsed.
func (s *Session) after(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		fn()
		s.afterChange()
	})
}

// onStatus runs inside engine calls, so the lock is already held.
func (s *Session) onStatus(st game.Status) {
	if s.history.Len() == historySize {
		s.history.PopFront()
	}
	s.history.PushBack(st)
	s.log.Debug().Str("event", string(st.Event)).Msg(st.Text)
	s.broadcast(Event{Type: EventStatus, Status: &st})
}

// afterChange pushes the new state and starts/stops the ticker. Lock held.
func (s *Session) afterChange() {
	v := s.eng.View()
	s.broadcast(Event{Type: EventState, State: &v})
	s.syncTicker()
}

func (s *Session) syncTicker() {
	running := s.tickDone != nil
	want := s.eng.Phase() == game.InProgress && !s.closed
	switch {
	case want && !running:
		done := make(chan struct{})
		s.tickDone = done
		go s.runTicker(done, s.tickEvery)
	case !want && running:
		close(s.tickDone)
		s.tickDone = nil
	}
}

func (s *Session) runTicker(done chan struct{}, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			s.mu.Lock()
			if s.tickDone != done {
				s.mu.Unlock()
				return
			}
			elapsed := s.eng.Tick()
			s.broadcast(Event{Type: EventTick, Elapsed: &elapsed, Clock: game.FormatClock(elapsed)})
			s.mu.Unlock()
		}
	}
}

func (s *Session) broadcast(ev Event) {
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn().Int("subscriber", id).Str("type", string(ev.Type)).Msg("subscriber lagging, event dropped")
		}
	}
}

// do runs fn with the engine under the lock, then publishes the result.
func (s *Session) do(fn func(e *game.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.lastActive = time.Now()
	fn(s.eng)
	s.afterChange()
}

// Start begins a new game (restarting any game in progress).
func (s *Session) Start() game.View {
	var v game.View
	s.do(func(e *game.Engine) {
		e.StartNewGame()
		v = e.View()
	})
	return v
}

// Reset returns the board to the not-started state.
func (s *Session) Reset() game.View {
	var v game.View
	s.do(func(e *game.Engine) {
		e.Reset()
		v = e.View()
	})
	return v
}

// Select forwards a tile pick. Rejected picks publish nothing.
func (s *Session) Select(pos int) (bool, game.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, s.eng.View()
	}
	s.lastActive = time.Now()
	ok := s.eng.SelectTile(pos)
	if ok {
		s.afterChange()
	}
	return ok, s.eng.View()
}

// View returns the current client view.
func (s *Session) View() game.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.View()
}

// History returns the recent status messages, oldest first.
func (s *Session) History() []game.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]game.Status, 0, s.history.Len())
	for i := 0; i < s.history.Len(); i++ {
		out = append(out, s.history.At(i))
	}
	return out
}

// LastActive reports the time of the last player command.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe returns a channel of events and a cancel func. The channel starts
// with the status history and the current state, so nothing published later can
// be older than what the subscriber already holds. It is closed by cancel or Close.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, subscriberBuf)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	for i := 0; i < s.history.Len(); i++ {
		st := s.history.At(i)
		ch <- Event{Type: EventStatus, Status: &st}
	}
	v := s.eng.View()
	ch <- Event{Type: EventState, State: &v}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Close stops the ticker, drops pending callbacks and closes subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.syncTicker()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.log.Info().Msg("session closed")
}
