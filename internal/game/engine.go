// internal/game/engine.go
//
// Core game engine for a single memory game.
// Responsibilities:
//   - Build shuffled pair boards.
//   - Accept or silently reject tile selections.
//   - Evaluate pairs after the reveal delay, hide mismatches after the mismatch delay.
//   - Track moves, matched pairs, score and elapsed time; apply completion bonuses once.
//   - Emit status messages to observers.
//
// Notes:
//   - The engine is not safe for concurrent use. By default deferred work is
//     queued and run on the caller's goroutine by the next SelectTile or Tick.
//     Schedulers passed with WithScheduler must serialize callbacks with the
//     caller (see internal/session).
//   - Deferred callbacks capture the generation at scheduling time; Reset bumps the
//     generation so stale callbacks become no-ops.
package game

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Engine owns all state of one game.
type Engine struct {
	rules    Rules
	alphabet []string
	rng      *rand.Rand
	clock    Clock
	sched    Scheduler
	poll     *pollScheduler
	deal     Dealer

	board        []Tile
	selection    []int
	phase        Phase
	matchedPairs int
	moves        int
	score        int
	startedAt    time.Time
	elapsed      int
	bonus        *Bonus
	generation   uint64

	last      Status
	observers []func(Status)
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithRand sets the shuffle source.
func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.rng = r } }

// WithClock sets the time source.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithScheduler sets the deferred task runner.
func WithScheduler(s Scheduler) Option { return func(e *Engine) { e.sched = s } }

// WithDealer replaces the board layout strategy.
func WithDealer(d Dealer) Option { return func(e *Engine) { e.deal = d } }

// WithSeed seeds a deterministic shuffle source.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// New constructs an engine in the NotStarted phase with a fresh board.
func New(alphabet []string, rules Rules, opts ...Option) (*Engine, error) {
	if err := rules.Validate(len(alphabet)); err != nil {
		return nil, err
	}
	e := &Engine{
		rules:    rules,
		alphabet: append([]string(nil), alphabet...),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock:    systemClock{},
		deal:     Deal,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sched == nil {
		e.poll = &pollScheduler{clock: e.clock}
		e.sched = e.poll
	}
	e.Reset()
	return e, nil
}

// Subscribe registers fn for every status message emitted from now on.
func (e *Engine) Subscribe(fn func(Status)) {
	e.observers = append(e.observers, fn)
}

// StartNewGame resets and starts the clock.
func (e *Engine) StartNewGame() {
	e.Reset()
	e.phase = InProgress
	e.startedAt = e.clock.Now()
	e.emit(Status{Event: EventStarted, Kind: KindNeutral, Text: "Game started! Find matching pairs."})
}

// Reset returns to NotStarted with a freshly shuffled, fully hidden board.
// Any pending evaluation or mismatch reset is invalidated.
func (e *Engine) Reset() {
	if e.poll != nil {
		e.poll.drop()
	}
	e.generation++
	e.phase = NotStarted
	e.matchedPairs = 0
	e.moves = 0
	e.score = 0
	e.selection = nil
	e.startedAt = time.Time{}
	e.elapsed = 0
	e.bonus = nil
	e.board = newBoard(e.deal(e.alphabet, e.rules.Pairs, e.rng))
	e.emit(Status{Event: EventReady, Kind: KindNeutral, Text: `Click "New Game" to start playing!`})
}

// SelectTile reveals the tile at pos. It reports false, changing nothing, when the
// game is not in progress, pos is out of range, the tile is not hidden, or two
// selections already await evaluation.
func (e *Engine) SelectTile(pos int) bool {
	e.runDue()
	if e.phase != InProgress || pos < 0 || pos >= len(e.board) || len(e.selection) >= 2 {
		return false
	}
	t := &e.board[pos]
	if t.State != Hidden {
		return false
	}
	t.State = Revealed
	e.selection = append(e.selection, pos)

	if len(e.selection) == 2 {
		// A move is an attempt: counted now, not when the evaluation lands.
		e.moves++
		gen := e.generation
		e.sched.After(e.rules.RevealDelay, func() { e.evaluate(gen) })
	}
	return true
}

// evaluate resolves the two buffered tiles.
func (e *Engine) evaluate(gen uint64) {
	if gen != e.generation || e.phase != InProgress || len(e.selection) != 2 {
		return
	}
	a, b := &e.board[e.selection[0]], &e.board[e.selection[1]]
	e.selection = nil

	if a.Symbol == b.Symbol {
		a.State, b.State = Matched, Matched
		e.matchedPairs++
		e.score += e.rules.MatchPoints
		if e.matchedPairs == e.rules.Pairs {
			e.complete()
			return
		}
		remaining := e.rules.Pairs - e.matchedPairs
		e.emit(Status{
			Event:     EventPairMatched,
			Kind:      KindSuccess,
			Text:      fmt.Sprintf("Great! %s remaining.", plural(remaining, "pair")),
			Remaining: remaining,
		})
		return
	}

	a.Mismatch, b.Mismatch = true, true
	pa, pb := a.Position, b.Position
	e.sched.After(e.rules.MismatchDelay, func() { e.hideMismatch(gen, pa, pb) })
	e.emit(Status{Event: EventNoMatch, Kind: KindInfo, Text: "No match. Try again!"})
}

// hideMismatch turns a failed pair face down again.
func (e *Engine) hideMismatch(gen uint64, positions ...int) {
	if gen != e.generation {
		return
	}
	for _, p := range positions {
		t := &e.board[p]
		if t.State == Revealed && t.Mismatch {
			t.State = Hidden
			t.Mismatch = false
		}
	}
}

// complete freezes the clock and applies the one-time bonuses.
func (e *Engine) complete() {
	e.phase = Completed
	e.elapsed = e.secondsSinceStart()

	capSecs := int(e.rules.TimeCap / time.Second)
	e.bonus = &Bonus{
		Time:  max(0, capSecs-e.elapsed) * e.rules.TimeBonusRate,
		Moves: max(0, e.rules.MoveCap-e.moves) * e.rules.MoveBonusRate,
	}
	e.score += e.bonus.Time + e.bonus.Moves

	e.emit(Status{
		Event: EventCompleted,
		Kind:  KindSuccess,
		Text: fmt.Sprintf("Congratulations! Game completed in %s with %d moves! Final score: %d",
			FormatClock(e.elapsed), e.moves, e.score),
	})
}

// Tick runs any due deferred work, then refreshes and returns the elapsed
// seconds. Outside InProgress it returns the stored value: 0 before start,
// the frozen time after completion.
func (e *Engine) Tick() int {
	e.runDue()
	if e.phase == InProgress {
		e.elapsed = e.secondsSinceStart()
	}
	return e.elapsed
}

// runDue drains the default scheduler; a no-op with WithScheduler.
func (e *Engine) runDue() {
	if e.poll != nil {
		e.poll.runDue()
	}
}

func (e *Engine) secondsSinceStart() int {
	if e.startedAt.IsZero() {
		return 0
	}
	d := e.clock.Now().Sub(e.startedAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

func (e *Engine) emit(s Status) {
	e.last = s
	for _, fn := range e.observers {
		fn(s)
	}
}

// Phase reports the lifecycle phase.
func (e *Engine) Phase() Phase { return e.phase }

// Moves reports completed two-tile attempts.
func (e *Engine) Moves() int { return e.moves }

// Score reports the current score.
func (e *Engine) Score() int { return e.score }

// MatchedPairs reports how many pairs were found.
func (e *Engine) MatchedPairs() int { return e.matchedPairs }

// TotalPairs reports the number of pairs on the board.
func (e *Engine) TotalPairs() int { return e.rules.Pairs }

// Elapsed reports the last computed elapsed seconds (see Tick).
func (e *Engine) Elapsed() int { return e.elapsed }

// Pending reports the selection buffer length (0–2).
func (e *Engine) Pending() int { return len(e.selection) }

// Generation reports the reset counter.
func (e *Engine) Generation() uint64 { return e.generation }

// LastStatus reports the most recent status message.
func (e *Engine) LastStatus() Status { return e.last }

// Rules reports the engine's rules.
func (e *Engine) Rules() Rules { return e.rules }

// Bonus reports the completion bonuses, nil until completion.
func (e *Engine) Bonus() *Bonus {
	if e.bonus == nil {
		return nil
	}
	b := *e.bonus
	return &b
}

// Board returns a copy of all tiles, symbols included.
func (e *Engine) Board() []Tile {
	return append([]Tile(nil), e.board...)
}

// FormatClock renders seconds as MM:SS. There is no hour field; minutes wrap at 60.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", (seconds/60)%60, seconds%60)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
