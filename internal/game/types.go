// internal/game/types.go
//
// Core type definitions for the memory game engine.
// Defines:
//   - TileState / Tile: a single board cell and its visibility.
//   - Phase: coarse game lifecycle (not_started → in_progress → completed).
//   - Status: human-readable event messages for the presentation layer.
//   - Rules: tunable constants (pairs, delays, scoring).

package game

import (
	"errors"
	"fmt"
	"time"
)

// TileState is the visibility state of a single tile.
type TileState string

const (
	Hidden   TileState = "hidden"
	Revealed TileState = "revealed"
	Matched  TileState = "matched"
)

// Tile is one board cell.
// Mismatch is set while a failed pair waits for the mismatch delay; such a tile
// is still Revealed and therefore not selectable.
type Tile struct {
	Position int
	Symbol   string
	State    TileState
	Mismatch bool
}

// Phase is the coarse game lifecycle.
type Phase string

const (
	NotStarted Phase = "not_started"
	InProgress Phase = "in_progress"
	Completed  Phase = "completed"
)

// Kind is the display category of a status message.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindNeutral Kind = "neutral"
)

// Event names the engine transition a status message reports.
type Event string

const (
	EventReady       Event = "ready"
	EventStarted     Event = "game-started"
	EventPairMatched Event = "pair-matched"
	EventNoMatch     Event = "no-match"
	EventCompleted   Event = "game-completed"
)

// Status is one entry of the status message stream.
type Status struct {
	Event     Event  `json:"event"`
	Kind      Kind   `json:"kind"`
	Text      string `json:"text"`
	Remaining int    `json:"remaining,omitempty"` // pairs left (pair-matched only)
}

// Bonus records the one-time completion bonuses.
type Bonus struct {
	Time  int `json:"time"`
	Moves int `json:"moves"`
}

// ErrInvalidRules is wrapped by every Rules validation failure.
var ErrInvalidRules = errors.New("game: invalid rules")

// Rules holds the design constants of a game.
type Rules struct {
	Pairs         int           // number of symbol pairs on the board
	RevealDelay   time.Duration // both faces visible before evaluation
	MismatchDelay time.Duration // mismatched pair stays visible before hiding
	MatchPoints   int           // awarded per matched pair
	TimeCap       time.Duration // completion faster than this earns a time bonus
	TimeBonusRate int           // points per second under TimeCap
	MoveCap       int           // completion in fewer moves earns a move bonus
	MoveBonusRate int           // points per move under MoveCap
}

// DefaultRules returns the classic 4x4 setup.
func DefaultRules() Rules {
	return Rules{
		Pairs:         8,
		RevealDelay:   500 * time.Millisecond,
		MismatchDelay: 600 * time.Millisecond,
		MatchPoints:   10,
		TimeCap:       60 * time.Second,
		TimeBonusRate: 2,
		MoveCap:       16,
		MoveBonusRate: 5,
	}
}

// Validate checks r against an alphabet of the given size.
func (r Rules) Validate(alphabetSize int) error {
	switch {
	case r.Pairs < 1:
		return fmt.Errorf("%w: pairs must be at least 1, got %d", ErrInvalidRules, r.Pairs)
	case alphabetSize < r.Pairs:
		return fmt.Errorf("%w: alphabet has %d symbols, need %d", ErrInvalidRules, alphabetSize, r.Pairs)
	case r.RevealDelay < 0 || r.MismatchDelay < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidRules)
	case r.TimeCap < 0 || r.MoveCap < 0:
		return fmt.Errorf("%w: bonus caps must not be negative", ErrInvalidRules)
	case r.MatchPoints < 0 || r.TimeBonusRate < 0 || r.MoveBonusRate < 0:
		return fmt.Errorf("%w: points must not be negative", ErrInvalidRules)
	}
	return nil
}
