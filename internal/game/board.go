// internal/game/board.go
//
// Board construction.
//   - Deal samples distinct symbols, duplicates each and shuffles (Fisher–Yates).
//   - FixedLayout pins a known layout for tests and replays.
//
// Every board holds each chosen symbol exactly twice.

package game

import (
	"fmt"
	"math/rand/v2"
)

// Dealer produces the board layout: 2*pairs symbols, each chosen symbol twice.
type Dealer func(alphabet []string, pairs int, rng *rand.Rand) []string

// Deal picks pairs distinct symbols uniformly from alphabet, duplicates them and
// shuffles the result. alphabet must hold at least pairs entries.
func Deal(alphabet []string, pairs int, rng *rand.Rand) []string {
	pool := append([]string(nil), alphabet...)

	// Partial Fisher–Yates: pool[:pairs] becomes a uniform sample.
	for i := 0; i < pairs; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	tokens := make([]string, 0, 2*pairs)
	tokens = append(tokens, pool[:pairs]...)
	tokens = append(tokens, pool[:pairs]...)
	Shuffle(tokens, rng)
	return tokens
}

// Shuffle permutes s in place (Fisher–Yates, last index down to 1).
func Shuffle(s []string, rng *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// FixedLayout returns a Dealer that always lays out the given symbols.
// Useful for scripted games and tests; the layout must be a valid pair board.
func FixedLayout(layout []string) Dealer {
	fixed := append([]string(nil), layout...)
	return func(_ []string, pairs int, _ *rand.Rand) []string {
		if len(fixed) != 2*pairs {
			panic(fmt.Sprintf("game: fixed layout has %d tiles, want %d", len(fixed), 2*pairs))
		}
		return append([]string(nil), fixed...)
	}
}

// newBoard turns a layout into hidden tiles.
func newBoard(layout []string) []Tile {
	board := make([]Tile, len(layout))
	for i, sym := range layout {
		board[i] = Tile{Position: i, Symbol: sym, State: Hidden}
	}
	return board
}
