// internal/game/view.go
//
// Client-facing snapshot of an engine. Symbols of hidden tiles are withheld so
// clients cannot peek at the board.

package game

// TileView is the client-facing representation of a tile.
// Symbol is only included once the tile is revealed or matched.
type TileView struct {
	Position int       `json:"position"`
	State    TileState `json:"state"`
	Symbol   string    `json:"symbol,omitempty"`
	Mismatch bool      `json:"mismatch,omitempty"`
}

// View is everything the presentation layer renders.
type View struct {
	Phase          Phase      `json:"phase"`
	Tiles          []TileView `json:"tiles"`
	TotalPairs     int        `json:"totalPairs"`
	MatchedPairs   int        `json:"matchedPairs"`
	Moves          int        `json:"moves"`
	Score          int        `json:"score"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
	Clock          string     `json:"clock"`
	Pending        int        `json:"pending"`
	Bonus          *Bonus     `json:"bonus,omitempty"`
	Status         Status     `json:"status"`
	Generation     uint64     `json:"generation"`
}

// View builds the client view. Elapsed time is computed live while in progress
// without touching engine state.
func (e *Engine) View() View {
	tiles := make([]TileView, len(e.board))
	for i, t := range e.board {
		tv := TileView{Position: t.Position, State: t.State, Mismatch: t.Mismatch}
		if t.State != Hidden {
			tv.Symbol = t.Symbol
		}
		tiles[i] = tv
	}

	elapsed := e.elapsed
	if e.phase == InProgress {
		elapsed = e.secondsSinceStart()
	}

	return View{
		Phase:          e.phase,
		Tiles:          tiles,
		TotalPairs:     e.rules.Pairs,
		MatchedPairs:   e.matchedPairs,
		Moves:          e.moves,
		Score:          e.score,
		ElapsedSeconds: elapsed,
		Clock:          FormatClock(elapsed),
		Pending:        len(e.selection),
		Bonus:          e.Bonus(),
		Status:         e.last,
		Generation:     e.generation,
	}
}
