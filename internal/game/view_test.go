package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewHidesUnrevealedSymbols(t *testing.T) {
	e, s := newTestEngine(t, adjacentLayout(8))
	e.StartNewGame()
	playPair(e, s, 0, 1)
	e.SelectTile(4)

	v := e.View()
	require.Len(t, v.Tiles, 16)
	assert.Equal(t, "a", v.Tiles[0].Symbol)
	assert.Equal(t, "c", v.Tiles[4].Symbol)
	for _, tv := range v.Tiles[5:] {
		assert.Empty(t, tv.Symbol, "tile %d", tv.Position)
	}
	assert.Equal(t, 1, v.Pending)
	assert.Equal(t, 1, v.Moves)
	assert.Equal(t, 10, v.Score)
}

func TestViewJSONOmitsHiddenSymbol(t *testing.T) {
	e, _ := newTestEngine(t, adjacentLayout(8))
	e.StartNewGame()

	raw, err := json.Marshal(e.View())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	tiles := m["tiles"].([]any)
	first := tiles[0].(map[string]any)
	_, ok := first["symbol"]
	assert.False(t, ok)
	assert.Equal(t, "in_progress", m["phase"])
	assert.NotContains(t, m, "bonus")
}

func TestViewElapsedIsLive(t *testing.T) {
	e, s := newTestEngine(t, adjacentLayout(8))
	e.StartNewGame()
	s.Advance(75 * time.Second)

	v := e.View()
	assert.Equal(t, 75, v.ElapsedSeconds)
	assert.Equal(t, "01:15", v.Clock)
	assert.Equal(t, 0, e.Elapsed(), "view does not mutate")
}

func TestViewShowsMismatchAndBonus(t *testing.T) {
	e, s := newTestEngine(t, adjacentLayout(8))
	e.StartNewGame()
	playPair(e, s, 0, 2)

	v := e.View()
	assert.True(t, v.Tiles[0].Mismatch)
	assert.Equal(t, "a", v.Tiles[0].Symbol)
	assert.Equal(t, EventNoMatch, v.Status.Event)

	s.Advance(600 * time.Millisecond)
	for p := 0; p < 8; p++ {
		playPair(e, s, 2*p, 2*p+1)
	}
	v = e.View()
	assert.Equal(t, Completed, v.Phase)
	require.NotNil(t, v.Bonus)
	assert.Equal(t, 35, v.Bonus.Moves)
}
