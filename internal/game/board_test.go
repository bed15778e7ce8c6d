package game

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealEachSymbolTwice(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	allowed := map[string]bool{}
	for _, s := range testAlphabet {
		allowed[s] = true
	}

	for pairs := 1; pairs <= len(testAlphabet); pairs++ {
		for round := 0; round < 50; round++ {
			layout := Deal(testAlphabet, pairs, rng)
			require.Len(t, layout, 2*pairs)

			counts := map[string]int{}
			for _, s := range layout {
				require.True(t, allowed[s], "unexpected symbol %q", s)
				counts[s]++
			}
			assert.Len(t, counts, pairs)
			for s, n := range counts {
				assert.Equal(t, 2, n, "symbol %q", s)
			}
		}
	}
}

func TestDealLeavesAlphabetUntouched(t *testing.T) {
	alphabet := append([]string(nil), testAlphabet...)
	Deal(alphabet, 8, rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, testAlphabet, alphabet)
}

func TestDealSamplesSymbolsUniformly(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	alphabet := []string{"w", "x", "y", "z"}
	counts := map[string]int{}
	for i := 0; i < 4000; i++ {
		counts[Deal(alphabet, 1, rng)[0]]++
	}
	for _, s := range alphabet {
		assert.InDelta(t, 1000, counts[s], 150, "symbol %q", s)
	}
}

func TestShuffleUniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	counts := map[string]int{}
	for i := 0; i < 6000; i++ {
		s := []string{"a", "b", "c"}
		Shuffle(s, rng)
		counts[strings.Join(s, "")]++
	}
	require.Len(t, counts, 6)
	for perm, n := range counts {
		assert.InDelta(t, 1000, n, 150, "permutation %s", perm)
	}
}

func TestSeededDealIsDeterministic(t *testing.T) {
	a, err := New(testAlphabet, DefaultRules(), WithSeed(42))
	require.NoError(t, err)
	b, err := New(testAlphabet, DefaultRules(), WithSeed(42))
	require.NoError(t, err)
	assert.Equal(t, a.Board(), b.Board())
}

func TestFixedLayoutWrongSizePanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = New(testAlphabet, DefaultRules(), WithDealer(FixedLayout([]string{"a", "a"})))
	})
}
