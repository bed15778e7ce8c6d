package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolsCommand(t *testing.T) {
	t.Setenv("GAME_PAIRS", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"symbols", "--env-file", "", "--pairs", "6", "--log-level", "warn"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "6 pairs per board")
}

func TestBadLogLevel(t *testing.T) {
	rootCmd.SetArgs([]string{"symbols", "--env-file", "", "--log-level", "chatty"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}
