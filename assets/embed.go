package assets

import (
	"embed"
)

//go:embed symbols.yaml
var FS embed.FS

// DefaultSymbols returns the raw embedded alphabet file.
func DefaultSymbols() ([]byte, error) {
	return FS.ReadFile("symbols.yaml")
}
