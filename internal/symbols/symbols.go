// internal/symbols/symbols.go
//
// Provides the tile alphabet for the game engine.
//
// Responsibilities:
//   - Load the alphabet from an environment-provided YAML file or fall back to the
//     embedded default (assets/symbols.yaml).
//   - Normalize entries (trim, drop blanks and duplicates, keep file order).
//   - Supply All and Stats for the engine and the debug endpoint.
//
// File format:
//   symbols:
//     - "🎯"
//     - "🎨"
//
// The path normally comes from SYMBOLS_FILE via the config package.
//
// Initialization is run once (sync.Once).

package symbols

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/robalobadob/memory/apps/go-server/assets"
)

// file mirrors the on-disk YAML layout.
type file struct {
	Symbols []string `yaml:"symbols"`
}

var (
	initOnce   sync.Once
	alphabet   []string
	initialErr error
)

// Init loads the alphabet from path (embedded default when empty) exactly once.
// Later calls return the first result whatever path they pass.
func Init(path string) error {
	initOnce.Do(func() {
		alphabet, initialErr = load(path)
	})
	return initialErr
}

// load reads path, or the embedded default when path is empty.
func load(path string) ([]string, error) {
	var raw []byte
	var err error
	if path != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = assets.DefaultSymbols()
	}
	if err != nil {
		return nil, err
	}
	list, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("symbols: parse %q: %w", displayName(path), err)
	}
	return list, nil
}

// Parse decodes a YAML alphabet document and normalizes its entries.
func Parse(raw []byte) ([]string, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	out := normalize(f.Symbols)
	if len(out) == 0 {
		return nil, errors.New("symbols: alphabet is empty")
	}
	return out, nil
}

// normalize trims entries and drops blanks and repeats, keeping first occurrence order.
func normalize(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func displayName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// All returns a copy of the loaded alphabet (nil before Init).
func All() []string {
	return append([]string(nil), alphabet...)
}

// Stats returns the number of loaded symbols.
func Stats() int {
	return len(alphabet)
}
