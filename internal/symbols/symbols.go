// internal/symbols/symbols.go
//
// Provides symbol set management for the game engine.
//
// Responsibilities:
//   - Load the embedded symbol sets shipped in assets/symbols.
//   - Optionally overlay sets from a directory of <name>.txt files.
//   - Validate each set (non-empty, no duplicates) before handing it out.
//
// Symbol files:
//   - One symbol per line; blank lines and lines starting with '#' are skipped.
//   - A file in the override directory replaces the embedded set of the same name.
//
// Initialization is run once (sync.Once) for the package-level catalog;
// tests build their own Catalog with Load.

package symbols

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/assets"
	"github.com/robalobadob/memory-match/internal/game"
)

// ErrUnknownSet is returned for a set name that was never loaded.
var ErrUnknownSet = errors.New("symbols: unknown set")

// Catalog maps set names to validated symbol lists.
type Catalog struct {
	sets map[string][]game.Symbol
}

var (
	initOnce   sync.Once
	defaultCat *Catalog
	initialErr error
)

// Init loads the package-level catalog exactly once.
// dir may be empty, in which case only embedded sets are available.
func Init(dir string) error {
	initOnce.Do(func() {
		defaultCat, initialErr = Load(dir)
	})
	return initialErr
}

// Default returns the catalog loaded by Init, or nil before Init.
func Default() *Catalog { return defaultCat }

// Load builds a Catalog from the embedded sets plus any overrides in dir.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{sets: make(map[string][]game.Symbol)}

	names, err := assets.SymbolSetNames()
	if err != nil {
		return nil, fmt.Errorf("symbols: list embedded sets: %w", err)
	}
	for _, name := range names {
		lines, err := assets.SymbolSet(name)
		if err != nil {
			return nil, fmt.Errorf("symbols: read %s: %w", name, err)
		}
		if err := c.add(name, lines); err != nil {
			return nil, err
		}
	}

	if dir != "" {
		if err := c.overlay(dir); err != nil {
			return nil, err
		}
	}
	if len(c.sets) == 0 {
		return nil, errors.New("symbols: no symbol sets loaded")
	}
	return c, nil
}

// overlay reads every *.txt file in dir into the catalog.
func (c *Catalog) overlay(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return fmt.Errorf("symbols: glob %s: %w", dir, err)
	}
	for _, path := range matches {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("symbols: open %s: %w", path, err)
		}
		lines, err := assets.ReadLines(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("symbols: read %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".txt")
		if err := c.add(name, lines); err != nil {
			return err
		}
		log.Info().Str("set", name).Str("path", path).Int("symbols", len(lines)).Msg("symbol set loaded")
	}
	return nil
}

// add validates lines and stores them under name.
func (c *Catalog) add(name string, lines []string) error {
	set := make([]game.Symbol, 0, len(lines))
	for _, l := range lines {
		set = append(set, game.Symbol(l))
	}
	if err := validate(set); err != nil {
		return fmt.Errorf("symbols: set %q: %w", name, err)
	}
	c.sets[strings.ToLower(name)] = set
	return nil
}

// validate rejects sets the engine could not deal.
func validate(set []game.Symbol) error {
	if len(set) == 0 {
		return game.ErrNoSymbols
	}
	seen := make(map[game.Symbol]struct{}, len(set))
	for _, s := range set {
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: %q", game.ErrDuplicate, s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Set returns a copy of the named set.
func (c *Catalog) Set(name string) ([]game.Symbol, error) {
	set, ok := c.sets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSet, name)
	}
	return append([]game.Symbol(nil), set...), nil
}

// Names lists the loaded set names in lexical order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.sets))
	for n := range c.sets {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
