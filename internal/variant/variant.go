// Package variant defines the playable flavours of the memory game.
//
// The two built-in variants share one engine and differ only in symbol set,
// mismatch delay, time limit and how the client presents the outcome.
package variant

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/symbols"
)

// Presentation tells the client how to announce the outcome.
type Presentation string

const (
	PresentAlert Presentation = "alert"
	PresentModal Presentation = "modal"
)

// ErrUnknown is returned by Lookup for a name that is not registered.
var ErrUnknown = errors.New("variant: unknown")

// Variant is a named game configuration.
type Variant struct {
	Name          string        `json:"name"`
	SymbolSet     string        `json:"symbolSet"`
	MismatchDelay time.Duration `json:"-"`
	TimeLimit     int           `json:"timeLimit,omitempty"` // seconds, 0 = none
	Outcome       Presentation  `json:"outcome"`
}

// DelayMs reports the mismatch delay in milliseconds, for clients.
func (v Variant) DelayMs() int64 { return v.MismatchDelay.Milliseconds() }

const (
	Classic = "classic"
	Timed   = "timed"
)

var builtins = map[string]Variant{
	Classic: {
		Name:          Classic,
		SymbolSet:     "fruits",
		MismatchDelay: 1000 * time.Millisecond,
		Outcome:       PresentAlert,
	},
	Timed: {
		Name:          Timed,
		SymbolSet:     "animals",
		MismatchDelay: 900 * time.Millisecond,
		TimeLimit:     60,
		Outcome:       PresentModal,
	},
}

// Lookup returns the variant called name. An empty name selects Classic.
func Lookup(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = Classic
	}
	v, ok := builtins[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return v, nil
}

// All returns the built-in variants ordered by name.
func All() []Variant {
	out := make([]Variant, 0, len(builtins))
	for _, v := range builtins {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Config resolves v's symbol set against cat and builds an engine config.
func (v Variant) Config(cat *symbols.Catalog) (game.Config, error) {
	if cat == nil {
		return game.Config{}, errors.New("variant: no symbol catalog")
	}
	set, err := cat.Set(v.SymbolSet)
	if err != nil {
		return game.Config{}, err
	}
	cfg := game.Config{
		Symbols:       set,
		MismatchDelay: v.MismatchDelay,
		TimeLimit:     v.TimeLimit,
	}
	return cfg, cfg.Validate()
}
