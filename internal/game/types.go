// internal/game/types.go
//
// Core type definitions for the memory-match engine.
// Defines:
//   - Symbol, CardID and Card: the face values and cards of a deck.
//   - Phase: lifecycle of a single deck (idle → running → won/lost).
//   - State: counters reported to the player.
//   - Config: per-variant tuning (symbols, mismatch delay, time limit).
//   - Renderer / Reporter: output collaborators driven by the session.

package game

import (
	"errors"
	"fmt"
	"time"
)

// Symbol is the face value shown on a card. Each symbol appears exactly twice per deck.
type Symbol string

// CardID identifies a card within one deck. It is the card's slot on the board.
type CardID int

// Card is a single board card. Cards are owned by the Session; collaborators
// only ever see CardView copies.
type Card struct {
	ID       CardID
	Symbol   Symbol
	Revealed bool // face up, either in flight or matched
	Matched  bool // permanently face up
}

// Phase is the lifecycle state of the current deck.
type Phase string

const (
	PhaseIdle    Phase = "idle"    // dealt, timer not started
	PhaseRunning Phase = "running" // timer ticking
	PhaseWon     Phase = "won"
	PhaseLost    Phase = "lost"
)

// Finished reports whether p is a terminal phase.
func (p Phase) Finished() bool { return p == PhaseWon || p == PhaseLost }

// State holds the player-visible counters for the current deck.
type State struct {
	Moves   int   `json:"moves"`   // completed two-card selections
	Elapsed int   `json:"elapsed"` // seconds since the first selection
	Matched int   `json:"matched"` // matched cards (always even)
	Total   int   `json:"total"`   // deck length
	Phase   Phase `json:"phase"`
}

// Config tunes a session. Variants differ only in these values.
type Config struct {
	Symbols       []Symbol
	MismatchDelay time.Duration // how long a mismatched pair stays visible
	TimeLimit     int           // seconds; zero means no limit
}

var (
	ErrNoSymbols      = errors.New("game: symbol set is empty")
	ErrDuplicate      = errors.New("game: duplicate symbol")
	ErrBadDelay       = errors.New("game: mismatch delay must be positive")
	ErrBadLimit       = errors.New("game: time limit must not be negative")
	ErrNoRenderer     = errors.New("game: renderer is required")
	ErrNoReporter     = errors.New("game: status reporter is required")
	ErrNoScheduler    = errors.New("game: scheduler is required")
	errEmptySymbolVal = errors.New("game: empty symbol")
)

// Validate checks that c can produce a playable deck.
func (c Config) Validate() error {
	if len(c.Symbols) == 0 {
		return ErrNoSymbols
	}
	seen := make(map[Symbol]struct{}, len(c.Symbols))
	for _, s := range c.Symbols {
		if s == "" {
			return errEmptySymbolVal
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicate, s)
		}
		seen[s] = struct{}{}
	}
	if c.MismatchDelay <= 0 {
		return ErrBadDelay
	}
	if c.TimeLimit < 0 {
		return ErrBadLimit
	}
	return nil
}

// Pairs reports how many pairs a deck built from c holds.
func (c Config) Pairs() int { return len(c.Symbols) }

// CardView is the read-only projection of a Card handed to collaborators.
// Symbol is empty while the card is face down.
type CardView struct {
	ID       CardID `json:"id"`
	Symbol   Symbol `json:"symbol,omitempty"`
	Revealed bool   `json:"revealed"`
	Matched  bool   `json:"matched"`
}

// View builds the projection of c, hiding the symbol of face-down cards.
func (c *Card) View() CardView {
	v := CardView{ID: c.ID, Revealed: c.Revealed, Matched: c.Matched}
	if c.Revealed || c.Matched {
		v.Symbol = c.Symbol
	}
	return v
}

// Renderer displays cards. The session calls RenderDeck after every deal and
// SetCardVisual whenever a card's revealed flag changes.
type Renderer interface {
	RenderDeck(cards []CardView)
	SetCardVisual(card CardView, revealed bool)
}

// Reporter displays counters and the final outcome.
type Reporter interface {
	ReportMoves(moves int)
	ReportTime(seconds int)
	ReportWin(seconds, moves int)
	ReportLose(pairsFound, totalPairs int)
}
