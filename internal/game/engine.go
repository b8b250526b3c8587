// internal/game/engine.go
//
// Core state machine for a single memory-match session.
// Responsibilities:
//   - Deal a freshly shuffled deck on start and on every restart.
//   - Sequence card flips through a two-slot flip buffer.
//   - Resolve pairs: commit matches, hide mismatches after a fixed delay.
//   - Drive the 1 Hz timer and the win/lose transitions.
//
// Notes:
//   - A Session is not safe for concurrent use. All calls, including the
//     scheduler callbacks, must arrive on one goroutine (see schedule.Loop).
//   - Invalid player actions are silent no-ops, never errors.
//   - Every deal bumps a generation counter; deferred work captured for an
//     older generation is discarded when it fires.

package game

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/memory-match/internal/schedule"
)

// tickPeriod is the resolution of the elapsed-time counter.
const tickPeriod = time.Second

// Session owns one player's deck, flip buffer and counters.
type Session struct {
	cfg      Config
	render   Renderer
	report   Reporter
	sched    schedule.Scheduler
	shuffler Shuffler
	log      zerolog.Logger

	deck    []*Card
	flipped []*Card // at most two unresolved face-up cards
	state   State

	gen     int           // deck generation, bumped on every deal
	timer   schedule.Task // 1 Hz tick, nil unless running
	pending schedule.Task // mismatch un-reveal, nil unless scheduled
}

// Option customizes a Session.
type Option func(*Session)

// WithShuffler replaces the default random shuffler.
func WithShuffler(sh Shuffler) Option {
	return func(s *Session) {
		if sh != nil {
			s.shuffler = sh
		}
	}
}

// WithLogger attaches a logger for debug-level game events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession validates cfg and its collaborators, then deals the first deck.
// It fails fast: on error no session exists and nothing was rendered.
func NewSession(cfg Config, r Renderer, rep Reporter, sched schedule.Scheduler, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNoRenderer
	}
	if rep == nil {
		return nil, ErrNoReporter
	}
	if sched == nil {
		return nil, ErrNoScheduler
	}
	cfg.Symbols = append([]Symbol(nil), cfg.Symbols...)
	s := &Session{
		cfg:      cfg,
		render:   r,
		report:   rep,
		sched:    sched,
		shuffler: RandShuffler(),
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.initialize()
	return s, nil
}

// initialize deals a new deck and resets every counter.
func (s *Session) initialize() {
	s.gen++
	s.deck = NewDeck(s.cfg.Symbols, s.shuffler)
	s.flipped = nil
	s.state = State{Total: len(s.deck), Phase: PhaseIdle}

	s.render.RenderDeck(s.Cards())
	s.report.ReportMoves(0)
	s.report.ReportTime(0)
	s.log.Debug().Int("gen", s.gen).Int("cards", len(s.deck)).Msg("deck dealt")
}

// Restart cancels all deferred work and deals a new deck.
func (s *Session) Restart() {
	s.stopTimer()
	s.cancelPending()
	s.initialize()
}

// SelectCard flips the card with the given id.
// It reports whether the selection was accepted; rejected selections change nothing.
func (s *Session) SelectCard(id CardID) bool {
	if s.state.Phase.Finished() || len(s.flipped) >= 2 {
		return false
	}
	if id < 0 || int(id) >= len(s.deck) {
		return false
	}
	c := s.deck[id]
	if c.Revealed || c.Matched {
		return false
	}

	if s.state.Phase == PhaseIdle {
		s.startTimer()
	}

	c.Revealed = true
	s.render.SetCardVisual(c.View(), true)
	s.flipped = append(s.flipped, c)

	if len(s.flipped) == 2 {
		s.state.Moves++
		s.report.ReportMoves(s.state.Moves)
		s.resolve()
	}
	return true
}

// resolve compares the two buffered cards.
func (s *Session) resolve() {
	a, b := s.flipped[0], s.flipped[1]
	if a.Symbol == b.Symbol {
		a.Matched, b.Matched = true, true
		s.state.Matched += 2
		s.flipped = nil
		s.log.Debug().Str("symbol", string(a.Symbol)).Int("matched", s.state.Matched).Msg("pair matched")
		if s.state.Matched == len(s.deck) {
			s.stopTimer()
			s.state.Phase = PhaseWon
			s.report.ReportWin(s.state.Elapsed, s.state.Moves)
			s.log.Debug().Int("moves", s.state.Moves).Int("elapsed", s.state.Elapsed).Msg("game won")
		}
		return
	}

	gen := s.gen
	var task schedule.Task
	task = s.sched.After(s.cfg.MismatchDelay, func() {
		if gen != s.gen || s.pending != task {
			return
		}
		s.pending = nil
		s.hide(a, b)
		s.flipped = nil
	})
	s.pending = task
}

// Tick advances the elapsed-time counter. It is a no-op unless the timer runs.
func (s *Session) Tick() {
	if s.state.Phase != PhaseRunning {
		return
	}
	s.state.Elapsed++
	s.report.ReportTime(s.state.Elapsed)

	if s.cfg.TimeLimit > 0 && s.state.Elapsed >= s.cfg.TimeLimit {
		s.stopTimer()
		s.cancelPending()
		s.hide(s.flipped...)
		s.flipped = nil
		s.state.Phase = PhaseLost
		s.report.ReportLose(s.state.Matched/2, s.cfg.Pairs())
		s.log.Debug().Int("pairs", s.state.Matched/2).Msg("time limit reached")
	}
}

// hide turns the given cards face down.
func (s *Session) hide(cards ...*Card) {
	for _, c := range cards {
		c.Revealed = false
		s.render.SetCardVisual(c.View(), false)
	}
}

func (s *Session) startTimer() {
	s.state.Phase = PhaseRunning
	gen := s.gen
	s.timer = s.sched.Every(tickPeriod, func() {
		if gen != s.gen {
			return
		}
		s.Tick()
	})
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) cancelPending() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// State returns a snapshot of the counters.
func (s *Session) State() State { return s.state }

// Cards returns the board in slot order.
func (s *Session) Cards() []CardView {
	out := make([]CardView, len(s.deck))
	for i, c := range s.deck {
		out[i] = c.View()
	}
	return out
}

// Config returns a copy of the session's configuration.
func (s *Session) Config() Config {
	cfg := s.cfg
	cfg.Symbols = append([]Symbol(nil), s.cfg.Symbols...)
	return cfg
}

// Busy reports whether a mismatched pair is still waiting to be hidden.
func (s *Session) Busy() bool { return s.pending != nil }
