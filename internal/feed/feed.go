// internal/feed/feed.go
//
// Recorder is the server-side Renderer and Reporter for a game session.
// The session cannot draw anything itself; instead every collaborator call is
// appended to an ordered event log that the browser reads with a cursor.
//
// Notes:
//   - Seq starts at 1 and increases by one per event, across restarts.
//   - The log is capped; a client whose cursor fell behind the oldest
//     retained event gets Reset=true and should redraw from the snapshot.
//   - Counters are always serialized, zero included.
//   - Not safe for concurrent use: the owning session's loop is the only caller.

package feed

import "github.com/robalobadob/memory-match/internal/game"

// Kind names an event type.
type Kind string

const (
	KindDeck  Kind = "deck"
	KindCard  Kind = "card"
	KindMoves Kind = "moves"
	KindTime  Kind = "time"
	KindWin   Kind = "win"
	KindLose  Kind = "lose"
)

// Event is one collaborator call.
type Event struct {
	Seq     int64           `json:"seq"`
	Kind    Kind            `json:"kind"`
	Cards   []game.CardView `json:"cards,omitempty"` // deck
	Card    *game.CardView  `json:"card,omitempty"`  // card
	Moves   int             `json:"moves"`           // moves, win
	Seconds int             `json:"seconds"`         // time, win
	Pairs   int             `json:"pairs"`           // lose: pairs found
	Total   int             `json:"total"`           // lose: pairs on board
}

// DefaultCapacity bounds the number of retained events.
const DefaultCapacity = 256

// Recorder implements game.Renderer and game.Reporter.
type Recorder struct {
	cap    int
	seq    int64
	events []Event
}

// New returns a Recorder retaining at most capacity events.
func New(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{cap: capacity}
}

func (r *Recorder) push(e Event) {
	r.seq++
	e.Seq = r.seq
	r.events = append(r.events, e)
	if over := len(r.events) - r.cap; over > 0 {
		r.events = append(r.events[:0], r.events[over:]...)
	}
}

// RenderDeck implements game.Renderer.
func (r *Recorder) RenderDeck(cards []game.CardView) {
	r.push(Event{Kind: KindDeck, Cards: append([]game.CardView(nil), cards...)})
}

// SetCardVisual implements game.Renderer.
func (r *Recorder) SetCardVisual(card game.CardView, revealed bool) {
	card.Revealed = revealed
	r.push(Event{Kind: KindCard, Card: &card})
}

// ReportMoves implements game.Reporter.
func (r *Recorder) ReportMoves(n int) { r.push(Event{Kind: KindMoves, Moves: n}) }

// ReportTime implements game.Reporter.
func (r *Recorder) ReportTime(s int) { r.push(Event{Kind: KindTime, Seconds: s}) }

// ReportWin implements game.Reporter.
func (r *Recorder) ReportWin(seconds, moves int) {
	r.push(Event{Kind: KindWin, Seconds: seconds, Moves: moves})
}

// ReportLose implements game.Reporter.
func (r *Recorder) ReportLose(pairsFound, totalPairs int) {
	r.push(Event{Kind: KindLose, Pairs: pairsFound, Total: totalPairs})
}

// Cursor returns the sequence number of the newest event.
func (r *Recorder) Cursor() int64 { return r.seq }

// Since returns copies of the events with Seq > after, and whether events in
// that range were already dropped.
func (r *Recorder) Since(after int64) (events []Event, reset bool) {
	if len(r.events) == 0 {
		return nil, false
	}
	first := r.events[0].Seq
	if after < first-1 {
		reset = true
	}
	for _, e := range r.events {
		if e.Seq > after {
			events = append(events, e)
		}
	}
	return events, reset
}
