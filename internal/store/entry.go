// internal/store/entry.go
//
// Entry is one live game: the session engine, the event loop that owns it and
// the feed its collaborators write to. Every access to the session goes
// through Entry.Do, which runs on the loop.

package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robalobadob/memory-match/internal/feed"
	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/schedule"
	"github.com/robalobadob/memory-match/internal/variant"
)

// Entry is a live game session.
type Entry struct {
	ID      string
	Variant variant.Variant
	Daily   string // date key for daily boards, empty otherwise

	loop     *schedule.Loop
	session  *game.Session
	feed     *feed.Recorder
	lastSeen atomic.Int64 // unix nanos
}

// NewEntry starts a loop and deals the first deck on it.
// On error the loop is closed and no entry is returned.
func NewEntry(ctx context.Context, id string, v variant.Variant, cfg game.Config, opts ...game.Option) (*Entry, error) {
	e := &Entry{
		ID:      id,
		Variant: v,
		loop:    schedule.NewLoop(0),
		feed:    feed.New(0),
	}
	type dealt struct {
		s   *game.Session
		err error
	}
	ch := make(chan dealt, 1)
	if err := e.loop.Do(ctx, func() {
		s, err := game.NewSession(cfg, e.feed, e.feed, e.loop, opts...)
		ch <- dealt{s, err}
	}); err != nil {
		e.loop.Close()
		return nil, err
	}
	d := <-ch
	if d.err != nil {
		e.loop.Close()
		return nil, d.err
	}
	e.session = d.s
	e.touch()
	return e, nil
}

// Do runs fn on the entry's loop with exclusive access to the session and feed.
func (e *Entry) Do(ctx context.Context, fn func(s *game.Session, f *feed.Recorder)) error {
	e.touch()
	return e.loop.Do(ctx, func() { fn(e.session, e.feed) })
}

// LastSeen reports when the entry was last accessed.
func (e *Entry) LastSeen() time.Time { return time.Unix(0, e.lastSeen.Load()) }

func (e *Entry) touch() { e.lastSeen.Store(time.Now().UnixNano()) }

// Close stops the loop, cancelling the timer and any pending mismatch.
func (e *Entry) Close() { e.loop.Close() }
