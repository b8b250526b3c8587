// internal/schedule/loop.go
//
// Loop is a single-goroutine event loop. Commands submitted with Do and timer
// callbacks scheduled with After/Every are executed one at a time, in arrival
// order, each to completion. Nothing that runs on the loop needs a lock.

package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Do once the loop has been closed.
var ErrClosed = errors.New("schedule: loop closed")

// Loop serializes work onto one goroutine.
type Loop struct {
	events chan func()
	done   chan struct{}
	once   sync.Once

	mu     sync.Mutex             // guards timers
	timers map[*loopTask]struct{} // outstanding tasks, stopped on Close
}

// NewLoop starts a loop goroutine. Call Close to release it.
// queue bounds how many events may wait before Do blocks.
func NewLoop(queue int) *Loop {
	if queue <= 0 {
		queue = 64
	}
	l := &Loop{
		events: make(chan func(), queue),
		done:   make(chan struct{}),
		timers: make(map[*loopTask]struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case <-l.done:
			return
		case fn := <-l.events:
			fn()
		}
	}
}

// Do runs fn on the loop and waits for it to finish.
//
// If ctx ends or the loop closes before fn was picked up, fn is abandoned and
// never runs. Once fn has started, Do waits for it and reports success.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	var state atomic.Int32 // cmdQueued, cmdStarted or cmdAbandoned
	finished := make(chan struct{})
	wrapped := func() {
		if !state.CompareAndSwap(cmdQueued, cmdStarted) {
			return
		}
		defer close(finished)
		fn()
	}
	if err := l.post(ctx, wrapped); err != nil {
		return err
	}

	var err error
	select {
	case <-finished:
		return nil
	case <-l.done:
		err = ErrClosed
	case <-ctx.Done():
		err = ctx.Err()
	}
	if state.CompareAndSwap(cmdQueued, cmdAbandoned) {
		return err
	}
	<-finished
	return nil
}

const (
	cmdQueued int32 = iota
	cmdStarted
	cmdAbandoned
)

func (l *Loop) post(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.events <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop and every outstanding timer. Pending events are dropped.
func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.done)
		l.mu.Lock()
		for t := range l.timers {
			t.stopTimer()
		}
		l.timers = map[*loopTask]struct{}{}
		l.mu.Unlock()
	})
}

// After implements Scheduler. fn runs on the loop goroutine.
func (l *Loop) After(d time.Duration, fn func()) Task {
	t := &loopTask{loop: l}
	l.track(t)
	t.mu.Lock()
	t.timer = time.AfterFunc(d, func() {
		l.fire(t, fn, true)
	})
	t.mu.Unlock()
	return t
}

// Every implements Scheduler. fn runs on the loop goroutine once per period.
func (l *Loop) Every(d time.Duration, fn func()) Task {
	t := &loopTask{loop: l}
	l.track(t)
	t.mu.Lock()
	t.ticker = time.NewTicker(d)
	t.stopCh = make(chan struct{})
	ticker, stop := t.ticker, t.stopCh
	t.mu.Unlock()
	go func() {
		for {
			select {
			case <-ticker.C:
				l.fire(t, fn, false)
			case <-stop:
				return
			case <-l.done:
				return
			}
		}
	}()
	return t
}

// fire posts fn to the loop. The stopped flag is read again on the loop
// itself, so a Stop issued by an earlier event always wins.
func (l *Loop) fire(t *loopTask, fn func(), once bool) {
	_ = l.post(context.Background(), func() {
		if t.isStopped() {
			return
		}
		if once {
			t.Stop()
		}
		fn()
	})
}

func (l *Loop) track(t *loopTask) {
	l.mu.Lock()
	l.timers[t] = struct{}{}
	l.mu.Unlock()
}

func (l *Loop) untrack(t *loopTask) {
	l.mu.Lock()
	delete(l.timers, t)
	l.mu.Unlock()
}

// loopTask is the Task returned by Loop.
type loopTask struct {
	loop *Loop

	mu      sync.Mutex
	stopped bool
	timer   *time.Timer
	ticker  *time.Ticker
	stopCh  chan struct{}
}

// Stop implements Task.
func (t *loopTask) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()
	t.stopTimer()
	t.loop.untrack(t)
}

func (t *loopTask) stopTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
		close(t.stopCh)
	}
}

func (t *loopTask) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
