package schedule

import (
	"sort"
	"time"
)

// Manual is a virtual-time Scheduler. Nothing fires until Advance is called,
// and callbacks run synchronously on the caller's goroutine.
type Manual struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

// NewManual returns a Manual clock at t=0.
func NewManual() *Manual { return &Manual{} }

type manualTask struct {
	m       *Manual
	due     time.Duration
	period  time.Duration // zero for one-shot tasks
	seq     int
	fn      func()
	stopped bool
}

// Stop implements Task.
func (t *manualTask) Stop() {
	if t.stopped {
		return
	}
	t.stopped = true
	t.m.remove(t)
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) Task {
	return m.add(d, 0, fn)
}

// Every implements Scheduler.
func (m *Manual) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.add(d, d, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) *manualTask {
	m.seq++
	t := &manualTask{m: m, due: m.now + d, period: period, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

func (m *Manual) remove(t *manualTask) {
	for i, x := range m.tasks {
		if x == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

// Now reports the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration { return m.now }

// Pending reports how many tasks are armed.
func (m *Manual) Pending() int { return len(m.tasks) }

// Advance moves virtual time forward by d, firing every task that falls due
// in order of due time (ties broken by scheduling order). Tasks scheduled by
// a callback fire within the same Advance if they fall due before its end.
func (m *Manual) Advance(d time.Duration) {
	end := m.now + d
	for {
		next := m.next(end)
		if next == nil {
			break
		}
		m.now = next.due
		if next.period > 0 {
			next.due += next.period
		} else {
			next.stopped = true
			m.remove(next)
		}
		next.fn()
	}
	m.now = end
}

func (m *Manual) next(end time.Duration) *manualTask {
	if len(m.tasks) == 0 {
		return nil
	}
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due != m.tasks[j].due {
			return m.tasks[i].due < m.tasks[j].due
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
	if t := m.tasks[0]; t.due <= end {
		return t
	}
	return nil
}
