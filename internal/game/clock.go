// internal/game/clock.go
//
// Time seams for the engine.
//   - Clock supplies "now"; tests substitute a fake.
//   - Scheduler runs deferred work (pair evaluation, mismatch hide).
//
// Without WithScheduler the engine queues deferred work in a pollScheduler and
// runs whatever is due on the caller's goroutine at the next SelectTile or Tick,
// so a lone Engine never sees a callback from another goroutine.

package game

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Scheduler runs fn once after d without blocking the caller.
// Tasks scheduled with equal due times must run in scheduling order.
type Scheduler interface {
	After(d time.Duration, fn func())
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type pollTask struct {
	due time.Time
	fn  func()
}

// pollScheduler holds deferred work until the owner polls it.
type pollScheduler struct {
	clock Clock
	tasks []pollTask
}

func (p *pollScheduler) After(d time.Duration, fn func()) {
	p.tasks = append(p.tasks, pollTask{due: p.clock.Now().Add(d), fn: fn})
}

// runDue runs every task due by now, earliest first and FIFO among equals.
// Tasks scheduled by a running task run in the same pass once they are due.
func (p *pollScheduler) runDue() {
	for {
		now := p.clock.Now()
		next := -1
		for i, t := range p.tasks {
			if t.due.After(now) {
				continue
			}
			if next < 0 || t.due.Before(p.tasks[next].due) {
				next = i
			}
		}
		if next < 0 {
			return
		}
		fn := p.tasks[next].fn
		p.tasks = append(p.tasks[:next], p.tasks[next+1:]...)
		fn()
	}
}

func (p *pollScheduler) drop() { p.tasks = nil }

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(d time.Duration, fn func())

func (f SchedulerFunc) After(d time.Duration, fn func()) { f(d, fn) }
