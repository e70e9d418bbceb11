package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called. Due
// callbacks run synchronously on the goroutine calling Advance, in deadline
// order, so tests observe every tick.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks map[int]*manualTask
}

type manualTask struct {
	id       int
	next     time.Time
	interval time.Duration // zero for one-shot tasks
	fn       func()
	stopped  bool
	clock    *Manual
}

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:   start,
		tasks: make(map[int]*manualTask),
	}
}

// Now returns the clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every implements Clock.
func (m *Manual) Every(d time.Duration, fn func()) Handle {
	if d <= 0 {
		panic("schedule: non-positive interval")
	}
	return m.add(d, d, fn)
}

// After implements Clock.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	return m.add(d, 0, fn)
}

func (m *Manual) add(d, interval time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{
		id:       m.seq,
		next:     m.now.Add(d),
		interval: interval,
		fn:       fn,
		clock:    m,
	}
	m.tasks[t.id] = t
	return t
}

// Pending returns the number of live tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves the clock forward by d, firing every callback that becomes
// due. Tasks scheduled by callbacks fire too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		t.fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// nextDue pops the earliest task due at or before target and moves the clock
// to its deadline.
func (m *Manual) nextDue(target time.Time) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if !t.next.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].id < due[j].id
		}
		return due[i].next.Before(due[j].next)
	})

	t := due[0]
	m.now = t.next
	if t.interval > 0 {
		t.next = t.next.Add(t.interval)
	} else {
		t.stopped = true
		delete(m.tasks, t.id)
	}
	return t
}

func (t *manualTask) Stop() bool {
	m := t.clock
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	delete(m.tasks, t.id)
	return true
}
