// Package carousel implements the auto-advancing client logo strip: its scroll
// offset, the pause flag driven by pointer and focus events, and the selection
// shown in the detail overlay.
//
// A Carousel is owned by exactly one view. Mount starts the repeating tick and
// Unmount stops it; every other method may be called from any goroutine.
package carousel

import (
	"sync"
	"time"

	"github.com/codecraftpk/craftsite/internal/logos"
	"github.com/codecraftpk/craftsite/internal/schedule"
)

// Options configures motion and the default geometry used until the client
// reports real bounds.
type Options struct {
	Tick      time.Duration
	Step      int
	ItemWidth int
	Gap       int
	Viewport  int
}

// DefaultOptions returns the nominal 60 Hz, one unit per tick motion.
func DefaultOptions() Options {
	return Options{
		Tick:      16 * time.Millisecond,
		Step:      1,
		ItemWidth: 176,
		Gap:       24,
		Viewport:  1024,
	}
}

// State is a point-in-time copy of the carousel.
type State struct {
	Offset    int
	Max       int
	Paused    bool
	Mounted   bool
	Selection *logos.ImageEntry
}

// Carousel is the logo strip state machine.
type Carousel struct {
	entries []logos.Entry
	clock   schedule.Clock
	opts    Options

	mu        sync.Mutex
	offset    int
	max       int
	paused    bool
	mounted   bool
	selection *logos.ImageEntry
	ticker    schedule.Handle
	onChange  func(State)
}

// New creates an unmounted carousel over entries.
func New(entries []logos.Entry, clock schedule.Clock, opts Options) *Carousel {
	defaults := DefaultOptions()
	if opts.Tick <= 0 {
		opts.Tick = defaults.Tick
	}
	if opts.Step <= 0 {
		opts.Step = defaults.Step
	}
	if opts.ItemWidth <= 0 {
		opts.ItemWidth = defaults.ItemWidth
	}
	if opts.Gap < 0 {
		opts.Gap = defaults.Gap
	}
	if opts.Viewport <= 0 {
		opts.Viewport = defaults.Viewport
	}

	c := &Carousel{
		entries: entries,
		clock:   clock,
		opts:    opts,
	}
	c.max = boundsMax(ContentWidth(len(entries), opts.ItemWidth, opts.Gap), opts.Viewport)
	return c
}

// ContentWidth is the strip width for n items laid out with the given gap.
func ContentWidth(n, itemWidth, gap int) int {
	if n <= 0 {
		return 0
	}
	return n*itemWidth + (n-1)*gap
}

func boundsMax(content, viewport int) int {
	if content-viewport < 0 {
		return 0
	}
	return content - viewport
}

// OnChange registers fn to receive the state after every change. It replaces
// any earlier observer. fn is called without the carousel's lock held.
func (c *Carousel) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Entries returns the entries the carousel was created with.
func (c *Carousel) Entries() []logos.Entry {
	return c.entries
}

// State returns a copy of the current state.
func (c *Carousel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Carousel) stateLocked() State {
	s := State{
		Offset:  c.offset,
		Max:     c.max,
		Paused:  c.paused,
		Mounted: c.mounted,
	}
	if c.selection != nil {
		sel := *c.selection
		s.Selection = &sel
	}
	return s
}

// Mount moves the strip to its right end and starts the tick. Mounting twice
// is a no-op.
func (c *Carousel) Mount() {
	c.update(func() bool {
		if c.mounted {
			return false
		}
		c.mounted = true
		c.offset = c.max
		if !c.paused {
			c.startLocked()
		}
		return true
	})
}

// Unmount stops the tick and clears the selection.
func (c *Carousel) Unmount() {
	c.update(func() bool {
		if !c.mounted {
			return false
		}
		c.mounted = false
		c.stopLocked()
		c.selection = nil
		return true
	})
}

// Tick advances the strip by one step. While paused it does nothing; at the
// left end it jumps straight back to the right end.
func (c *Carousel) Tick() {
	c.update(c.tickLocked)
}

// scheduledTick drops ticks that were already in flight when the carousel was
// unmounted.
func (c *Carousel) scheduledTick() {
	c.update(func() bool {
		return c.mounted && c.tickLocked()
	})
}

func (c *Carousel) tickLocked() bool {
	if c.paused {
		return false
	}
	if c.offset <= 0 {
		if c.max == 0 {
			return false
		}
		c.offset = c.max
		return true
	}
	c.offset -= c.opts.Step
	if c.offset < 0 {
		c.offset = 0
	}
	return true
}

// SetBounds records measured geometry. The offset is clamped into the new
// range.
func (c *Carousel) SetBounds(content, viewport int) {
	c.update(func() bool {
		newMax := boundsMax(content, viewport)
		if newMax == c.max {
			return false
		}
		c.max = newMax
		if c.offset > c.max {
			c.offset = c.max
		}
		return true
	})
}

// PointerEnter pauses motion.
func (c *Carousel) PointerEnter() { c.setPaused(true) }

// PointerLeave resumes motion.
func (c *Carousel) PointerLeave() { c.setPaused(false) }

// FocusIn pauses motion.
func (c *Carousel) FocusIn() { c.setPaused(true) }

// FocusOut resumes motion.
func (c *Carousel) FocusOut() { c.setPaused(false) }

func (c *Carousel) setPaused(paused bool) {
	c.update(func() bool {
		if c.paused == paused {
			return false
		}
		c.paused = paused
		if !c.mounted {
			return true
		}
		c.stopLocked()
		if !paused {
			c.startLocked()
		}
		return true
	})
}

// Select opens the overlay for the entry at index. Placeholders and
// out-of-range indexes are ignored. It reports whether the selection changed.
func (c *Carousel) Select(index int) bool {
	if index < 0 || index >= len(c.entries) {
		return false
	}
	img, ok := c.entries[index].(logos.ImageEntry)
	if !ok {
		return false
	}
	return c.update(func() bool {
		if c.selection != nil && *c.selection == img {
			return false
		}
		c.selection = &img
		return true
	})
}

// Close clears the selection.
func (c *Carousel) Close() { c.clearSelection() }

// BackdropClick clears the selection.
func (c *Carousel) BackdropClick() { c.clearSelection() }

// Key handles a globally captured key press. Only Escape has an effect.
func (c *Carousel) Key(key string) {
	if key == "Escape" {
		c.clearSelection()
	}
}

func (c *Carousel) clearSelection() {
	c.update(func() bool {
		if c.selection == nil {
			return false
		}
		c.selection = nil
		return true
	})
}

func (c *Carousel) startLocked() {
	c.ticker = c.clock.Every(c.opts.Tick, c.scheduledTick)
}

func (c *Carousel) stopLocked() {
	schedule.Stop(c.ticker)
	c.ticker = nil
}

// update applies fn under the lock and notifies the observer when fn reports
// a change.
func (c *Carousel) update(fn func() bool) bool {
	c.mu.Lock()
	changed := fn()
	state := c.stateLocked()
	observer := c.onChange
	c.mu.Unlock()

	if changed && observer != nil {
		observer(state)
	}
	return changed
}
