package scroll

import (
	"sync"
	"time"

	"github.com/codecraftpk/craftsite/internal/schedule"
)

// Options configures an Enhancer.
type Options struct {
	// InitDelay defers engine creation so first paint is not disturbed.
	InitDelay     time.Duration
	FrameInterval time.Duration
	Engine        EngineOptions
}

// DefaultOptions starts after 100ms and runs at roughly 60 frames a second.
func DefaultOptions() Options {
	return Options{
		InitDelay:     100 * time.Millisecond,
		FrameInterval: 16 * time.Millisecond,
		Engine:        DefaultEngineOptions(),
	}
}

// Enhancer owns the engine and its frame loop for one page view.
type Enhancer struct {
	clock schedule.Clock
	opts  Options
	sink  func(y int)

	mu      sync.Mutex
	engine  *Engine
	init    schedule.Handle
	frames  schedule.Handle
	mounted bool
	last    int
}

// NewEnhancer creates an unmounted enhancer. sink receives scroll positions.
func NewEnhancer(clock schedule.Clock, opts Options, sink func(y int)) *Enhancer {
	defaults := DefaultOptions()
	if opts.InitDelay < 0 {
		opts.InitDelay = defaults.InitDelay
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaults.FrameInterval
	}
	return &Enhancer{clock: clock, opts: opts, sink: sink}
}

// Mount schedules engine initialisation.
func (e *Enhancer) Mount() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mounted {
		return
	}
	e.mounted = true
	e.init = e.clock.After(e.opts.InitDelay, e.start)
}

func (e *Enhancer) start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mounted || e.engine != nil {
		return
	}
	e.init = nil
	e.engine = NewEngine(e.opts.Engine, e.sink)
	e.engine.Sync(e.last)
	engine := e.engine
	e.frames = e.clock.Every(e.opts.FrameInterval, func() {
		engine.Frame(e.clock.Now())
	})
}

// Unmount cancels a pending start, stops the frame loop and destroys the
// engine. It is safe before initialisation and when called twice.
func (e *Enhancer) Unmount() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mounted = false
	schedule.Stop(e.init)
	e.init = nil
	schedule.Stop(e.frames)
	e.frames = nil
	if e.engine != nil {
		e.engine.Destroy()
		e.engine = nil
	}
}

// Ready reports whether the engine is running.
func (e *Enhancer) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine != nil
}

// ScrollTo animates to y once the engine runs. Before that the position is
// applied directly.
func (e *Enhancer) ScrollTo(y int) {
	e.mu.Lock()
	engine := e.engine
	if engine == nil {
		e.last = y
	}
	e.mu.Unlock()

	if engine != nil {
		engine.ScrollTo(y)
		return
	}
	if e.sink != nil {
		e.sink(y)
	}
}

// Sync records a native scroll position reported by the page.
func (e *Enhancer) Sync(y int) {
	e.mu.Lock()
	e.last = y
	engine := e.engine
	e.mu.Unlock()

	if engine != nil {
		engine.Sync(y)
	}
}
