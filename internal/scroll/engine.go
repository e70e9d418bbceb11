// Package scroll implements the inertial page scroller and the enhancer that
// starts it shortly after a page mounts and drives it once per frame.
package scroll

import (
	"math"
	"sync"
	"time"
)

// Easing maps linear progress in [0,1] onto eased progress.
type Easing func(t float64) float64

// ExpoOut is the default easing, min(1, 1.001 - 2^(-10t)).
func ExpoOut(t float64) float64 {
	return math.Min(1, 1.001-math.Pow(2, -10*t))
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Duration time.Duration
	Easing   Easing
}

// DefaultEngineOptions animates over 1.2s with ExpoOut.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{Duration: 1200 * time.Millisecond, Easing: ExpoOut}
}

// Engine animates a vertical scroll position towards a target.
type Engine struct {
	opts EngineOptions
	sink func(y int)

	mu        sync.Mutex
	position  float64
	from      float64
	to        float64
	start     time.Time
	started   bool
	animating bool
	destroyed bool
	reported  int
}

// NewEngine creates an engine at position zero. sink receives every new
// rounded position produced by Frame.
func NewEngine(opts EngineOptions, sink func(y int)) *Engine {
	if opts.Duration <= 0 {
		opts.Duration = DefaultEngineOptions().Duration
	}
	if opts.Easing == nil {
		opts.Easing = ExpoOut
	}
	return &Engine{opts: opts, sink: sink}
}

// ScrollTo starts an animation from the current position to y. The clock
// starts on the next frame.
func (e *Engine) ScrollTo(y int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.from = e.position
	e.to = float64(y)
	e.started = false
	e.animating = true
}

// Sync records a position reached outside the engine, such as a native
// scroll. It is ignored while animating.
func (e *Engine) Sync(y int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || e.animating {
		return
	}
	e.position = float64(y)
	e.reported = y
}

// Frame advances the animation to now.
func (e *Engine) Frame(now time.Time) {
	e.mu.Lock()
	if e.destroyed || !e.animating {
		e.mu.Unlock()
		return
	}
	if !e.started {
		e.start = now
		e.started = true
	}

	progress := float64(now.Sub(e.start)) / float64(e.opts.Duration)
	if progress >= 1 {
		e.position = e.to
		e.animating = false
	} else {
		e.position = e.from + (e.to-e.from)*e.opts.Easing(progress)
	}

	y := int(math.Round(e.position))
	emit := y != e.reported
	e.reported = y
	sink := e.sink
	e.mu.Unlock()

	if emit && sink != nil {
		sink(y)
	}
}

// Position returns the rounded current position.
func (e *Engine) Position() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(math.Round(e.position))
}

// Animating reports whether a ScrollTo is still in progress.
func (e *Engine) Animating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.animating
}

// Destroy stops the engine permanently.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
	e.animating = false
}

// Destroyed reports whether Destroy was called.
func (e *Engine) Destroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}
