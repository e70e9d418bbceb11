// Package navigation implements the fixed header: its anchor links, the
// retrying scroll-to-section behaviour and the scrolled and mobile menu state.
package navigation

import (
	"strings"
	"sync"
	"time"

	"github.com/codecraftpk/craftsite/internal/schedule"
)

// Link is one header navigation entry.
type Link struct {
	Name string `json:"name" yaml:"name"`
	Href string `json:"href" yaml:"href"`
}

// Links are the header entries in display order.
var Links = []Link{
	{Name: "Home", Href: "#home"},
	{Name: "About", Href: "#about"},
	{Name: "Services", Href: "#services"},
	{Name: "Portfolio", Href: "#portfolio"},
	{Name: "Team", Href: "#team"},
	{Name: "Career", Href: "#career"},
	{Name: "FAQ", Href: "#faq"},
	{Name: "Clients", Href: "#clients"},
	{Name: "Contact", Href: "#contact"},
}

// CTAHref is the target of the header call to action.
const CTAHref = "#contact"

// Options configures the section lookup retries.
type Options struct {
	RetryInterval time.Duration
	MaxAttempts   int
}

// DefaultOptions polls every 50ms for about a second and a half.
func DefaultOptions() Options {
	return Options{RetryInterval: 50 * time.Millisecond, MaxAttempts: 30}
}

// Kind classifies an href.
type Kind int

const (
	KindIgnored Kind = iota
	KindRoute
	KindAnchor
)

// Classify reports how Navigate treats href.
func Classify(href string) Kind {
	switch {
	case strings.HasPrefix(href, "/"):
		return KindRoute
	case strings.HasPrefix(href, "#") && len(href) > 1:
		return KindAnchor
	default:
		return KindIgnored
	}
}

// Locator reports the top offset of the section with the given id, or false
// when the section is not on the page yet.
type Locator func(id string) (top int, ok bool)

// Hooks receive the effects of navigation. Nil hooks are skipped.
type Hooks struct {
	// ScrollTo is called once when the target section is found.
	ScrollTo func(id string, top int)
	// Redirect is called for page routes.
	Redirect func(href string)
	// Done is called when a navigation finishes, found or not. The header
	// closes its mobile menu here.
	Done func()
}

type pollState struct {
	id       string
	attempts int
	handle   schedule.Handle
}

// Navigator scrolls to sections, waiting for ones that are still loading.
type Navigator struct {
	clock  schedule.Clock
	locate Locator
	hooks  Hooks
	opts   Options

	mu      sync.Mutex
	current *pollState
}

// NewNavigator creates a navigator.
func NewNavigator(clock schedule.Clock, locate Locator, hooks Hooks, opts Options) *Navigator {
	defaults := DefaultOptions()
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaults.RetryInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaults.MaxAttempts
	}
	return &Navigator{clock: clock, locate: locate, hooks: hooks, opts: opts}
}

// Navigate follows href. Routes are handed to the Redirect hook, other
// non-anchor hrefs are ignored. An anchor is tried immediately and then
// retried every RetryInterval up to MaxAttempts times; the first hit scrolls
// exactly once and stops the retries, exhaustion gives up silently. Starting
// a navigation abandons any earlier one that is still retrying.
func (n *Navigator) Navigate(href string) Kind {
	kind := Classify(href)

	n.mu.Lock()
	n.cancelLocked()

	switch kind {
	case KindRoute:
		n.mu.Unlock()
		if n.hooks.Redirect != nil {
			n.hooks.Redirect(href)
		}
		n.done()
		return kind
	case KindIgnored:
		n.mu.Unlock()
		n.done()
		return kind
	}

	id := strings.TrimPrefix(href, "#")
	if top, ok := n.locate(id); ok {
		n.mu.Unlock()
		n.scroll(id, top)
		n.done()
		return kind
	}

	p := &pollState{id: id}
	p.handle = n.clock.Every(n.opts.RetryInterval, func() { n.retry(p) })
	n.current = p
	n.mu.Unlock()
	return kind
}

func (n *Navigator) retry(p *pollState) {
	n.mu.Lock()
	if n.current != p {
		n.mu.Unlock()
		return
	}
	p.attempts++
	top, found := n.locate(p.id)
	finished := found || p.attempts >= n.opts.MaxAttempts
	if finished {
		p.handle.Stop()
		n.current = nil
	}
	n.mu.Unlock()

	if found {
		n.scroll(p.id, top)
	}
	if finished {
		n.done()
	}
}

// Pending reports whether a navigation is still retrying.
func (n *Navigator) Pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current != nil
}

// Unmount abandons any retrying navigation.
func (n *Navigator) Unmount() {
	n.mu.Lock()
	n.cancelLocked()
	n.mu.Unlock()
}

func (n *Navigator) cancelLocked() {
	if n.current != nil {
		n.current.handle.Stop()
		n.current = nil
	}
}

func (n *Navigator) scroll(id string, top int) {
	if n.hooks.ScrollTo != nil {
		n.hooks.ScrollTo(id, top)
	}
}

func (n *Navigator) done() {
	if n.hooks.Done != nil {
		n.hooks.Done()
	}
}
