package navigation

import "sync"

// ScrolledThreshold is the scroll position past which the header switches to
// its compact style.
const ScrolledThreshold = 50

// HeaderState is a copy of the header's state.
type HeaderState struct {
	Scrolled bool `json:"scrolled"`
	MenuOpen bool `json:"menu_open"`
}

// Header tracks the compact style and the mobile menu.
type Header struct {
	mu       sync.Mutex
	state    HeaderState
	onChange func(HeaderState)
}

// NewHeader creates a header at the top of the page with the menu closed.
func NewHeader() *Header {
	return &Header{}
}

// OnChange registers fn to receive the state after every change.
func (h *Header) OnChange(fn func(HeaderState)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// State returns the current state.
func (h *Header) State() HeaderState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Scroll records the page scroll position.
func (h *Header) Scroll(y int) {
	h.update(func(s *HeaderState) { s.Scrolled = y > ScrolledThreshold })
}

// ToggleMenu opens or closes the mobile menu.
func (h *Header) ToggleMenu() {
	h.update(func(s *HeaderState) { s.MenuOpen = !s.MenuOpen })
}

// CloseMenu closes the mobile menu.
func (h *Header) CloseMenu() {
	h.update(func(s *HeaderState) { s.MenuOpen = false })
}

func (h *Header) update(fn func(*HeaderState)) {
	h.mu.Lock()
	before := h.state
	fn(&h.state)
	after := h.state
	observer := h.onChange
	h.mu.Unlock()

	if after != before && observer != nil {
		observer(after)
	}
}
