// Package live runs one websocket session per page view. A session owns the
// carousel, the contact flow, the navigator, the header and the scroll
// enhancer for that view, feeds them the browser's DOM events and pushes the
// resulting patches back.
package live

import (
	"encoding/json"

	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logos"
)

// Inbound event types.
const (
	EventPointerEnter = "carousel.pointerenter"
	EventPointerLeave = "carousel.pointerleave"
	EventFocusIn      = "carousel.focusin"
	EventFocusOut     = "carousel.focusout"
	EventSelect       = "carousel.select"
	EventClose        = "carousel.close"
	EventBackdrop     = "carousel.backdrop"
	EventBounds       = "carousel.bounds"
	EventKey          = "key"
	EventField        = "field"
	EventSubmit       = "submit"
	EventNavigate     = "navigate"
	EventLayout       = "layout"
	EventScroll       = "scroll"
	EventMenuToggle   = "menu.toggle"
)

// Outbound patch types.
const (
	PatchCarouselOffset = "carousel.offset"
	PatchOverlayOpen    = "overlay.open"
	PatchOverlayClose   = "overlay.close"
	PatchToast          = "toast"
	PatchFormState      = "form.state"
	PatchFormReset      = "form.reset"
	PatchScroll         = "scroll"
	PatchMenu           = "menu"
	PatchHeader         = "header"
	PatchRedirect       = "redirect"
	PatchLogosUpdated   = "logos.updated"
)

// Event is a DOM event reported by the page. Only the fields relevant to Type
// are set.
type Event struct {
	Type     string         `json:"type"`
	Index    int            `json:"index,omitempty"`
	Content  int            `json:"content,omitempty"`
	Viewport int            `json:"viewport,omitempty"`
	Key      string         `json:"key,omitempty"`
	Name     string         `json:"name,omitempty"`
	Value    string         `json:"value,omitempty"`
	Href     string         `json:"href,omitempty"`
	Sections map[string]int `json:"sections,omitempty"`
	Y        int            `json:"y,omitempty"`
}

// DecodeEvent parses one inbound message.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, errors.NewValidationError(errors.ErrCodeMalformedEvent, "malformed event").
			WithContext("cause", err.Error())
	}
	if ev.Type == "" {
		return Event{}, errors.NewValidationError(errors.ErrCodeMalformedEvent, "event has no type")
	}
	return ev, nil
}

// Patch is one update for the page.
type Patch struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type OffsetData struct {
	Offset int `json:"offset"`
	Max    int `json:"max"`
}

type OverlayData struct {
	Name string `json:"name"`
	Src  string `json:"src"`
}

type FormStateData struct {
	Submitting bool `json:"submitting"`
	CanSubmit  bool `json:"can_submit"`
}

type ScrollData struct {
	Y int `json:"y"`
}

type MenuData struct {
	Open bool `json:"open"`
}

type HeaderData struct {
	Scrolled bool `json:"scrolled"`
}

type RedirectData struct {
	Href string `json:"href"`
}

// LogoView is the wire form of a carousel entry.
type LogoView struct {
	Name string `json:"name"`
	Src  string `json:"src,omitempty"`
}

type LogosData struct {
	Entries []LogoView `json:"entries"`
}

// LogoViews converts entries to their wire form.
func LogoViews(entries []logos.Entry) []LogoView {
	out := make([]LogoView, len(entries))
	for i, e := range entries {
		src, _ := logos.ImageOf(e)
		out[i] = LogoView{Name: e.DisplayName(), Src: src}
	}
	return out
}

func toastPatch(n contact.Notification) Patch {
	return Patch{Type: PatchToast, Data: n}
}
