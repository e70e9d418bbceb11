package live

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/codecraftpk/craftsite/internal/carousel"
	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/logos"
	"github.com/codecraftpk/craftsite/internal/schedule"
	"github.com/codecraftpk/craftsite/internal/scroll"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeTransport struct {
	in        chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	patches []Patch
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{in: make(chan []byte, 16), closed: make(chan struct{})}
}

func (f *fakeTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-f.in:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) Write(_ context.Context, p Patch) error {
	f.mu.Lock()
	f.patches = append(f.patches, p)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Close(string) error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) send(t *testing.T, ev Event) {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	f.in <- data
}

func (f *fakeTransport) sent() []Patch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Patch(nil), f.patches...)
}

func (f *fakeTransport) has(p Patch) bool {
	for _, got := range f.sent() {
		if got.Type == p.Type && got.Data == p.Data {
			return true
		}
	}
	return false
}

func (f *fakeTransport) countOf(p Patch) int {
	n := 0
	for _, got := range f.sent() {
		if got.Type == p.Type && got.Data == p.Data {
			n++
		}
	}
	return n
}

func (f *fakeTransport) count(typ string) int {
	n := 0
	for _, p := range f.sent() {
		if p.Type == typ {
			n++
		}
	}
	return n
}

func (f *fakeTransport) waitFor(t *testing.T, p Patch) {
	t.Helper()
	require.Eventually(t, func() bool { return f.has(p) }, time.Second, time.Millisecond, "waiting for %+v", p)
}

type stubRelay struct {
	mu      sync.Mutex
	calls   []contact.Draft
	block   bool
	entered chan struct{}
	ctxErr  error
}

func (r *stubRelay) Send(ctx context.Context, d contact.Draft) error {
	r.mu.Lock()
	r.calls = append(r.calls, d)
	r.mu.Unlock()
	if !r.block {
		return nil
	}
	close(r.entered)
	<-ctx.Done()
	r.mu.Lock()
	r.ctxErr = ctx.Err()
	r.mu.Unlock()
	return ctx.Err()
}

func (r *stubRelay) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type harness struct {
	clock     *schedule.Manual
	transport *fakeTransport
	session   *Session
	result    chan error
}

func start(t *testing.T, cfg Config) *harness {
	t.Helper()
	clock := schedule.NewManual(epoch)
	cfg.Clock = clock
	// Zero gap and zero init delay are valid settings, so the production
	// geometry and timing have to be asked for.
	if cfg.Carousel == (carousel.Options{}) {
		cfg.Carousel = carousel.DefaultOptions()
	}
	if cfg.Scroll.InitDelay == 0 && cfg.Scroll.FrameInterval == 0 {
		cfg.Scroll = scroll.DefaultOptions()
	}
	if cfg.Relay == nil {
		cfg.Relay = &stubRelay{}
	}
	h := &harness{
		clock:     clock,
		transport: newFakeTransport(),
		result:    make(chan error, 1),
	}
	h.session = NewSession(cfg, h.transport)
	go func() { h.result <- h.session.Run(context.Background()) }()
	t.Cleanup(func() { h.stop(t) })
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	select {
	case <-h.transport.closed:
		return
	default:
	}
	close(h.transport.in)
	select {
	case err := <-h.result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
}

func imageEntries() []logos.Entry {
	return []logos.Entry{
		logos.ImageEntry{Source: "/assets/logos/logo1.png", Name: "Logo 1"},
		logos.PlaceholderEntry{Name: "Client 2"},
		logos.ImageEntry{Source: "/assets/logos/logo3.png", Name: "Logo 3"},
	}
}

func TestSession_MountEmitsInitialState(t *testing.T) {
	h := start(t, Config{})

	right := carousel.ContentWidth(logos.PlaceholderCount, 176, 24) - 1024
	h.transport.waitFor(t, Patch{Type: PatchCarouselOffset, Data: OffsetData{Offset: right, Max: right}})
	h.transport.waitFor(t, Patch{Type: PatchFormState, Data: FormStateData{}})
	assert.Equal(t, 2, h.clock.Pending(), "carousel tick and deferred scroll start")

	h.clock.Advance(16 * time.Millisecond)
	h.transport.waitFor(t, Patch{Type: PatchCarouselOffset, Data: OffsetData{Offset: right - 1, Max: right}})

	h.stop(t)
	assert.Equal(t, 0, h.clock.Pending(), "unmount stops every timer")
}

func TestSession_PointerPausesCarousel(t *testing.T) {
	h := start(t, Config{})
	require.Eventually(t, func() bool { return h.clock.Pending() == 2 }, time.Second, time.Millisecond)

	h.transport.send(t, Event{Type: EventPointerEnter})
	require.Eventually(t, func() bool { return h.clock.Pending() == 1 }, time.Second, time.Millisecond)

	h.transport.send(t, Event{Type: EventPointerLeave})
	require.Eventually(t, func() bool { return h.clock.Pending() == 2 }, time.Second, time.Millisecond)
}

func TestSession_OverlayFollowsSelection(t *testing.T) {
	h := start(t, Config{Logos: imageEntries()})

	h.transport.send(t, Event{Type: EventSelect, Index: 2})
	h.transport.waitFor(t, Patch{Type: PatchOverlayOpen, Data: OverlayData{Name: "Logo 3", Src: "/assets/logos/logo3.png"}})

	h.transport.send(t, Event{Type: EventKey, Key: "Escape"})
	require.Eventually(t, func() bool { return h.transport.count(PatchOverlayClose) == 1 }, time.Second, time.Millisecond)

	h.transport.send(t, Event{Type: EventSelect, Index: 1})
	h.transport.send(t, Event{Type: EventSelect, Index: 0})
	h.transport.waitFor(t, Patch{Type: PatchOverlayOpen, Data: OverlayData{Name: "Logo 1", Src: "/assets/logos/logo1.png"}})
	assert.Equal(t, 2, h.transport.count(PatchOverlayOpen), "placeholders never open the overlay")

	h.transport.send(t, Event{Type: EventBackdrop})
	require.Eventually(t, func() bool { return h.transport.count(PatchOverlayClose) == 2 }, time.Second, time.Millisecond)
}

func TestSession_BoundsResizeStrip(t *testing.T) {
	h := start(t, Config{})

	h.transport.send(t, Event{Type: EventBounds, Content: 1100, Viewport: 1000})
	h.transport.waitFor(t, Patch{Type: PatchCarouselOffset, Data: OffsetData{Offset: 100, Max: 100}})
}

func fillForm(t *testing.T, tr *fakeTransport) {
	t.Helper()
	for name, value := range map[string]string{
		contact.FieldName:    "Ada",
		contact.FieldEmail:   "ada@example.com",
		contact.FieldSubject: "Hello",
		contact.FieldMessage: "Let's build something.",
	} {
		tr.send(t, Event{Type: EventField, Name: name, Value: value})
	}
}

func TestSession_SubmitSendsAndResets(t *testing.T) {
	relay := &stubRelay{}
	h := start(t, Config{Relay: relay, Contact: contact.Config{FallbackEmail: "hello@example.com"}})

	fillForm(t, h.transport)
	h.transport.waitFor(t, Patch{Type: PatchFormState, Data: FormStateData{CanSubmit: true}})

	h.transport.send(t, Event{Type: EventSubmit})
	h.transport.waitFor(t, Patch{Type: PatchToast, Data: contact.Notification{Severity: contact.SeveritySuccess, Message: contact.MessageSent}})
	require.Eventually(t, func() bool { return h.transport.count(PatchFormReset) == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, 1, relay.callCount())
	assert.True(t, h.transport.has(Patch{Type: PatchFormState, Data: FormStateData{Submitting: true}}))
}

func TestSession_InvalidSubmitShowsToast(t *testing.T) {
	relay := &stubRelay{}
	h := start(t, Config{Relay: relay})

	h.transport.send(t, Event{Type: EventField, Name: contact.FieldEmail, Value: "not-an-email"})
	h.transport.send(t, Event{Type: EventSubmit})
	h.transport.waitFor(t, Patch{Type: PatchToast, Data: contact.Notification{Severity: contact.SeverityError, Message: contact.MessageInvalid}})
	assert.Zero(t, relay.callCount())
	assert.Zero(t, h.transport.count(PatchFormReset))
}

func TestSession_RateLimitedSubmit(t *testing.T) {
	relay := &stubRelay{}
	h := start(t, Config{Relay: relay, Limiter: denyAll{}, RemoteKey: "192.0.2.1"})

	fillForm(t, h.transport)
	h.transport.send(t, Event{Type: EventSubmit})
	h.transport.waitFor(t, Patch{Type: PatchToast, Data: contact.Notification{Severity: contact.SeverityError, Message: MessageRateLimited}})
	assert.Zero(t, relay.callCount())
}

func TestSession_EndCancelsInFlightSubmit(t *testing.T) {
	relay := &stubRelay{block: true, entered: make(chan struct{})}
	h := start(t, Config{Relay: relay})

	fillForm(t, h.transport)
	h.transport.send(t, Event{Type: EventSubmit})
	<-relay.entered

	h.stop(t)
	relay.mu.Lock()
	defer relay.mu.Unlock()
	assert.ErrorIs(t, relay.ctxErr, context.Canceled)
}

func TestSession_NavigateWaitsForSection(t *testing.T) {
	h := start(t, Config{})

	h.transport.send(t, Event{Type: EventNavigate, Href: "#about"})
	h.transport.send(t, Event{Type: EventLayout, Sections: map[string]int{"about": 800}})
	h.transport.send(t, Event{Type: EventMenuToggle})
	h.transport.waitFor(t, Patch{Type: PatchMenu, Data: MenuData{Open: true}})
	assert.Equal(t, 3, h.clock.Pending(), "section lookup is retrying")

	h.clock.Advance(50 * time.Millisecond)
	h.transport.waitFor(t, Patch{Type: PatchScroll, Data: ScrollData{Y: 800}})
	h.transport.waitFor(t, Patch{Type: PatchMenu, Data: MenuData{Open: false}})
	assert.Equal(t, 2, h.clock.Pending())
}

func TestSession_RouteRedirects(t *testing.T) {
	h := start(t, Config{})

	h.transport.send(t, Event{Type: EventNavigate, Href: "/careers"})
	h.transport.waitFor(t, Patch{Type: PatchRedirect, Data: RedirectData{Href: "/careers"}})
}

func TestSession_HeaderScrolled(t *testing.T) {
	h := start(t, Config{})

	h.transport.send(t, Event{Type: EventScroll, Y: 120})
	h.transport.waitFor(t, Patch{Type: PatchHeader, Data: HeaderData{Scrolled: true}})
	h.transport.send(t, Event{Type: EventScroll, Y: 200})
	h.transport.send(t, Event{Type: EventScroll, Y: 0})
	h.transport.waitFor(t, Patch{Type: PatchHeader, Data: HeaderData{Scrolled: false}})
	assert.Equal(t, 2, h.transport.count(PatchHeader))
}

func TestSession_MalformedEventsAreDropped(t *testing.T) {
	h := start(t, Config{})

	h.transport.in <- []byte("not json")
	h.transport.in <- []byte(`{"index": 3}`)
	h.transport.send(t, Event{Type: "bogus"})
	h.transport.send(t, Event{Type: EventField, Name: "phone", Value: "x"})
	h.transport.send(t, Event{Type: EventMenuToggle})
	h.transport.waitFor(t, Patch{Type: PatchMenu, Data: MenuData{Open: true}})
}

func TestSession_ReplaceLogos(t *testing.T) {
	h := start(t, Config{})
	h.transport.send(t, Event{Type: EventBounds, Content: 1100, Viewport: 1000})
	h.transport.waitFor(t, Patch{Type: PatchCarouselOffset, Data: OffsetData{Offset: 100, Max: 100}})

	h.session.ReplaceLogos(imageEntries())
	require.Eventually(t, func() bool { return h.transport.count(PatchLogosUpdated) == 1 }, time.Second, time.Millisecond)
	atRightEnd := Patch{Type: PatchCarouselOffset, Data: OffsetData{Offset: 100, Max: 100}}
	require.Eventually(t, func() bool { return h.transport.countOf(atRightEnd) == 2 }, time.Second, time.Millisecond,
		"the new strip keeps the measured bounds and restarts at the right end")
	assert.Equal(t, 2, h.clock.Pending(), "old tick stopped, new tick running")

	h.transport.send(t, Event{Type: EventSelect, Index: 0})
	h.transport.waitFor(t, Patch{Type: PatchOverlayOpen, Data: OverlayData{Name: "Logo 1", Src: "/assets/logos/logo1.png"}})
}

func TestSession_ReplaceLogosAfterEndIsInert(t *testing.T) {
	h := start(t, Config{})
	h.stop(t)

	h.session.ReplaceLogos(imageEntries())
	assert.Equal(t, 0, h.clock.Pending())
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"carousel.bounds","content":10,"viewport":4}`))
	require.NoError(t, err)
	assert.Equal(t, Event{Type: EventBounds, Content: 10, Viewport: 4}, ev)

	_, err = DecodeEvent([]byte(`{}`))
	assert.Error(t, err)
	_, err = DecodeEvent([]byte(`{`))
	assert.Error(t, err)
}

func TestLogoViews(t *testing.T) {
	assert.Equal(t, []LogoView{
		{Name: "Logo 1", Src: "/assets/logos/logo1.png"},
		{Name: "Client 2"},
		{Name: "Logo 3", Src: "/assets/logos/logo3.png"},
	}, LogoViews(imageEntries()))
}
