package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codecraftpk/craftsite/internal/carousel"
	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logging"
	"github.com/codecraftpk/craftsite/internal/logos"
	"github.com/codecraftpk/craftsite/internal/navigation"
	"github.com/codecraftpk/craftsite/internal/schedule"
	"github.com/codecraftpk/craftsite/internal/scroll"
)

// MessageRateLimited is shown when a visitor submits too often.
const MessageRateLimited = "Too many messages. Please wait a minute and try again."

// Limiter decides whether key may submit the contact form now.
type Limiter interface {
	Allow(key string) bool
}

// Config is everything a session needs besides its transport.
type Config struct {
	Clock      schedule.Clock
	Logos      []logos.Entry
	Carousel   carousel.Options
	Navigation navigation.Options
	Scroll     scroll.Options
	Contact    contact.Config
	Relay      contact.Relay
	Recorder   contact.Recorder
	Limiter    Limiter
	// RemoteKey identifies the visitor for rate limiting.
	RemoteKey string
	Logger    logging.Logger
	// OutboxSize bounds the patches queued for the writer.
	OutboxSize int
	// PingPeriod overrides the keepalive period of transports that ping.
	PingPeriod time.Duration
}

// Session is one live page view.
type Session struct {
	id        string
	cfg       Config
	transport Transport
	logger    logging.Logger

	flow     *contact.Flow
	header   *navigation.Header
	nav      *navigation.Navigator
	scroller *scroll.Enhancer

	out      chan Patch
	done     chan struct{}
	doneOnce sync.Once

	// life serialises mount, unmount and carousel replacement.
	life    sync.Mutex
	mounted bool

	mu         sync.Mutex
	carousel   *carousel.Carousel
	bounds     [2]int
	sections   map[string]int
	lastOffset OffsetData
	lastSel    *logos.ImageEntry
	lastHeader navigation.HeaderState
	lastForm   FormStateData
	formSent   bool

	submits sync.WaitGroup
}

// NewSession wires the state machines of one page view to t. Nothing runs
// until Run.
func NewSession(cfg Config, t Transport) *Session {
	if cfg.Clock == nil {
		cfg.Clock = schedule.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = 64
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = pingPeriod
	}
	if len(cfg.Logos) == 0 {
		cfg.Logos = logos.Placeholders()
	}

	id := newSessionID()
	s := &Session{
		id:        id,
		cfg:       cfg,
		transport: t,
		logger:    cfg.Logger.WithComponent("live").With("session", id),
		out:       make(chan Patch, cfg.OutboxSize),
		done:      make(chan struct{}),
		sections:  make(map[string]int),
	}

	s.carousel = s.newCarousel(cfg.Logos)

	opts := []contact.Option{contact.WithLogger(s.logger)}
	if cfg.Recorder != nil {
		opts = append(opts, contact.WithRecorder(cfg.Recorder))
	}
	s.flow = contact.NewFlow(cfg.Contact, cfg.Relay, contact.NotifierFunc(func(_ context.Context, n contact.Notification) {
		s.emit(toastPatch(n))
	}), opts...)
	s.flow.OnChange(s.onFormChange)

	s.header = navigation.NewHeader()
	s.header.OnChange(s.onHeaderChange)

	s.scroller = scroll.NewEnhancer(cfg.Clock, cfg.Scroll, func(y int) {
		s.emit(Patch{Type: PatchScroll, Data: ScrollData{Y: y}})
	})

	s.nav = navigation.NewNavigator(cfg.Clock, s.locate, navigation.Hooks{
		ScrollTo: func(_ string, top int) { s.scroller.ScrollTo(top) },
		Redirect: func(href string) { s.emit(Patch{Type: PatchRedirect, Data: RedirectData{Href: href}}) },
		Done:     s.header.CloseMenu,
	}, cfg.Navigation)

	return s
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ID returns the session id used in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) newCarousel(entries []logos.Entry) *carousel.Carousel {
	c := carousel.New(entries, s.cfg.Clock, s.cfg.Carousel)
	c.OnChange(func(st carousel.State) { s.onCarouselChange(c, st) })
	return c
}

func (s *Session) currentCarousel() *carousel.Carousel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carousel
}

// Run mounts the view, serves events until the transport fails or ctx ends,
// then unmounts everything. It always closes the transport.
func (s *Session) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return s.writeLoop(gctx) })
	if p, ok := s.transport.(Pinger); ok {
		grp.Go(func() error { return s.pingLoop(gctx, p) })
	}

	s.mount()
	s.logger.Debug(ctx, "Live session mounted")

	grp.Go(func() error { return s.readLoop(gctx) })
	err := grp.Wait()

	s.unmount()
	cancel()
	s.submits.Wait()

	if cerr := s.transport.Close("session ended"); cerr != nil && err == nil {
		s.logger.Debug(ctx, "Closing transport failed", "error", cerr.Error())
	}
	s.logger.Debug(ctx, "Live session unmounted")

	if err == nil || IsNormalClosure(err) || parent.Err() != nil {
		return nil
	}
	return err
}

func (s *Session) mount() {
	s.life.Lock()
	s.mounted = true
	s.currentCarousel().Mount()
	s.scroller.Mount()
	s.life.Unlock()
	s.onFormChange(s.flow.State())
}

// unmount stops every timer the view owns. Patches emitted from here on are
// dropped.
func (s *Session) unmount() {
	s.doneOnce.Do(func() { close(s.done) })

	s.life.Lock()
	defer s.life.Unlock()
	s.mounted = false
	s.currentCarousel().Unmount()
	s.nav.Unmount()
	s.scroller.Unmount()
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		data, err := s.transport.Read(ctx)
		if err != nil {
			return err
		}
		ev, err := DecodeEvent(data)
		if err != nil {
			s.logger.Warn(ctx, err, "Dropping live event")
			continue
		}
		s.Handle(ctx, ev)
	}
}

func (s *Session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case p := <-s.out:
			if err := s.transport.Write(ctx, p); err != nil {
				return err
			}
		}
	}
}

func (s *Session) pingLoop(ctx context.Context, p Pinger) error {
	h := s.cfg.Clock.Every(s.cfg.PingPeriod, func() {
		if err := p.Ping(ctx); err != nil && ctx.Err() == nil {
			s.logger.Debug(ctx, "Live ping failed", "error", err.Error())
		}
	})
	defer h.Stop()
	<-ctx.Done()
	return nil
}

// emit queues p for the writer. It blocks while the outbox is full and
// returns immediately once the session has ended.
func (s *Session) emit(p Patch) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.out <- p:
	case <-s.done:
	}
}

// Handle applies one inbound event.
func (s *Session) Handle(ctx context.Context, ev Event) {
	c := s.currentCarousel()
	switch ev.Type {
	case EventPointerEnter:
		c.PointerEnter()
	case EventPointerLeave:
		c.PointerLeave()
	case EventFocusIn:
		c.FocusIn()
	case EventFocusOut:
		c.FocusOut()
	case EventSelect:
		c.Select(ev.Index)
	case EventClose:
		c.Close()
	case EventBackdrop:
		c.BackdropClick()
	case EventBounds:
		s.mu.Lock()
		s.bounds = [2]int{ev.Content, ev.Viewport}
		s.mu.Unlock()
		c.SetBounds(ev.Content, ev.Viewport)
	case EventKey:
		c.Key(ev.Key)
	case EventField:
		if err := s.flow.SetField(ev.Name, ev.Value); err != nil {
			s.logger.Warn(ctx, err, "Ignoring form field")
		}
	case EventSubmit:
		s.submit(ctx)
	case EventNavigate:
		s.nav.Navigate(ev.Href)
	case EventLayout:
		s.mu.Lock()
		for id, top := range ev.Sections {
			s.sections[id] = top
		}
		s.mu.Unlock()
	case EventScroll:
		s.header.Scroll(ev.Y)
		s.scroller.Sync(ev.Y)
	case EventMenuToggle:
		s.header.ToggleMenu()
	default:
		s.logger.Warn(ctx, errors.NewValidationError(errors.ErrCodeMalformedEvent, "unknown event type"),
			"Dropping live event", "type", logging.SanitizeForLog(ev.Type))
	}
}

// submit runs the contact flow off the read loop. ctx is the session's, so
// the relay call is cancelled when the session ends.
func (s *Session) submit(ctx context.Context) {
	if s.cfg.Limiter != nil && !s.cfg.Limiter.Allow(s.cfg.RemoteKey) {
		logging.LogSecurityEvent(s.logger, ctx, "contact_rate_limited", map[string]interface{}{
			"remote": s.cfg.RemoteKey,
		})
		s.emit(toastPatch(contact.Notification{Severity: contact.SeverityError, Message: MessageRateLimited}))
		return
	}

	s.submits.Add(1)
	go func() {
		defer s.submits.Done()
		if s.flow.Submit(ctx) == contact.OutcomeSent {
			s.emit(Patch{Type: PatchFormReset})
		}
	}()
}

func (s *Session) locate(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	top, ok := s.sections[id]
	return top, ok
}

func (s *Session) onCarouselChange(c *carousel.Carousel, st carousel.State) {
	s.mu.Lock()
	if c != s.carousel {
		s.mu.Unlock()
		return
	}
	var patches []Patch
	offset := OffsetData{Offset: st.Offset, Max: st.Max}
	if offset != s.lastOffset {
		s.lastOffset = offset
		patches = append(patches, Patch{Type: PatchCarouselOffset, Data: offset})
	}
	switch {
	case st.Selection != nil && (s.lastSel == nil || *s.lastSel != *st.Selection):
		patches = append(patches, Patch{Type: PatchOverlayOpen, Data: OverlayData{Name: st.Selection.Name, Src: st.Selection.Source}})
	case st.Selection == nil && s.lastSel != nil:
		patches = append(patches, Patch{Type: PatchOverlayClose})
	}
	s.lastSel = st.Selection
	s.mu.Unlock()

	for _, p := range patches {
		s.emit(p)
	}
}

func (s *Session) onHeaderChange(st navigation.HeaderState) {
	s.mu.Lock()
	var patches []Patch
	if st.Scrolled != s.lastHeader.Scrolled {
		patches = append(patches, Patch{Type: PatchHeader, Data: HeaderData{Scrolled: st.Scrolled}})
	}
	if st.MenuOpen != s.lastHeader.MenuOpen {
		patches = append(patches, Patch{Type: PatchMenu, Data: MenuData{Open: st.MenuOpen}})
	}
	s.lastHeader = st
	s.mu.Unlock()

	for _, p := range patches {
		s.emit(p)
	}
}

func (s *Session) onFormChange(st contact.State) {
	form := FormStateData{Submitting: st.Submitting, CanSubmit: st.CanSubmit}
	s.mu.Lock()
	if s.formSent && form == s.lastForm {
		s.mu.Unlock()
		return
	}
	s.formSent = true
	s.lastForm = form
	s.mu.Unlock()

	s.emit(Patch{Type: PatchFormState, Data: form})
}

// ReplaceLogos swaps the carousel for one over entries, keeping the measured
// bounds, and tells the page to redraw the strip.
func (s *Session) ReplaceLogos(entries []logos.Entry) {
	if len(entries) == 0 {
		entries = logos.Placeholders()
	}
	next := s.newCarousel(entries)

	s.life.Lock()
	defer s.life.Unlock()

	s.mu.Lock()
	prev := s.carousel
	s.carousel = next
	bounds := s.bounds
	s.lastOffset = OffsetData{}
	s.lastSel = nil
	s.mu.Unlock()

	prev.Unmount()
	s.emit(Patch{Type: PatchLogosUpdated, Data: LogosData{Entries: LogoViews(entries)}})
	if bounds != [2]int{} {
		next.SetBounds(bounds[0], bounds[1])
	}
	if s.mounted {
		next.Mount()
	}
}
