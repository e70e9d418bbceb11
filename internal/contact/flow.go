package contact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logging"
)

// Notification messages.
const (
	MessageSent    = "Message sent successfully! We'll get back to you soon."
	MessageInvalid = "Please complete the form with a valid email before sending."
	MessageBot     = "Bot detected. Submission blocked."
)

// FailureMessage formats the notification shown when the relay fails.
func FailureMessage(detail, fallbackEmail string) string {
	return fmt.Sprintf("Failed to send message: %s. You can also email %s", detail, fallbackEmail)
}

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is one transient message for the person filling in the form.
type Notification struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Notifier presents notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Relay delivers a validated draft.
type Relay interface {
	Send(ctx context.Context, d Draft) error
}

// Outcome is the per-attempt result of Submit.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeInvalid
	OutcomeBot
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeBot:
		return "bot"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, bool) {
	for _, o := range []Outcome{OutcomeSent, OutcomeInvalid, OutcomeBot, OutcomeFailed} {
		if o.String() == s {
			return o, true
		}
	}
	return 0, false
}

// Attempt describes one call to Submit for a Recorder.
type Attempt struct {
	At      time.Time
	Outcome Outcome
	Draft   Draft
	Detail  string
}

// Recorder keeps a history of attempts. Recording failures never affect the
// outcome of a submission.
type Recorder interface {
	Record(ctx context.Context, a Attempt) error
}

// Config is the explicit configuration of a Flow.
type Config struct {
	// FallbackEmail is offered when the relay fails.
	FallbackEmail string
}

// State is a point-in-time copy of the flow.
type State struct {
	Draft      Draft
	Submitting bool
	CanSubmit  bool
}

// Option customises a Flow.
type Option func(*Flow)

// WithRecorder records every attempt with r.
func WithRecorder(r Recorder) Option {
	return func(f *Flow) { f.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(f *Flow) { f.logger = l.WithComponent("contact") }
}

// WithNow overrides the time source used for recorded attempts.
func WithNow(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// Flow is the submission state machine: idle, submitting, idle.
type Flow struct {
	cfg      Config
	relay    Relay
	notifier Notifier
	recorder Recorder
	logger   logging.Logger
	now      func() time.Time

	mu         sync.Mutex
	draft      Draft
	submitting bool
	onChange   func(State)
}

// NewFlow creates an idle flow with an empty draft.
func NewFlow(cfg Config, relay Relay, notifier Notifier, opts ...Option) *Flow {
	f := &Flow{
		cfg:      cfg,
		relay:    relay,
		notifier: notifier,
		logger:   logging.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// OnChange registers fn to receive the state after draft or submission
// changes. fn runs without the flow's lock held.
func (f *Flow) OnChange(fn func(State)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *Flow) stateLocked() State {
	return State{
		Draft:      f.draft,
		Submitting: f.submitting,
		CanSubmit:  f.canSubmitLocked(),
	}
}

// Draft returns a copy of the draft.
func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// CanSubmit reports whether the draft is complete and nothing is in flight.
func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmitLocked()
}

func (f *Flow) canSubmitLocked() bool {
	return !f.submitting && f.draft.Complete()
}

// SetField updates one field of the draft.
func (f *Flow) SetField(field, value string) error {
	f.mu.Lock()
	if err := f.draft.Set(field, value); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()
	f.changed()
	return nil
}

// SetDraft replaces the whole draft.
func (f *Flow) SetDraft(d Draft) {
	f.mu.Lock()
	f.draft = d
	f.mu.Unlock()
	f.changed()
}

// Submit runs one submission attempt and emits exactly one notification. The
// honeypot is checked before anything else; a submit that arrives while
// another is in flight fails validation and never reaches the relay.
func (f *Flow) Submit(ctx context.Context) Outcome {
	f.mu.Lock()
	draft := f.draft
	switch {
	case draft.IsBot():
		f.mu.Unlock()
		f.logger.Warn(ctx, errors.NewBotError("honeypot field filled"), "Contact submission blocked")
		f.finish(ctx, OutcomeBot, Draft{}, "", Notification{Severity: SeverityError, Message: MessageBot})
		return OutcomeBot
	case !f.canSubmitLocked():
		submitting := f.submitting
		f.mu.Unlock()
		f.logger.Debug(ctx, "Contact submission rejected", "in_flight", submitting)
		f.finish(ctx, OutcomeInvalid, draft, "", Notification{Severity: SeverityError, Message: MessageInvalid})
		return OutcomeInvalid
	}
	f.submitting = true
	f.mu.Unlock()
	f.changed()

	err := f.relay.Send(ctx, draft)

	f.mu.Lock()
	f.submitting = false
	if err == nil {
		f.draft = Draft{}
	}
	f.mu.Unlock()
	f.changed()

	if err != nil {
		detail := errors.Detail(err)
		f.logger.Error(ctx, err, "Contact submission failed", "from", logging.MaskEmail(draft.Email))
		f.finish(ctx, OutcomeFailed, draft, detail, Notification{
			Severity: SeverityError,
			Message:  FailureMessage(detail, f.cfg.FallbackEmail),
		})
		return OutcomeFailed
	}

	f.logger.Info(ctx, "Contact submission sent", "from", logging.MaskEmail(draft.Email))
	f.finish(ctx, OutcomeSent, draft, "", Notification{Severity: SeveritySuccess, Message: MessageSent})
	return OutcomeSent
}

func (f *Flow) finish(ctx context.Context, outcome Outcome, d Draft, detail string, n Notification) {
	if f.notifier != nil {
		f.notifier.Notify(ctx, n)
	}
	if f.recorder == nil {
		return
	}
	a := Attempt{At: f.now(), Outcome: outcome, Draft: d, Detail: detail}
	if err := f.recorder.Record(context.WithoutCancel(ctx), a); err != nil {
		f.logger.Warn(ctx, err, "Failed to record contact attempt", "outcome", outcome.String())
	}
}

func (f *Flow) changed() {
	f.mu.Lock()
	state := f.stateLocked()
	observer := f.onChange
	f.mu.Unlock()

	if observer != nil {
		observer(state)
	}
}
