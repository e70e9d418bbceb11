//go:build property

package contact

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestFlowProperties validates the submission contract over generated drafts.
func TestFlowProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1701)
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	fieldGen := gen.OneGenOf(gen.Const(""), gen.Const("  "), gen.AlphaString(), gen.Const("a@b.co"), gen.Const("x y@z.io"))

	properties.Property("exactly one notification per attempt", prop.ForAll(
		func(name, email, subject, message, website string) bool {
			relay := &fakeRelay{}
			notes := &notifications{}
			flow := NewFlow(Config{FallbackEmail: fallback}, relay, notes)
			flow.SetDraft(Draft{Name: name, Email: email, Subject: subject, Message: message, Website: website})

			flow.Submit(context.Background())
			return len(notes.all()) == 1
		},
		fieldGen, fieldGen, fieldGen, fieldGen, fieldGen,
	))

	properties.Property("relay is called iff the draft is human and complete", prop.ForAll(
		func(name, email, subject, message, website string) bool {
			d := Draft{Name: name, Email: email, Subject: subject, Message: message, Website: website}
			relay := &fakeRelay{}
			flow := NewFlow(Config{FallbackEmail: fallback}, relay, nil)
			flow.SetDraft(d)

			outcome := flow.Submit(context.Background())
			human := strings.TrimSpace(website) == ""
			complete := strings.TrimSpace(name) != "" && strings.TrimSpace(subject) != "" &&
				strings.TrimSpace(message) != "" && IsValidEmail(email)

			wantCalls := 0
			if human && complete {
				wantCalls = 1
			}
			if len(relay.calls()) != wantCalls {
				return false
			}
			switch {
			case !human:
				return outcome == OutcomeBot && flow.Draft() == d
			case !complete:
				return outcome == OutcomeInvalid && flow.Draft() == d
			default:
				return outcome == OutcomeSent && flow.Draft().IsZero()
			}
		},
		fieldGen, fieldGen, fieldGen, fieldGen, fieldGen,
	))

	properties.TestingRun(t)
}
