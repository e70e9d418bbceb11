package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/codecraftpk/craftsite/internal/archive"
	"github.com/codecraftpk/craftsite/internal/config"
	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logging"
	"github.com/codecraftpk/craftsite/internal/relay"
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Work with the contact form",
}

var contactSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one message through the email relay",
	Long: `Run the contact form once with the given fields against the configured
email relay. The message is validated exactly as the form validates it.

Examples:
  craftsite contact send --name Ada --email ada@example.com \
    --subject Hello --message "We need a website."`,
	RunE: runContactSend,
}

var contactDraft contact.Draft

func init() {
	rootCmd.AddCommand(contactCmd)
	contactCmd.AddCommand(contactSendCmd)

	contactSendCmd.Flags().StringVar(&contactDraft.Name, "name", "", "Sender name")
	contactSendCmd.Flags().StringVar(&contactDraft.Email, "email", "", "Sender email address")
	contactSendCmd.Flags().StringVar(&contactDraft.Subject, "subject", "", "Message subject")
	contactSendCmd.Flags().StringVar(&contactDraft.Message, "message", "", "Message body")
}

func runContactSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	var recorder contact.Recorder
	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	return sendContact(cmd.Context(), cmd.OutOrStdout(), cfg,
		relay.NewClient(cfg.Relay, nil, logger), recorder, logger, contactDraft)
}

// recordingRelay keeps the last relay error so the command can suggest fixes.
type recordingRelay struct {
	contact.Relay
	err error
}

func (r *recordingRelay) Send(ctx context.Context, d contact.Draft) error {
	r.err = r.Relay.Send(ctx, d)
	return r.err
}

func sendContact(ctx context.Context, out io.Writer, cfg *config.Config, rl contact.Relay,
	recorder contact.Recorder, logger logging.Logger, draft contact.Draft) error {
	tracked := &recordingRelay{Relay: rl}

	opts := []contact.Option{contact.WithLogger(logger)}
	if recorder != nil {
		opts = append(opts, contact.WithRecorder(recorder))
	}

	var notice contact.Notification
	flow := contact.NewFlow(contact.Config{FallbackEmail: cfg.Relay.FallbackEmail}, tracked,
		contact.NotifierFunc(func(_ context.Context, n contact.Notification) { notice = n }), opts...)
	flow.SetDraft(draft)

	switch flow.Submit(ctx) {
	case contact.OutcomeSent:
		fmt.Fprintln(out, notice.Message)
		return nil
	case contact.OutcomeFailed:
		return errors.NewEnhancedError(notice.Message, tracked.err, errors.RelayFailureError(tracked.err))
	default:
		return errors.NewValidationError(errors.ErrCodeIncompleteForm, notice.Message)
	}
}
