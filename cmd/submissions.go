package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codecraftpk/craftsite/internal/archive"
	"github.com/codecraftpk/craftsite/internal/errors"
)

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "List archived contact attempts",
	Long: `List the contact attempts recorded in the submission archive, newest first.
The archive is only written when archive.enabled is set.

Examples:
  craftsite submissions                    # Latest 20 attempts
  craftsite submissions --outcome failed   # Only relay failures
  craftsite submissions -n 0 -o yaml       # Everything as YAML`,
	RunE: runSubmissions,
}

var (
	submissionsOutput  OutputFormat
	submissionsOutcome string
	submissionsLimit   int
)

func init() {
	rootCmd.AddCommand(submissionsCmd)

	addOutputFlag(submissionsCmd, &submissionsOutput)
	submissionsCmd.Flags().StringVar(&submissionsOutcome, "outcome", "", "Only show one outcome (sent, invalid, bot, failed)")
	submissionsCmd.Flags().IntVarP(&submissionsLimit, "limit", "n", 20, "Maximum rows to show, 0 for all")
}

func runSubmissions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Archive.Enabled {
		return errors.NewEnhancedError("The submission archive is disabled",
			errors.NewConfigError(errors.ErrCodeArchive, "archive.enabled is false"),
			[]errors.ErrorSuggestion{{
				Title:       "Enable the archive",
				Description: "Attempts are only recorded while the archive is enabled",
				Example:     "archive:\n  enabled: true\n  path: .craftsite/submissions.db",
			}})
	}

	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	subs, err := store.List(cmd.Context(), archive.Filter{Outcome: submissionsOutcome, Limit: submissionsLimit})
	if err != nil {
		return err
	}

	return writeSubmissions(cmd.OutOrStdout(), submissionsOutput, subs)
}

func writeSubmissions(out io.Writer, format OutputFormat, subs []archive.Submission) error {
	if subs == nil {
		subs = []archive.Submission{}
	}
	return writeOutput(out, format, subs, func(w io.Writer) error {
		fmt.Fprintln(w, "TIME\tOUTCOME\tFROM\tSUBJECT\tDETAIL")
		for _, s := range subs {
			from := s.Email
			if s.Name != "" {
				from = fmt.Sprintf("%s <%s>", s.Name, s.Email)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				s.CreatedAt.Local().Format("2006-01-02 15:04:05"), s.Outcome, from,
				oneLine(s.Subject), oneLine(s.Detail))
		}
		return nil
	})
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
