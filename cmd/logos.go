package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/codecraftpk/craftsite/internal/logging"
	"github.com/codecraftpk/craftsite/internal/logos"
	"github.com/codecraftpk/craftsite/internal/server"
)

var logosCmd = &cobra.Command{
	Use:     "logos",
	Aliases: []string{"l"},
	Short:   "List the client logos the carousel shows",
	Long: `Scan the logo directory the way the server does and list the resulting
carousel entries. Files named logo1, logo2, ... are used on their own when any
exist; otherwise every image is used. An empty directory yields placeholders.

Examples:
  craftsite logos                 # Table output
  craftsite logos -o json         # JSON output
  craftsite logos --dir ./public  # Scan another directory`,
	RunE: runLogos,
}

var (
	logosOutput OutputFormat
	logosDir    string
)

func init() {
	rootCmd.AddCommand(logosCmd)

	addOutputFlag(logosCmd, &logosOutput)
	logosCmd.Flags().StringVar(&logosDir, "dir", "", "Logo directory (defaults to assets.logo_dir)")
}

// LogoRow is one listed carousel entry.
type LogoRow struct {
	Name        string `json:"name" yaml:"name"`
	Src         string `json:"src,omitempty" yaml:"src,omitempty"`
	Placeholder bool   `json:"placeholder" yaml:"placeholder"`
}

func runLogos(cmd *cobra.Command, args []string) error {
	dir := logosDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Assets.LogoDir
	}

	catalog := logos.NewCatalog(os.DirFS(dir), server.LogoURLPrefix, logging.Nop())
	rows := logoRows(catalog.Snapshot())

	return writeOutput(cmd.OutOrStdout(), logosOutput, rows, func(w io.Writer) error {
		fmt.Fprintln(w, "NAME\tSOURCE")
		for _, row := range rows {
			src := row.Src
			if row.Placeholder {
				src = "(placeholder)"
			}
			fmt.Fprintf(w, "%s\t%s\n", row.Name, src)
		}
		return nil
	})
}

func logoRows(entries []logos.Entry) []LogoRow {
	rows := make([]LogoRow, len(entries))
	for i, e := range entries {
		src, ok := logos.ImageOf(e)
		rows[i] = LogoRow{Name: e.DisplayName(), Src: src, Placeholder: !ok}
	}
	return rows
}
