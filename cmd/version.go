package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/codecraftpk/craftsite/internal/version"
)

var (
	versionOutput   OutputFormat
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for craftsite: the semantic version, git
commit, build time, Go version and target platform.

Examples:
  craftsite version              # Short version
  craftsite version --detailed   # Every build detail
  craftsite version -o json      # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	addOutputFlag(versionCmd, &versionOutput)
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	return writeOutput(cmd.OutOrStdout(), versionOutput, version.GetBuildInfo(), func(w io.Writer) error {
		if versionDetailed {
			_, err := fmt.Fprintln(w, version.GetDetailedVersion())
			return err
		}
		_, err := fmt.Fprintf(w, "craftsite %s\n", version.GetShortVersion())
		return err
	})
}
