package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// OutputFormat is the value of an --output flag.
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

var outputFormats = []OutputFormat{OutputTable, OutputJSON, OutputYAML}

var _ pflag.Value = (*OutputFormat)(nil)

func (f *OutputFormat) String() string { return string(*f) }

// Set rejects anything but a known format, so bad values fail at parse time.
func (f *OutputFormat) Set(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, known := range outputFormats {
		if value == string(known) {
			*f = known
			return nil
		}
	}
	names := make([]string, len(outputFormats))
	for i, known := range outputFormats {
		names[i] = string(known)
	}
	return fmt.Errorf("invalid output format %q, must be one of: %s", value, strings.Join(names, ", "))
}

func (f *OutputFormat) Type() string { return "format" }

// addOutputFlag registers --output/-o on cmd, defaulting to table.
func addOutputFlag(cmd *cobra.Command, format *OutputFormat) {
	*format = OutputTable
	cmd.Flags().VarP(format, "output", "o", "Output format (table|json|yaml)")
}

// writeOutput encodes v in format. Table output is delegated to table, which
// writes tab separated rows.
func writeOutput(w io.Writer, format OutputFormat, v interface{}, table func(w io.Writer) error) error {
	switch format {
	case OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case OutputYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(v)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if err := table(tw); err != nil {
			return err
		}
		return tw.Flush()
	}
}
