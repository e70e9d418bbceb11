package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, the configuration file,
environment variables and flags. The relay public key is masked.

Examples:
  craftsite config
  CRAFTSITE_SERVER_PORT=3000 craftsite config`,
	RunE: runConfig,
}

var configShowSecrets bool

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolVar(&configShowSecrets, "show-secrets", false, "Print the relay public key unmasked")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	printed := *cfg
	if !configShowSecrets {
		printed.Relay.PublicKey = maskSecret(printed.Relay.PublicKey)
	}

	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(&printed)
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
