// Package cmd provides the command-line interface for craftsite.
//
// Configuration System:
//
//	Configuration is read from several sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. CRAFTSITE_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (CRAFTSITE_SERVER_PORT, etc.)
//	4. Configuration files (.craftsite.yml) - lowest priority
//
// Environment Variables:
//
//	CRAFTSITE_CONFIG_FILE: Path to custom configuration file
//	CRAFTSITE_SERVER_PORT: Override server port
//	CRAFTSITE_ASSETS_LOGO_DIR: Override the logo directory
//	EMAILJS_SERVICE_ID, EMAILJS_TEMPLATE_ID, EMAILJS_PUBLIC_KEY: relay identifiers
//	And more following the CRAFTSITE_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codecraftpk/craftsite/internal/config"
	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logging"
)

const defaultConfigFile = ".craftsite.yml"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "craftsite",
	Short: "The CodeCraft Pakistan company site",
	Long: `craftsite serves the CodeCraft Pakistan brochure site: a single page with
smooth section navigation, a client logo carousel and a contact form that
delivers through a hosted email relay.

Quick Start:
  craftsite serve                 Start the site
  craftsite logos                 List the client logos the carousel shows
  craftsite contact send ...      Send a message through the relay
  craftsite submissions           List archived contact attempts
  craftsite config                Print the effective configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .craftsite.yml, can also use CRAFTSITE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points viper at the configuration file and the environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("CRAFTSITE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".craftsite")
	}

	viper.SetEnvPrefix("CRAFTSITE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing file is fine; defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the effective configuration, wrapping failures with
// suggestions.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			configPath = defaultConfigFile
		}
		suggestions := errors.ConfigurationError(err.Error(), &errors.SuggestionContext{ConfigPath: configPath})
		return nil, errors.NewEnhancedError("Failed to load configuration", err, suggestions)
	}
	return cfg, nil
}

// newLogger builds the process logger. When a log file is configured every
// record is also written to it as JSON; the returned closer releases it.
func newLogger(cfg config.LogConfig, out io.Writer) (logging.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	loggerConfig := &logging.LoggerConfig{
		Level:  level,
		Format: cfg.Format,
		Output: out,
	}

	closer := func() {}
	if cfg.File != "" {
		file, err := logging.OpenLogFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		loggerConfig.File = file
		closer = func() { _ = file.Close() }
	}

	return logging.NewLogger(loggerConfig), closer, nil
}
