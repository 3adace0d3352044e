// Package main provides the jobcraft command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/jobcraft/internal/config"
	"github.com/jonathan/jobcraft/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "jobcraft",
	Short: "Job posting scraper with guarded requests and retrying LLM calls",
	Long: "jobcraft fetches job postings, extracts role, company, description and location " +
		"with an LLM, and validates every outbound URL and address it handles.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

var (
	configPath  string
	secretsPath string
	logLevel    string
	verbose     bool
)

// Settings resolved once per invocation by loadSettings.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&secretsPath, "secrets", "", "Path to YAML secrets file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Human-readable debug logging and retry details")
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
		if err := loaded.Validate(); err != nil {
			return err
		}
	}
	if verbose {
		loaded.Log.Verbose = true
	}

	cfg = loaded
	logger = logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Verbose)
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
