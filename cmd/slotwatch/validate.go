package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jpalmerr/slotwatch/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting a session.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a slotwatch configuration file without starting a session.

This command parses the YAML, expands environment variables, and checks
that the search criteria form a complete filter. It's useful before
leaving a watch running unattended.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  slotwatch validate -c slotwatch.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	form, err := config.BuildForm(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := config.BuildAlertSink(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Mode:          %s\n", form.Mode())
	fmt.Fprintf(out, "  Targets:       %s\n", config.Targets(cfg))
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Alerts:        %s\n", strings.Join(config.AlertChannels(cfg), ", "))

	return nil
}
