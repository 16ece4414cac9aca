// Package main is the entry point for the slotwatch CLI.
//
// slotwatch can be used as a library (SDK) or as a standalone binary with
// YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	slotwatch watch -c config.yaml    # Watch for slots until interrupted
//	slotwatch validate -c config.yaml # Validate configuration
//	slotwatch states                  # List state ids
//	slotwatch districts 21            # List district ids of a state
//	slotwatch version                 # Show version info
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "slotwatch",
	Short: "Watch for open vaccination appointment slots",
	Long: `slotwatch polls the public CoWIN appointment API and alerts when
sessions with free capacity appear for your districts or pin code.

Quick start:
  1. Find your ids: slotwatch states, then slotwatch districts <state-id>
  2. Create a config file (slotwatch.yaml)
  3. Run: slotwatch watch -c slotwatch.yaml

Example config:
  mode: district
  state_id: 21
  district_ids: [363]
  age_18_plus: true
  poll_interval: 30s
  dashboard_port: 8080`,
	SilenceUsage: true,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this slotwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "slotwatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")

	// flags win over SLOTWATCH_LOG_LEVEL and SLOTWATCH_LOG_FORMAT
	_ = viper.BindPFlag("log-level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log-format", flags.Lookup("log-format"))
	viper.SetEnvPrefix("slotwatch")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// newLogger creates the CLI logger from the global log settings. Text
// output is colourised for terminals; json suits log collectors.
func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", viper.GetString("log-level"))
	}

	switch format := strings.ToLower(viper.GetString("log-format")); format {
	case "text", "":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
			NoColor:    !isTerminal(w),
		})), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (expected text or json)", format)
	}
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
