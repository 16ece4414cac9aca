package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jpalmerr/slotwatch"
	"github.com/jpalmerr/slotwatch/config"
	"github.com/jpalmerr/slotwatch/cowin"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// watchCmd runs a monitoring session until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for open slots",
	Long: `Watch the configured districts or pin code for open slots.

The command will:
  - Load configuration from the specified YAML file
  - Query every target immediately, then once per poll interval
  - Alert through the configured channels when new slots appear
  - Serve the dashboard on 127.0.0.1 if dashboard_port is set

It runs until interrupted (Ctrl+C) or receives SIGTERM, then prints the
slots found during the session.

Example:
  slotwatch watch -c slotwatch.yaml
  SLOTWATCH_LOG_LEVEL=debug slotwatch watch -c slotwatch.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = watchCmd.MarkFlagRequired("config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	form, err := config.BuildForm(cfg)
	if err != nil {
		return fmt.Errorf("invalid search: %w", err)
	}
	filter, err := form.Snapshot()
	if err != nil {
		return fmt.Errorf("invalid search: %w", err)
	}

	gateway, err := config.BuildGateway(cfg)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}
	defer gateway.Close()

	sinks, err := config.BuildAlertSink(cfg, logger, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to create alerts: %w", err)
	}

	opts := append([]slotwatch.Option{
		slotwatch.WithGateway(gateway),
		slotwatch.WithLogger(logger),
		slotwatch.WithAlertSink(sinks),
		slotwatch.WithFreezer(form),
		slotwatch.WithTickCallback(func(r slotwatch.TickResult) {
			if r.Err == nil {
				logger.Debug("target checked",
					"target", r.Target,
					"tick", r.Tick,
					"new_matches", len(r.Matches),
					"latency_ms", r.Latency.Milliseconds(),
				)
			}
		}),
	}, config.MonitorOptions(cfg)...)

	m, err := slotwatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	logger.Info("config loaded",
		"targets", config.Targets(cfg),
		"alerts", config.AlertChannels(cfg),
	)
	if filter.Mode() == slotwatch.ModeDistrict {
		logDistricts(cmd.Context(), logger, cowin.NewDirectory(gateway), filter)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DashboardPort > 0 {
		if err := m.ServeDashboard(ctx, cfg.DashboardPort, cfg.Title); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		logger.Info("dashboard listening", "url", fmt.Sprintf("http://127.0.0.1:%d", cfg.DashboardPort))
	}

	session, err := m.Start(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to start monitoring: %w", err)
	}

	<-ctx.Done()
	m.Stop()

	// wait for in-flight queries with timeout
	select {
	case <-session.Done():
		logger.Info("shutdown complete")
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"action", "forcing exit",
		)
	}

	waitForAlerts(logger, sinks, shutdownTimeout)

	printSummary(cmd.OutOrStdout(), m.Matches())
	return nil
}

// waitForAlerts gives notifications still being sent until timeout to
// finish. It reports whether they did.
func waitForAlerts(logger *slog.Logger, sinks interface{ Wait() }, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		sinks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		logger.Warn("pending alerts abandoned", "timeout", timeout.String())
		return false
	}
}

// logDistricts logs the watched districts by name. A failed lookup is only
// a warning; polling does not depend on it.
func logDistricts(ctx context.Context, logger *slog.Logger, dir *cowin.Directory, filter slotwatch.Filter) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	names, unknown, err := describeDistricts(ctx, dir, filter.StateID(), filter.DistrictIDs())
	if err != nil {
		logger.Warn("could not resolve district names", "error", err)
		return
	}
	logger.Info("watching", "districts", names)
	if len(unknown) > 0 {
		logger.Warn("districts not found in state",
			"state_id", filter.StateID(),
			"district_ids", unknown,
		)
	}
}

// printSummary writes the matches found during the session as a table.
func printSummary(w io.Writer, matches []slotwatch.SlotMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No slots found.")
		return
	}

	fmt.Fprintf(w, "%d slot(s) found:\n", len(matches))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCENTER\tPINCODE\tVACCINE\tAGE\tCAPACITY\tFEE")
	for _, sm := range matches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d+\t%d\t%s\n",
			sm.Date, sm.CenterName, sm.PinCode, sm.Vaccine, sm.MinAgeLimit, sm.AvailableCapacity, sm.FeeType)
	}
	_ = tw.Flush()
}
