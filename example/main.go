package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/slotwatch"
	"github.com/jpalmerr/slotwatch/alert"
	"github.com/jpalmerr/slotwatch/cowin"
	"github.com/jpalmerr/slotwatch/internal/mockcowin"
)

func main() {
	logger := slog.Default()

	// start the fake API; capacities flip between empty and open every 20-60s
	go func() {
		if err := mockcowin.New(logger).ListenAndServe(":9999"); err != nil {
			logger.Error("mock API error", "error", err)
			os.Exit(1)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	// Pune and Mumbai, 18+ and 45+, every 20s
	form := slotwatch.NewForm()
	_ = form.SetState(21)
	_ = form.SetDistricts(363, 395)
	_ = form.SetAgeGroups(true, true)
	filter, err := form.Snapshot()
	if err != nil {
		logger.Error("invalid filter", "error", err)
		os.Exit(1)
	}

	gateway, err := cowin.NewGateway(cowin.WithBaseURL("http://localhost:9999"))
	if err != nil {
		logger.Error("failed to create gateway", "error", err)
		os.Exit(1)
	}
	defer gateway.Close()

	bell, _ := alert.NewPulser(alert.Bell(os.Stdout), alert.WithCount(2))

	m, err := slotwatch.New(
		slotwatch.WithGateway(gateway),
		slotwatch.WithFreezer(form),
		slotwatch.WithAlertSink(alert.Multi{
			Sinks:  []slotwatch.AlertSink{alert.Log{Logger: logger}, bell},
			Logger: logger,
		}),
		slotwatch.WithDeduplication(true),
	)
	if err != nil {
		logger.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   slotwatch demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Watching (mock API on :9999):                       ║")
	fmt.Println("  ║   • Pune (363) and Mumbai (395), 3 centers each       ║")
	fmt.Println("  ║   • 18+ and 45+, every 20s                            ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.ServeDashboard(ctx, 8080, "slotwatch demo"); err != nil {
		logger.Error("dashboard error", "error", err)
		os.Exit(1)
	}

	session, err := m.Start(ctx, filter)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	session.Wait()
	fmt.Printf("\n%d slot(s) found in session %s\n", len(m.Matches()), session.ID())
}
