// Package slotwatch watches the public CoWIN appointment API for
// vaccination sessions with free capacity and alerts when new ones appear.
//
// slotwatch is designed as an SDK-first library: a search is described
// with a [Form], snapshotted into an immutable [Filter], and handed to a
// [Monitor] that polls until stopped. Configuration uses the functional
// options pattern.
//
// # Quick Start
//
//	form := slotwatch.NewForm()
//	_ = form.SetState(21)
//	_ = form.SetDistricts(363, 395)
//	filter, err := form.Snapshot()
//	if err != nil {
//	    return err // *slotwatch.ValidationError lists every failing field
//	}
//
//	m, _ := slotwatch.New(
//	    slotwatch.WithFreezer(form),
//	    slotwatch.WithAlertSink(alert.Log{Logger: logger}),
//	)
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	session, _ := m.Start(ctx, filter)
//	<-ctx.Done()
//	session.Wait()
//
// # Search Modes
//
// In [ModeDistrict] every selected district of a state is queried; in
// [ModePinCode] a single 6-digit pin code is. Switching mode on a [Form]
// keeps the inactive mode's values and revalidates with [ValidatorsFor].
//
// # Matching
//
// Each query returns a calendar of centers and sessions. [FilterMatches]
// keeps sessions of the selected age groups whose capacity rounds to a
// positive integer. Matches accumulate in completion order for the life of
// a session and are cleared when the next session starts.
//
// # Alerts
//
// An [AlertSink] is triggered at most once per tick, on the first query of
// that tick that appended matches, and only when the filter has alerts
// enabled. The alert package provides a terminal bell, ntfy push, SMTP
// e-mail, a logging sink, and a fan-out.
//
// # Architecture
//
// slotwatch consists of several packages:
//
//   - cowin: API gateway, response types and the location directory
//   - alert: alert sinks
//   - config: YAML configuration for the CLI
//   - internal/poller: tick scheduler with bounded concurrent queries
//   - internal/store: in-memory result list with pub/sub for live updates
//   - internal/server: local dashboard with REST API and Server-Sent Events
//   - internal/mockcowin: fake API for tests and the demo
//   - dashboard: embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package slotwatch
