package alert

import (
	"log/slog"

	"github.com/jpalmerr/slotwatch"
)

// Log is a sink that logs every match of an alert at INFO.
type Log struct {
	Logger *slog.Logger
}

// Trigger logs the alert.
func (l Log) Trigger(a slotwatch.Alert) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for _, m := range a.Matches {
		logger.Info("slot available",
			"session_id", a.SessionID,
			"tick", a.Tick,
			"center", m.CenterName,
			"district", m.District,
			"pincode", m.PinCode,
			"date", m.Date,
			"vaccine", m.Vaccine,
			"min_age", m.MinAgeLimit,
			"capacity", m.AvailableCapacity,
			"fee", m.FeeType,
		)
	}
}

// Multi fans an alert out to every sink in order. A panicking sink is
// logged to Logger, or slog.Default when Logger is nil.
type Multi struct {
	Sinks  []slotwatch.AlertSink
	Logger *slog.Logger
}

// Trigger calls Trigger on every sink. A panicking sink does not prevent
// the others from running.
func (m Multi) Trigger(a slotwatch.Alert) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, sink := range m.Sinks {
		triggerSafe(logger, sink, a)
	}
}

// Wait blocks until every sink that sends in the background, such as
// [Ntfy] and [Email], has finished the sends started so far.
func (m Multi) Wait() {
	for _, sink := range m.Sinks {
		if w, ok := sink.(interface{ Wait() }); ok {
			w.Wait()
		}
	}
}

func triggerSafe(logger *slog.Logger, sink slotwatch.AlertSink, a slotwatch.Alert) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("alert sink panicked", "panic", r, "session_id", a.SessionID, "tick", a.Tick)
		}
	}()
	sink.Trigger(a)
}
