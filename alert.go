package slotwatch

import "time"

// Alert is raised when a tick appends at least one new match.
type Alert struct {
	SessionID string
	Tick      uint64
	Matches   []SlotMatch
	At        time.Time
}

// AlertSink receives alerts. Trigger is called from the monitor's result
// goroutine and must return promptly; long work belongs in a goroutine.
// Panics are recovered and logged by the monitor.
type AlertSink interface {
	Trigger(Alert)
}

// AlertFunc adapts a function to [AlertSink].
type AlertFunc func(Alert)

// Trigger calls f(a).
func (f AlertFunc) Trigger(a Alert) {
	f(a)
}
