package slotwatch

import "time"

// State is the lifecycle state of a [Monitor].
type State string

const (
	// StateIdle means no session is running. Results of the last session
	// remain available for inspection.
	StateIdle State = "idle"

	// StateActive means a session is ticking.
	StateActive State = "active"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// TickResult holds the outcome of querying one target during a tick.
//
// TickResult is passed to callbacks registered with [WithTickCallback].
type TickResult struct {
	// SessionID identifies the session that dispatched the query.
	SessionID string

	// Tick is the tick number; tick 0 is the immediate query on start.
	Tick uint64

	// Target names the queried district or pin code.
	Target string

	// Matches are the matches appended to the result list by this query.
	// Empty when the query failed, found nothing, or its results were
	// discarded.
	Matches []SlotMatch

	// Latency is the time taken by the remote query.
	Latency time.Duration

	// CheckedAt is when the query completed.
	CheckedAt time.Time

	// Err is the query error, typically a *cowin.TransportError.
	Err error
}
