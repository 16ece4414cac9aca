package store

import "time"

// Match is the storage representation of a matched appointment session,
// shaped for JSON serialization by the dashboard API.
type Match struct {
	CenterID          int       `json:"center_id"`
	CenterName        string    `json:"center_name"`
	Address           string    `json:"address"`
	District          string    `json:"district"`
	PinCode           string    `json:"pincode"`
	FeeType           string    `json:"fee_type"`
	SessionID         string    `json:"session_id"`
	Vaccine           string    `json:"vaccine"`
	Date              string    `json:"date"`
	MinAgeLimit       int       `json:"min_age_limit"`
	AvailableCapacity int       `json:"available_capacity"`
	Tick              uint64    `json:"tick"`
	FoundAt           time.Time `json:"found_at"`
}

// EventType identifies the kind of change carried by an [Event].
type EventType string

const (
	// EventMatch is published for every appended match.
	EventMatch EventType = "match"

	// EventReset is published when the list is cleared for a new session.
	EventReset EventType = "reset"
)

// Event is a change notification delivered to subscribers.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Match     *Match    `json:"match,omitempty"`
}

// Store defines the accumulated match list with subscriptions.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Append adds matches to the end of the list in the given order.
	Append(matches ...Match)

	// Reset clears the list and tags it with a new session id.
	Reset(sessionID string)

	// All returns a snapshot of the list in append order.
	All() []Match

	// Len returns the number of stored matches.
	Len() int

	// SessionID returns the id of the session the list belongs to.
	SessionID() string

	// Subscribe returns a buffered channel of change events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Event

	// SubscribeWithSnapshot atomically subscribes and returns the session
	// id and list at that instant. Later appends arrive only on the channel.
	SubscribeWithSnapshot() (sessionID string, snapshot []Match, ch <-chan Event)

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
