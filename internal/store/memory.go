package store

import (
	"sync"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Subscribers receive events via buffered channels (buffer size 100). Events
// are sent non-blocking; if a subscriber's buffer is full, the event is
// dropped for that subscriber.
type MemoryStore struct {
	mu        sync.RWMutex
	sessionID string
	matches   []Match

	subMu       sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Append adds matches to the end of the list and notifies subscribers once
// per match, in order.
//
// Subscribers are notified while the list lock is held, so a
// [MemoryStore.SubscribeWithSnapshot] caller sees each match exactly once.
func (m *MemoryStore) Append(matches ...Match) {
	if len(matches) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.matches = append(m.matches, matches...)
	for i := range matches {
		match := matches[i]
		m.notify(Event{Type: EventMatch, SessionID: m.sessionID, Match: &match})
	}
}

// Reset clears the list for a new session and notifies subscribers.
func (m *MemoryStore) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.matches = nil
	m.sessionID = sessionID
	m.notify(Event{Type: EventReset, SessionID: sessionID})
}

// All returns a copy of the list in append order.
func (m *MemoryStore) All() []Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Match, len(m.matches))
	copy(out, m.matches)
	return out
}

// Len returns the number of stored matches.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}

// SessionID returns the id passed to the last [MemoryStore.Reset].
func (m *MemoryStore) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// Subscribe creates a new subscription with a buffer of 100 events.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// SubscribeWithSnapshot subscribes and copies the list in one step. Every
// match is either in the snapshot or delivered on the channel, never both.
func (m *MemoryStore) SubscribeWithSnapshot() (sessionID string, snapshot []Match, ch <-chan Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot = make([]Match, len(m.matches))
	copy(snapshot, m.matches)
	return m.sessionID, snapshot, m.Subscribe()
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (m *MemoryStore) notify(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the event
		}
	}
}
