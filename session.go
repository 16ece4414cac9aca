package slotwatch

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/slotwatch/internal/poller"
)

// Session is one run of a [Monitor], from [Monitor.Start] to
// [Monitor.Stop]. Each session owns its scheduler, so stopping one never
// affects another monitor.
type Session struct {
	id        string
	filter    Filter
	startedAt time.Time
	scheduler *poller.Scheduler
	done      chan struct{}

	mu        sync.Mutex
	stopped   bool
	stoppedAt time.Time
}

func newSession(f Filter, now time.Time) *Session {
	return &Session{
		id:        uuid.NewString(),
		filter:    f,
		startedAt: now,
		done:      make(chan struct{}),
	}
}

// ID returns the unique session id.
func (s *Session) ID() string { return s.id }

// Filter returns the filter snapshot the session was started with.
func (s *Session) Filter() Filter { return s.filter }

// StartedAt returns when the session started.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// StoppedAt returns when the session stopped and whether it has.
func (s *Session) StoppedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stoppedAt, s.stopped
}

// Active reports whether the session is still ticking.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped
}

// Done is closed once the session has stopped and every query it
// dispatched has been processed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until [Session.Done] is closed.
func (s *Session) Wait() {
	<-s.done
}

// markStopped flips the session to stopped. It returns false if the session
// was already stopped.
func (s *Session) markStopped(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.stopped = true
	s.stoppedAt = now
	return true
}
