package slotwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/jpalmerr/slotwatch/dashboard"
	"github.com/jpalmerr/slotwatch/internal/server"
)

// ServeDashboard starts the local web dashboard of m on 127.0.0.1:port in
// the background. It returns once the port is bound; the server shuts down
// when ctx is cancelled.
//
// The dashboard lists the accumulated matches, newest first, and follows
// them live across sessions.
func (m *Monitor) ServeDashboard(ctx context.Context, port int, title string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	srv := server.NewServer(m.store, m.sessionStatus, port, dashboard.Assets, title, m.logger)
	return srv.Start(ctx)
}

func (m *Monitor) sessionStatus() server.SessionStatus {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()

	st := server.SessionStatus{
		State:   StateIdle.String(),
		Matches: m.store.Len(),
	}
	if sess == nil {
		return st
	}

	f := sess.Filter()
	targets := f.targets()
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}

	startedAt := sess.StartedAt()
	st.SessionID = sess.ID()
	st.Mode = f.Mode().String()
	st.Targets = names
	st.PollPeriod = f.PollPeriod().String()
	st.StartedAt = &startedAt

	if stoppedAt, stopped := sess.StoppedAt(); stopped {
		st.StoppedAt = timePtr(stoppedAt)
	} else {
		st.State = StateActive.String()
	}
	return st
}

func timePtr(t time.Time) *time.Time { return &t }
