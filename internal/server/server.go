package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jpalmerr/slotwatch/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "slotwatch"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// listenHost keeps the dashboard local to the machine running the monitor.
	listenHost = "127.0.0.1"
)

// SessionStatus is the JSON snapshot served at /api/session.
type SessionStatus struct {
	State      string     `json:"state"`
	SessionID  string     `json:"session_id,omitempty"`
	Mode       string     `json:"mode,omitempty"`
	Targets    []string   `json:"targets,omitempty"`
	PollPeriod string     `json:"poll_period,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	StoppedAt  *time.Time `json:"stopped_at,omitempty"`
	Matches    int        `json:"matches"`
}

// StatusFunc returns the current session snapshot.
type StatusFunc func() SessionStatus

// Server handles HTTP requests for the dashboard and API.
//
// Server provides four endpoints:
//   - GET /: Serves the embedded dashboard HTML
//   - GET /api/matches: Returns the accumulated matches as JSON
//   - GET /api/session: Returns the session snapshot as JSON
//   - GET /api/sse: Server-Sent Events stream of match and reset events
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store  store.Store
	status StatusFunc
	port   int
	assets fs.FS
	title  string
	logger *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding the accumulated matches
//   - status: Session snapshot provider (may be nil)
//   - port: TCP port to listen on, 0 picks a free port
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - title: Dashboard title (defaults to "slotwatch" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, status StatusFunc, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	if status == nil {
		status = func() SessionStatus { return SessionStatus{State: "idle", Matches: st.Len()} }
	}
	return &Server{
		store:  st,
		status: status,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
	}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/matches", s.handleMatches)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/sse", s.handleSSE)

	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}
	return mux
}

// Start begins serving HTTP requests on the loopback interface in a
// background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := net.JoinHostPort(listenHost, fmt.Sprint(s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.httpServer = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("dashboard listening", "addr", "http://"+ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address once [Server.Start] has succeeded.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleMatches returns the accumulated matches as JSON.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.store.All())
}

// handleSession returns the session snapshot as JSON.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.status())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams store events via Server-Sent Events.
//
// A new client first receives a reset event for the current session followed
// by one match event per stored match, then live events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	writeEvent := func(ev store.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return nil
		}
		return writeAndFlush(data)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID, snapshot, ch := s.store.SubscribeWithSnapshot()
	defer s.store.Unsubscribe(ch)

	if err := writeEvent(store.Event{Type: store.EventReset, SessionID: sessionID}); err != nil {
		return
	}
	for i := range snapshot {
		if err := writeEvent(store.Event{Type: store.EventMatch, SessionID: sessionID, Match: &snapshot[i]}); err != nil {
			return
		}
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(ev); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
