package slotwatch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/slotwatch/cowin"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGateway answers queries from per-target functions. Unset targets
// return an empty calendar.
type fakeGateway struct {
	mu         sync.Mutex
	byDistrict map[int]func(ctx context.Context) (*cowin.Calendar, error)
	byPinCode  map[string]func(ctx context.Context) (*cowin.Calendar, error)
	dates      []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		byDistrict: make(map[int]func(ctx context.Context) (*cowin.Calendar, error)),
		byPinCode:  make(map[string]func(ctx context.Context) (*cowin.Calendar, error)),
	}
}

func (g *fakeGateway) onDistrict(id int, fn func(ctx context.Context) (*cowin.Calendar, error)) {
	g.mu.Lock()
	g.byDistrict[id] = fn
	g.mu.Unlock()
}

func (g *fakeGateway) onPinCode(pin string, fn func(ctx context.Context) (*cowin.Calendar, error)) {
	g.mu.Lock()
	g.byPinCode[pin] = fn
	g.mu.Unlock()
}

func (g *fakeGateway) QueryByDistrict(ctx context.Context, id int, date string) (*cowin.Calendar, error) {
	g.mu.Lock()
	fn := g.byDistrict[id]
	g.dates = append(g.dates, date)
	g.mu.Unlock()
	if fn == nil {
		return &cowin.Calendar{}, nil
	}
	return fn(ctx)
}

func (g *fakeGateway) QueryByPinCode(ctx context.Context, pin, date string) (*cowin.Calendar, error) {
	g.mu.Lock()
	fn := g.byPinCode[pin]
	g.dates = append(g.dates, date)
	g.mu.Unlock()
	if fn == nil {
		return &cowin.Calendar{}, nil
	}
	return fn(ctx)
}

func (g *fakeGateway) queriedDates() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.dates...)
}

// calendarOf returns a fixed calendar on every call.
func calendarOf(cal *cowin.Calendar) func(ctx context.Context) (*cowin.Calendar, error) {
	return func(context.Context) (*cowin.Calendar, error) { return cal, nil }
}

// manualTicker is a ticker fired by the test.
type manualTicker struct {
	ch chan time.Time
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (mt *manualTicker) factory(time.Duration) (<-chan time.Time, func()) {
	return mt.ch, func() {}
}

// fire delivers one tick, failing the test if the scheduler is not
// listening.
func (mt *manualTicker) fire(t *testing.T) {
	t.Helper()
	select {
	case mt.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not accept tick")
	}
}

// tickRecorder collects tick results delivered to a callback.
type tickRecorder struct {
	ch chan TickResult
}

func newTickRecorder() *tickRecorder {
	return &tickRecorder{ch: make(chan TickResult, 100)}
}

func (r *tickRecorder) callback(tr TickResult) {
	r.ch <- tr
}

// next waits for n tick results.
func (r *tickRecorder) next(t *testing.T, n int) []TickResult {
	t.Helper()
	out := make([]TickResult, 0, n)
	for len(out) < n {
		select {
		case tr := <-r.ch:
			out = append(out, tr)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for tick results: got %d of %d", len(out), n)
		}
	}
	return out
}

// newTestMonitor creates a monitor with a manual ticker and a tick recorder.
func newTestMonitor(t *testing.T, g Gateway, opts ...Option) (*Monitor, *manualTicker, *tickRecorder) {
	t.Helper()

	rec := newTickRecorder()
	base := []Option{
		WithGateway(g),
		WithLogger(testLogger()),
		WithTickCallback(rec.callback),
	}
	m, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mt := newManualTicker()
	m.newTicker = mt.factory
	return m, mt, rec
}

// districtFilter returns a valid district-mode filter.
func districtFilter(t *testing.T, ids ...int) Filter {
	t.Helper()
	form := NewForm()
	mustNoErr(t, form.SetState(21))
	mustNoErr(t, form.SetDistricts(ids...))
	f, err := form.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return f
}

// pinCodeFilter returns a valid pin-code-mode filter.
func pinCodeFilter(t *testing.T, pin string) Filter {
	t.Helper()
	form := NewForm()
	mustNoErr(t, form.SetMode(ModePinCode))
	mustNoErr(t, form.SetPinCode(pin))
	f, err := form.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return f
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// oneSlot returns a calendar with a single open 18+ session.
func oneSlot(centerID int, sessionID string, capacity float64) *cowin.Calendar {
	return &cowin.Calendar{Centers: []cowin.Center{{
		CenterID:     centerID,
		Name:         "Center " + sessionID,
		DistrictName: "Pune",
		PinCode:      "411001",
		FeeType:      "Free",
		Sessions: []cowin.Session{{
			SessionID:         sessionID,
			Date:              "10-05-2021",
			AvailableCapacity: capacity,
			MinAgeLimit:       18,
			Vaccine:           "COVISHIELD",
		}},
	}}}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
