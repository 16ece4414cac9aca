package slotwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/slotwatch/cowin"
	"github.com/jpalmerr/slotwatch/internal/poller"
	"github.com/jpalmerr/slotwatch/internal/store"
)

const (
	defaultMaxConcurrency = 10

	// alertedTickWindow bounds how many recent ticks are remembered when
	// deciding whether a tick has already alerted. Results of older ticks
	// never alert.
	alertedTickWindow = 32
)

// Monitor polls for appointment slots matching a [Filter] and accumulates
// the matches.
//
// A Monitor is idle until [Monitor.Start] and returns to idle on
// [Monitor.Stop]. While active it queries every target of the filter
// immediately and then once per poll period, appends matches to its result
// list as each query completes, and triggers the [AlertSink] at most once
// per tick that appended something new.
//
// The typical lifecycle is:
//
//	form := slotwatch.NewForm()
//	_ = form.SetMode(slotwatch.ModePinCode)
//	_ = form.SetPinCode("110001")
//	filter, err := form.Snapshot()
//	if err != nil {
//	    return err
//	}
//
//	m, _ := slotwatch.New(slotwatch.WithFreezer(form), slotwatch.WithAlertSink(sink))
//	session, err := m.Start(ctx, filter)
//	...
//	m.Stop()
//	session.Wait()
//	fmt.Println(m.Matches())
//
// Monitor is safe for concurrent use. Independent monitors share no state.
type Monitor struct {
	gateway        Gateway
	logger         *slog.Logger
	alertSink      AlertSink
	freezer        Freezer
	tickCallbacks  []func(TickResult)
	maxConcurrency int
	dedupe         bool
	discardLate    bool
	now            func() time.Time

	// newTicker is nil outside tests
	newTicker poller.TickerFunc

	store *store.MemoryStore

	mu      sync.Mutex
	session *Session
}

// New creates an idle [Monitor] with the given options.
//
// Defaults: the public CoWIN gateway, [slog.Default], no alert sink, no
// freezer, 10 concurrent queries, no de-duplication, late results kept.
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		maxConcurrency: defaultMaxConcurrency,
		clock:          time.Now,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.gateway == nil {
		g, err := cowin.NewGateway()
		if err != nil {
			return nil, fmt.Errorf("failed to create gateway: %w", err)
		}
		cfg.gateway = g
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		gateway:        cfg.gateway,
		logger:         logger,
		alertSink:      cfg.alertSink,
		freezer:        cfg.freezer,
		tickCallbacks:  cfg.tickCallbacks,
		maxConcurrency: cfg.maxConcurrency,
		dedupe:         cfg.dedupe,
		discardLate:    cfg.discardLate,
		now:            cfg.clock,
		store:          store.NewMemoryStore(),
	}, nil
}

// Start begins a monitoring session for f.
//
// Start clears the result list, freezes the registered [Freezer], queries
// every target immediately (tick 0) and then every [Filter.PollPeriod].
// Start returns without waiting for the first results.
//
// ctx bounds the session: cancelling it stops the session like
// [Monitor.Stop] and also cancels in-flight queries.
//
// Returns a *[ValidationError] if f is invalid and [ErrAlreadyActive] if a
// session is running.
func (m *Monitor) Start(ctx context.Context, f Filter) (*Session, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil && m.session.Active() {
		return nil, ErrAlreadyActive
	}

	sess := newSession(f, m.now())
	m.store.Reset(sess.id)
	m.session = sess

	if m.freezer != nil {
		m.freezer.Freeze()
	}

	targets := f.targets()
	sess.scheduler = poller.NewScheduler(poller.Config{
		Targets:        targets,
		Interval:       f.PollPeriod(),
		MaxConcurrency: m.maxConcurrency,
		Fetch:          m.fetch,
		Logger:         m.logger,
		NewTicker:      m.newTicker,
	})

	m.logger.Info("monitoring started",
		"session_id", sess.id,
		"mode", f.Mode().String(),
		"targets", len(targets),
		"poll_period", f.PollPeriod().String(),
		"age_18_plus", f.Age18Plus(),
		"age_45_plus", f.Age45Plus(),
	)

	sess.scheduler.Start(ctx)
	go m.consume(sess)

	// stop the session if the caller's context ends first
	go func() {
		select {
		case <-ctx.Done():
			m.stopSession(sess)
		case <-sess.scheduler.Done():
		}
	}()

	return sess, nil
}

// Stop ends the active session: the ticker is cancelled and the
// [Freezer] is unfrozen. The result list is kept. Queries already in flight
// are not cancelled; see [WithDiscardLateResults].
//
// Stop is a no-op when the monitor is idle.
func (m *Monitor) Stop() {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()

	if sess != nil {
		m.stopSession(sess)
	}
}

func (m *Monitor) stopSession(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !sess.markStopped(m.now()) {
		return
	}
	sess.scheduler.Stop()

	if m.freezer != nil {
		m.freezer.Unfreeze()
	}

	m.logger.Info("monitoring stopped",
		"session_id", sess.id,
		"matches", m.store.Len(),
	)
}

// State returns [StateActive] while a session is ticking.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil && m.session.Active() {
		return StateActive
	}
	return StateIdle
}

// Session returns the current or most recent session, or nil if the
// monitor was never started.
func (m *Monitor) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Matches returns a snapshot of the result list of the current or most
// recent session, in the order the matches were appended.
func (m *Monitor) Matches() []SlotMatch {
	stored := m.store.All()
	out := make([]SlotMatch, len(stored))
	for i, sm := range stored {
		out[i] = fromStoreMatch(sm)
	}
	return out
}

// fetch queries one target with the date of the current local day.
func (m *Monitor) fetch(ctx context.Context, t poller.Target) (*cowin.Calendar, error) {
	date := cowin.FormatDate(m.now())
	if t.PinCode != "" {
		return m.gateway.QueryByPinCode(ctx, t.PinCode, date)
	}
	return m.gateway.QueryByDistrict(ctx, t.DistrictID, date)
}

// consume is the single goroutine that appends a session's results.
func (m *Monitor) consume(sess *Session) {
	defer close(sess.done)

	alerted := newAlertedTicks()
	var seen map[string]struct{}
	if m.dedupe {
		seen = make(map[string]struct{})
	}

	for r := range sess.scheduler.Results() {
		m.handleResult(sess, r, alerted, seen)
	}
}

func (m *Monitor) handleResult(sess *Session, r poller.Result, alerted *alertedTicks, seen map[string]struct{}) {
	tr := TickResult{
		SessionID: sess.id,
		Tick:      r.Tick,
		Target:    r.Target.Name,
		Latency:   r.Latency,
		CheckedAt: r.CheckedAt,
		Err:       r.Error,
	}

	logAttrs := []any{
		"session_id", sess.id,
		"tick", r.Tick,
		"target", r.Target.Name,
		"latency_ms", r.Latency.Milliseconds(),
	}

	if r.Error != nil {
		m.logger.Warn("query failed", append(logAttrs, "error", r.Error.Error())...)
		m.invokeCallbacks(tr)
		return
	}

	matches := FilterMatches(r.Calendar, sess.filter)
	if seen != nil {
		matches = unseen(matches, seen)
	}

	appended := m.appendMatches(sess, r, matches)
	if seen != nil {
		for _, sm := range appended {
			seen[sm.Key()] = struct{}{}
		}
	}
	tr.Matches = appended

	m.logger.Debug("query completed", append(logAttrs, "matches", len(appended))...)

	if len(appended) > 0 {
		m.logger.Info("slots found", append(logAttrs, "matches", len(appended))...)
		if sess.filter.AlertEnabled() {
			m.alertOnce(sess, r.Tick, appended, alerted)
		}
	}

	m.invokeCallbacks(tr)
}

// appendMatches adds matches to the result list unless they belong to a
// superseded session or arrived late and late results are discarded.
// It returns what was appended.
func (m *Monitor) appendMatches(sess *Session, r poller.Result, matches []SlotMatch) []SlotMatch {
	if len(matches) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != sess {
		m.logger.Debug("results of superseded session dropped",
			"session_id", sess.id,
			"tick", r.Tick,
			"matches", len(matches),
		)
		return nil
	}
	if m.discardLate && !sess.Active() {
		m.logger.Debug("late results discarded",
			"session_id", sess.id,
			"tick", r.Tick,
			"matches", len(matches),
		)
		return nil
	}

	stored := make([]store.Match, len(matches))
	for i, sm := range matches {
		stored[i] = toStoreMatch(sm, r.Tick, r.CheckedAt)
	}
	m.store.Append(stored...)
	return matches
}

// alertedTicks remembers which recent ticks have alerted. Ticks more than
// alertedTickWindow behind the newest one are forgotten by raising the
// floor, and nothing below the floor alerts, so a straggler from a
// forgotten tick cannot alert twice.
type alertedTicks struct {
	seen  map[uint64]struct{}
	floor uint64
}

func newAlertedTicks() *alertedTicks {
	return &alertedTicks{seen: make(map[uint64]struct{})}
}

// first reports whether tick may alert, recording it if so.
func (a *alertedTicks) first(tick uint64) bool {
	if tick < a.floor {
		return false
	}
	if _, done := a.seen[tick]; done {
		return false
	}
	a.seen[tick] = struct{}{}

	if tick > alertedTickWindow && tick-alertedTickWindow > a.floor {
		a.floor = tick - alertedTickWindow
		for t := range a.seen {
			if t < a.floor {
				delete(a.seen, t)
			}
		}
	}
	return true
}

// alertOnce triggers the sink for the first result of a tick that appended
// matches; later results of the same tick do not alert again.
func (m *Monitor) alertOnce(sess *Session, tick uint64, matches []SlotMatch, alerted *alertedTicks) {
	if !alerted.first(tick) {
		return
	}

	if m.alertSink == nil {
		return
	}

	a := Alert{
		SessionID: sess.id,
		Tick:      tick,
		Matches:   append([]SlotMatch(nil), matches...),
		At:        m.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("alert sink panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"session_id", sess.id,
				"tick", tick,
			)
		}
	}()
	m.alertSink.Trigger(a)
}

func (m *Monitor) invokeCallbacks(tr TickResult) {
	for _, cb := range m.tickCallbacks {
		invokeCallbackSafe(cb, tr, m.logger)
	}
}

// invokeCallbackSafe calls a tick callback with panic recovery.
func invokeCallbackSafe(cb func(TickResult), tr TickResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tick callback panicked",
				"panic", r,
				"target", tr.Target,
				"tick", tr.Tick,
			)
		}
	}()

	// callbacks get their own copy of the matches
	tr.Matches = append([]SlotMatch(nil), tr.Matches...)
	cb(tr)
}

// unseen drops matches whose key is in seen or repeats within matches.
func unseen(matches []SlotMatch, seen map[string]struct{}) []SlotMatch {
	batch := make(map[string]struct{}, len(matches))
	out := matches[:0:0]
	for _, sm := range matches {
		k := sm.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		if _, ok := batch[k]; ok {
			continue
		}
		batch[k] = struct{}{}
		out = append(out, sm)
	}
	return out
}

func toStoreMatch(sm SlotMatch, tick uint64, foundAt time.Time) store.Match {
	return store.Match{
		CenterID:          sm.CenterID,
		CenterName:        sm.CenterName,
		Address:           sm.Address,
		District:          sm.District,
		PinCode:           sm.PinCode,
		FeeType:           sm.FeeType,
		SessionID:         sm.SessionID,
		Vaccine:           sm.Vaccine,
		Date:              sm.Date,
		MinAgeLimit:       sm.MinAgeLimit,
		AvailableCapacity: sm.AvailableCapacity,
		Tick:              tick,
		FoundAt:           foundAt,
	}
}

func fromStoreMatch(m store.Match) SlotMatch {
	return SlotMatch{
		CenterID:          m.CenterID,
		CenterName:        m.CenterName,
		Address:           m.Address,
		District:          m.District,
		PinCode:           m.PinCode,
		FeeType:           m.FeeType,
		SessionID:         m.SessionID,
		Vaccine:           m.Vaccine,
		Date:              m.Date,
		MinAgeLimit:       m.MinAgeLimit,
		AvailableCapacity: m.AvailableCapacity,
	}
}
