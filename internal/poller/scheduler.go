package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/slotwatch/cowin"
)

const defaultMaxConcurrency = 10

// Target is a single query subject of a tick: one district or one pin code.
type Target struct {
	// Name is a human-readable label used in logs, e.g. "district 395".
	Name string

	// DistrictID is set for district targets.
	DistrictID int

	// PinCode is set for pin code targets.
	PinCode string
}

// Fetcher performs the remote query for one target.
type Fetcher func(ctx context.Context, t Target) (*cowin.Calendar, error)

// TickerFunc creates a ticker firing every d. It returns the tick channel
// and a function that stops the ticker.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// Result holds the outcome of querying a single target.
type Result struct {
	// Tick is the tick that dispatched the query; tick 0 is the immediate
	// query on start.
	Tick uint64

	// Target is the queried target.
	Target Target

	// Calendar is the decoded payload, nil when Error is set.
	Calendar *cowin.Calendar

	// Latency is the time taken by the fetcher.
	Latency time.Duration

	// CheckedAt is when the query completed.
	CheckedAt time.Time

	// Error is any error returned by the fetcher, including recovered panics.
	Error error
}

// Config configures a [Scheduler].
type Config struct {
	// Targets are queried on every tick.
	Targets []Target

	// Interval is the time between ticks.
	Interval time.Duration

	// MaxConcurrency bounds the number of queries in flight. Defaults to 10.
	MaxConcurrency int

	// Fetch performs the query for one target.
	Fetch Fetcher

	// Logger receives panic reports.
	Logger *slog.Logger

	// NewTicker overrides time.NewTicker.
	NewTicker TickerFunc
}

// Scheduler dispatches per-target queries on a fixed interval.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	targets   []Target
	interval  time.Duration
	fetch     Fetcher
	logger    *slog.Logger
	newTicker TickerFunc
	sem       chan struct{}
	results   chan Result

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	loopDone chan struct{}

	inflight  sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// NewScheduler creates a [Scheduler]. It does nothing until
// [Scheduler.Start] is called.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		}
	}

	return &Scheduler{
		targets:   cfg.Targets,
		interval:  cfg.Interval,
		fetch:     cfg.Fetch,
		logger:    cfg.Logger,
		newTicker: cfg.NewTicker,
		sem:       make(chan struct{}, cfg.MaxConcurrency),
		results:   make(chan Result, len(cfg.Targets)),
		loopDone:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Results returns the channel of query results. It is closed after the
// scheduler has stopped and every dispatched query has been delivered.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Done is closed together with the results channel.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Start runs tick 0 immediately and then ticks every interval in a
// background goroutine.
//
// ctx bounds the scheduler and every query it dispatches: cancelling it
// stops ticking and cancels in-flight queries. Start is idempotent; if Stop
// was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	tickCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer close(s.loopDone)

		s.dispatch(ctx, 0)

		ticks, stop := s.newTicker(s.interval)
		defer stop()

		var tick uint64
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticks:
				tick++
				s.dispatch(ctx, tick)
			}
		}
	}()

	go func() {
		<-s.loopDone
		s.inflight.Wait()
		s.finish()
	}()
}

// Stop stops the ticker and waits for the tick loop to exit. It does not
// wait for, or cancel, queries that are already in flight.
//
// Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasStarted := s.started
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	if !wasStarted {
		s.finish()
		return
	}
	<-s.loopDone
}

func (s *Scheduler) finish() {
	s.closeOnce.Do(func() {
		close(s.results)
		close(s.done)
	})
}

// dispatch starts one query goroutine per target and returns immediately.
func (s *Scheduler) dispatch(ctx context.Context, tick uint64) {
	for _, t := range s.targets {
		s.inflight.Add(1)
		go func(t Target) {
			defer s.inflight.Done()

			select {
			case s.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			result := s.query(ctx, tick, t)
			<-s.sem

			select {
			case s.results <- result:
			case <-ctx.Done():
			}
		}(t)
	}
}

func (s *Scheduler) query(ctx context.Context, tick uint64, t Target) Result {
	start := time.Now()
	cal, err := s.safeFetch(ctx, t)
	return Result{
		Tick:      tick,
		Target:    t,
		Calendar:  cal,
		Latency:   time.Since(start),
		CheckedAt: time.Now(),
		Error:     err,
	}
}

// safeFetch calls the fetcher with panic recovery. A panic is logged with a
// correlation id and reported as the query's error.
func (s *Scheduler) safeFetch(ctx context.Context, t Target) (cal *cowin.Calendar, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("fetcher panic",
				"correlation_id", correlationID,
				"target", t.Name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			cal = nil
			err = fmt.Errorf("fetcher panic (correlation_id: %s)", correlationID)
		}
	}()
	return s.fetch(ctx, t)
}
