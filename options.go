package slotwatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jpalmerr/slotwatch/cowin"
)

// Gateway performs the remote availability queries. [*cowin.Gateway]
// implements it.
type Gateway interface {
	QueryByDistrict(ctx context.Context, districtID int, date string) (*cowin.Calendar, error)
	QueryByPinCode(ctx context.Context, pinCode, date string) (*cowin.Calendar, error)
}

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	gateway        Gateway
	logger         *slog.Logger
	alertSink      AlertSink
	freezer        Freezer
	tickCallbacks  []func(TickResult)
	maxConcurrency int
	dedupe         bool
	discardLate    bool
	clock          func() time.Time
}

// Option configures a [Monitor] during construction.
type Option func(*monitorConfig) error

// WithGateway sets the gateway used for queries. Defaults to a
// [cowin.Gateway] for the public API.
//
// Returns an error if the gateway is nil.
func WithGateway(g Gateway) Option {
	return func(cfg *monitorConfig) error {
		if g == nil {
			return errors.New("gateway cannot be nil")
		}
		cfg.gateway = g
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithAlertSink sets the sink triggered when a tick appends new matches and
// the filter has alerts enabled. Without a sink, alerts are only logged.
//
// Returns an error if the sink is nil.
func WithAlertSink(sink AlertSink) Option {
	return func(cfg *monitorConfig) error {
		if sink == nil {
			return errors.New("alert sink cannot be nil")
		}
		cfg.alertSink = sink
		return nil
	}
}

// WithFreezer registers the editor (usually the [Form] the filter came
// from) that is frozen while a session is active and unfrozen on stop.
func WithFreezer(f Freezer) Option {
	return func(cfg *monitorConfig) error {
		if f == nil {
			return errors.New("freezer cannot be nil")
		}
		cfg.freezer = f
		return nil
	}
}

// WithTickCallback registers a function called after every query of every
// tick, including failed ones.
//
// Callbacks run on the monitor's result goroutine, in registration order,
// and must not block. Panics are recovered and logged. Nil callbacks are
// ignored.
func WithTickCallback(cb func(TickResult)) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.tickCallbacks = append(cfg.tickCallbacks, cb)
		return nil
	}
}

// WithMaxConcurrency bounds the number of queries in flight. Defaults to 10.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *monitorConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithDeduplication drops matches whose [SlotMatch.Key] was already
// appended during the session. Off by default: every tick appends every
// match it finds, so a slot open for several ticks is listed once per tick.
func WithDeduplication(enabled bool) Option {
	return func(cfg *monitorConfig) error {
		cfg.dedupe = enabled
		return nil
	}
}

// WithDiscardLateResults drops results of queries that complete after
// [Monitor.Stop]. Off by default: in-flight queries are not cancelled by
// Stop and their matches are still appended to the stopped session.
func WithDiscardLateResults(enabled bool) Option {
	return func(cfg *monitorConfig) error {
		cfg.discardLate = enabled
		return nil
	}
}

// WithClock overrides time.Now, used for the query date and timestamps.
func WithClock(now func() time.Time) Option {
	return func(cfg *monitorConfig) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = now
		return nil
	}
}
