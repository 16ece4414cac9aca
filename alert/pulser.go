package alert

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/slotwatch"
)

const (
	defaultPulseCount    = 5
	defaultPulseInterval = time.Second
)

// Pulser runs a pulse function Count times, Interval apart, for every
// alert. Sequences of consecutive alerts may overlap.
type Pulser struct {
	pulse    func()
	count    int
	interval time.Duration
	logger   *slog.Logger
}

// PulserOption configures a [Pulser].
type PulserOption func(*Pulser) error

// WithCount sets how many pulses an alert produces. Defaults to 5.
func WithCount(n int) PulserOption {
	return func(p *Pulser) error {
		if n <= 0 {
			return errors.New("pulse count must be positive")
		}
		p.count = n
		return nil
	}
}

// WithInterval sets the delay between pulses. Defaults to 1 second.
func WithInterval(d time.Duration) PulserOption {
	return func(p *Pulser) error {
		if d <= 0 {
			return errors.New("pulse interval must be positive")
		}
		p.interval = d
		return nil
	}
}

// WithPulseLogger sets the logger receiving pulse panics. Defaults to
// [slog.Default].
func WithPulseLogger(logger *slog.Logger) PulserOption {
	return func(p *Pulser) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}

// NewPulser creates a [Pulser] for pulse.
func NewPulser(pulse func(), opts ...PulserOption) (*Pulser, error) {
	if pulse == nil {
		return nil, errors.New("pulse function cannot be nil")
	}

	p := &Pulser{
		pulse:    pulse,
		count:    defaultPulseCount,
		interval: defaultPulseInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Trigger schedules the pulses and returns immediately. The first pulse
// runs without delay.
func (p *Pulser) Trigger(a slotwatch.Alert) {
	for i := 0; i < p.count; i++ {
		time.AfterFunc(time.Duration(i)*p.interval, func() { p.safePulse(a) })
	}
}

func (p *Pulser) safePulse(a slotwatch.Alert) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("alert pulse panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"session_id", a.SessionID,
				"tick", a.Tick,
			)
		}
	}()
	p.pulse()
}

// Bell returns a pulse function that rings the terminal bell on w.
func Bell(w io.Writer) func() {
	return func() {
		_, _ = io.WriteString(w, "\a")
	}
}
