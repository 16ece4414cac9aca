package config

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/jpalmerr/slotwatch"
	"github.com/jpalmerr/slotwatch/alert"
	"github.com/jpalmerr/slotwatch/cowin"
)

// BuildForm converts the search criteria of cfg into a [slotwatch.Form].
//
// The form is returned even when its values are incomplete, together with
// the *[slotwatch.ValidationError] from its snapshot, so callers can report
// every failing field.
func BuildForm(cfg *Config) (*slotwatch.Form, error) {
	mode, err := slotwatch.ParseSearchMode(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("mode: %w", err)
	}

	form := slotwatch.NewForm()
	setters := []error{
		form.SetMode(mode),
		form.SetState(cfg.StateID),
		form.SetDistricts(cfg.DistrictIDs...),
		form.SetPinCode(cfg.PinCode.String()),
		form.SetAgeGroups(boolOr(cfg.Age18Plus, true), boolOr(cfg.Age45Plus, false)),
		form.SetAlertEnabled(boolOr(cfg.Alert, true)),
		form.SetPollPeriod(cfg.PollInterval.Duration()),
	}
	for _, err := range setters {
		if err != nil {
			return nil, err
		}
	}

	if _, err := form.Snapshot(); err != nil {
		return form, err
	}
	return form, nil
}

// BuildGateway creates the API gateway described by cfg.API.
func BuildGateway(cfg *Config) (*cowin.Gateway, error) {
	var opts []cowin.GatewayOption

	if cfg.API.BaseURL != "" {
		opts = append(opts, cowin.WithBaseURL(cfg.API.BaseURL))
	}
	if cfg.API.Timeout != 0 {
		opts = append(opts, cowin.WithRequestTimeout(cfg.API.Timeout.Duration()))
	}

	// sort keys for deterministic ordering
	keys := make([]string, 0, len(cfg.API.Headers))
	for k := range cfg.API.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts = append(opts, cowin.WithHeader(k, cfg.API.Headers[k]))
	}

	return cowin.NewGateway(opts...)
}

// BuildAlertSink creates the sinks described by cfg.Notify. Matches are
// always logged; the bell rings on bell when enabled.
func BuildAlertSink(cfg *Config, logger *slog.Logger, bell io.Writer) (alert.Multi, error) {
	n := cfg.Notify
	sinks := alert.Multi{
		Sinks:  []slotwatch.AlertSink{alert.Log{Logger: logger}},
		Logger: logger,
	}

	if boolOr(n.Bell, true) && bell != nil {
		opts := []alert.PulserOption{alert.WithPulseLogger(logger)}
		if n.Pulses > 0 {
			opts = append(opts, alert.WithCount(n.Pulses))
		}
		if n.PulseInterval > 0 {
			opts = append(opts, alert.WithInterval(n.PulseInterval.Duration()))
		}
		p, err := alert.NewPulser(alert.Bell(bell), opts...)
		if err != nil {
			return alert.Multi{}, fmt.Errorf("notify: %w", err)
		}
		sinks.Sinks = append(sinks.Sinks, p)
	}

	if n.Ntfy != nil {
		opts := []alert.NtfyOption{alert.WithNtfyLogger(logger)}
		if n.Ntfy.Server != "" {
			opts = append(opts, alert.WithNtfyServer(n.Ntfy.Server))
		}
		if n.Ntfy.Priority != 0 {
			opts = append(opts, alert.WithNtfyPriority(n.Ntfy.Priority))
		}
		if cfg.Title != "" {
			opts = append(opts, alert.WithNtfyTitle(cfg.Title))
		}
		s, err := alert.NewNtfy(n.Ntfy.Topic, opts...)
		if err != nil {
			return alert.Multi{}, fmt.Errorf("notify.ntfy: %w", err)
		}
		sinks.Sinks = append(sinks.Sinks, s)
	}

	if n.Email != nil {
		s, err := alert.NewEmail(alert.SMTPConfig{
			Host:     n.Email.Host,
			Port:     n.Email.Port,
			Username: n.Email.Username,
			Password: n.Email.Password,
			From:     n.Email.From,
			To:       n.Email.To,
		}, logger)
		if err != nil {
			return alert.Multi{}, fmt.Errorf("notify.email: %w", err)
		}
		sinks.Sinks = append(sinks.Sinks, s)
	}

	return sinks, nil
}

// MonitorOptions returns the monitor settings of cfg.
func MonitorOptions(cfg *Config) []slotwatch.Option {
	return []slotwatch.Option{
		slotwatch.WithMaxConcurrency(cfg.MaxConcurrency),
		slotwatch.WithDeduplication(cfg.Dedupe),
		slotwatch.WithDiscardLateResults(cfg.DiscardLateResults),
	}
}

// Targets describes what cfg monitors, e.g. "districts 363, 395 of state 21".
func Targets(cfg *Config) string {
	if cfg.Mode == string(slotwatch.ModePinCode) {
		return "pincode " + cfg.PinCode.String()
	}
	return fmt.Sprintf("districts %s of state %d", intsString(cfg.DistrictIDs), cfg.StateID)
}

// AlertChannels lists the enabled alert channels, for display.
func AlertChannels(cfg *Config) []string {
	channels := []string{"log"}
	if boolOr(cfg.Notify.Bell, true) {
		channels = append(channels, "bell")
	}
	if cfg.Notify.Ntfy != nil {
		channels = append(channels, "ntfy")
	}
	if cfg.Notify.Email != nil {
		channels = append(channels, "email")
	}
	return channels
}
