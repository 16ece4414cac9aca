package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/slotwatch"
	"github.com/spf13/viper"
)

func setLogSettings(t *testing.T, level, format string) {
	t.Helper()
	t.Setenv("SLOTWATCH_LOG_LEVEL", level)
	t.Setenv("SLOTWATCH_LOG_FORMAT", format)
}

func TestNewLogger_JSON(t *testing.T) {
	setLogSettings(t, "warn", "json")

	var buf bytes.Buffer
	logger, err := newLogger(&buf)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown", "target", "Pune")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "shown" || rec["target"] != "Pune" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewLogger_Text(t *testing.T) {
	setLogSettings(t, "debug", "text")

	var buf bytes.Buffer
	logger, err := newLogger(&buf)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Debug("target checked", "tick", 3)

	out := buf.String()
	if !strings.Contains(out, "target checked") || !strings.Contains(out, "tick=3") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("non-terminal output should not be coloured: %q", out)
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	tests := []struct {
		name, level, format, wantErr string
	}{
		{"bad level", "loud", "text", "log level"},
		{"bad format", "info", "xml", "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setLogSettings(t, tt.level, tt.format)
			_, err := newLogger(&bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv("SLOTWATCH_LOG_FORMAT", "json")
	if got := viper.GetString("log-format"); got != "json" {
		t.Errorf("log-format = %q, want json from env", got)
	}
}

func TestVersion(t *testing.T) {
	output, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(output, "slotwatch dev") {
		t.Errorf("output = %q", output)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, nil)
	if !strings.Contains(buf.String(), "No slots found.") {
		t.Errorf("empty summary = %q", buf.String())
	}

	buf.Reset()
	printSummary(&buf, []slotwatch.SlotMatch{{
		CenterName:        "UPHC Kothrud",
		PinCode:           "411038",
		Vaccine:           "COVISHIELD",
		Date:              "10-05-2021",
		MinAgeLimit:       18,
		AvailableCapacity: 7,
		FeeType:           "Free",
	}})

	out := buf.String()
	for _, want := range []string{"1 slot(s) found", "UPHC Kothrud", "411038", "18+", "COVISHIELD"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

// blockingWaiter waits until release is closed.
type blockingWaiter struct {
	release chan struct{}
}

func (b blockingWaiter) Wait() { <-b.release }

func TestWaitForAlerts(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	done := blockingWaiter{release: make(chan struct{})}
	close(done.release)
	if !waitForAlerts(logger, done, time.Second) {
		t.Error("waitForAlerts() = false for finished sends")
	}

	stuck := blockingWaiter{release: make(chan struct{})}
	defer close(stuck.release)
	if waitForAlerts(logger, stuck, 20*time.Millisecond) {
		t.Error("waitForAlerts() = true for stuck sends")
	}
	if !strings.Contains(buf.String(), "pending alerts abandoned") {
		t.Errorf("log output = %q, want timeout warning", buf.String())
	}
}
