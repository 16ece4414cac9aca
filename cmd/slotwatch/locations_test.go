package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jpalmerr/slotwatch"
	"github.com/jpalmerr/slotwatch/cowin"
	"github.com/jpalmerr/slotwatch/internal/mockcowin"
)

func newMockAPI(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(mockcowin.New(slog.New(slog.NewTextHandler(io.Discard, nil))).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestStates(t *testing.T) {
	output, err := executeCmd(t, "states", "--api", newMockAPI(t))
	if err != nil {
		t.Fatalf("states command error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 states:\n%s", len(lines), output)
	}
	// sorted by name
	for i, name := range []string{"Delhi", "Karnataka", "Maharashtra"} {
		if !strings.Contains(lines[i+1], name) {
			t.Errorf("line %d = %q, want %s", i+1, lines[i+1], name)
		}
	}
	if !strings.HasPrefix(lines[3], "21") {
		t.Errorf("Maharashtra line = %q, want id 21", lines[3])
	}
}

func TestDistricts(t *testing.T) {
	output, err := executeCmd(t, "districts", "21", "--api", newMockAPI(t))
	if err != nil {
		t.Fatalf("districts command error = %v", err)
	}

	for _, want := range []string{"363", "Pune", "395", "Mumbai"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "New Delhi") {
		t.Errorf("output lists districts of another state:\n%s", output)
	}
}

func TestDistricts_InvalidStateID(t *testing.T) {
	_, err := executeCmd(t, "districts", "maharashtra", "--api", newMockAPI(t))
	if err == nil || !strings.Contains(err.Error(), "invalid state id") {
		t.Errorf("error = %v, want invalid state id", err)
	}
}

func TestStates_Unreachable(t *testing.T) {
	_, err := executeCmd(t, "states", "--api", "http://127.0.0.1:1")
	if err == nil || !strings.Contains(err.Error(), "failed to list states") {
		t.Errorf("error = %v, want list failure", err)
	}
}

func newMockDirectory(t *testing.T) *cowin.Directory {
	t.Helper()
	g, err := cowin.NewGateway(cowin.WithBaseURL(newMockAPI(t)))
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	t.Cleanup(g.Close)
	return cowin.NewDirectory(g)
}

func TestDescribeDistricts(t *testing.T) {
	dir := newMockDirectory(t)

	names, unknown, err := describeDistricts(context.Background(), dir, 21, []int{363, 395, 9999})
	if err != nil {
		t.Fatalf("describeDistricts() error = %v", err)
	}
	if names != "Pune, Mumbai, district 9999 (Maharashtra)" {
		t.Errorf("names = %q", names)
	}
	if len(unknown) != 1 || unknown[0] != 9999 {
		t.Errorf("unknown = %v, want [9999]", unknown)
	}
}

func TestLogDistricts(t *testing.T) {
	form := slotwatch.NewForm()
	if err := form.SetState(21); err != nil {
		t.Fatal(err)
	}
	if err := form.SetDistricts(363); err != nil {
		t.Fatal(err)
	}
	filter, err := form.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logDistricts(context.Background(), logger, newMockDirectory(t), filter)

	if !strings.Contains(buf.String(), "districts=\"Pune (Maharashtra)\"") {
		t.Errorf("log output = %q, want resolved district name", buf.String())
	}
	if strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("unexpected warning: %q", buf.String())
	}
}
