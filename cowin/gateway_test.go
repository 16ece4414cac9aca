package cowin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	g, err := NewGateway(WithBaseURL(ts.URL), WithRequestTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func TestGateway_QueryByDistrict(t *testing.T) {
	var gotPath, gotDistrict, gotDate, gotUA string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDistrict = r.URL.Query().Get("district_id")
		gotDate = r.URL.Query().Get("date")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"centers":[{"center_id":1,"name":"PHC","address":"Main Rd","pincode":400001,
			"sessions":[{"session_id":"s1","date":"15-10-2026","available_capacity":3,"min_age_limit":18,"vaccine":"COVISHIELD"}]}]}`))
	})

	cal, err := g.QueryByDistrict(context.Background(), 395, "15-10-2026")
	if err != nil {
		t.Fatalf("QueryByDistrict() error = %v", err)
	}

	if gotPath != "/appointment/sessions/public/calendarByDistrict" {
		t.Errorf("path = %q", gotPath)
	}
	if gotDistrict != "395" {
		t.Errorf("district_id = %q, want 395", gotDistrict)
	}
	if gotDate != "15-10-2026" {
		t.Errorf("date = %q, want 15-10-2026", gotDate)
	}
	if gotUA == "" {
		t.Error("User-Agent header should be set")
	}

	if len(cal.Centers) != 1 {
		t.Fatalf("len(Centers) = %d, want 1", len(cal.Centers))
	}
	c := cal.Centers[0]
	if c.PinCode != "400001" {
		t.Errorf("PinCode = %q, want 400001", c.PinCode)
	}
	if len(c.Sessions) != 1 || c.Sessions[0].Vaccine != "COVISHIELD" {
		t.Errorf("Sessions = %+v", c.Sessions)
	}
}

func TestGateway_QueryByPinCode(t *testing.T) {
	var gotPin string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appointment/sessions/public/calendarByPin" {
			http.NotFound(w, r)
			return
		}
		gotPin = r.URL.Query().Get("pincode")
		_, _ = w.Write([]byte(`{"centers":[]}`))
	})

	cal, err := g.QueryByPinCode(context.Background(), "110001", "01-01-2027")
	if err != nil {
		t.Fatalf("QueryByPinCode() error = %v", err)
	}
	if gotPin != "110001" {
		t.Errorf("pincode = %q, want 110001", gotPin)
	}
	if len(cal.Centers) != 0 {
		t.Errorf("len(Centers) = %d, want 0", len(cal.Centers))
	}
}

func TestGateway_MissingFieldsAreZeroMatches(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	cal, err := g.QueryByPinCode(context.Background(), "110001", "01-01-2027")
	if err != nil {
		t.Fatalf("QueryByPinCode() error = %v", err)
	}
	if cal == nil || len(cal.Centers) != 0 {
		t.Errorf("Calendar = %+v, want empty", cal)
	}
}

func TestGateway_TransportErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>blocked</html>`))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"centers":"nope"}`))
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, tt.handler)

			_, err := g.QueryByDistrict(context.Background(), 1, "01-01-2027")
			if err == nil {
				t.Fatal("QueryByDistrict() expected error, got nil")
			}

			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("error = %T, want *TransportError", err)
			}
			if te.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", te.StatusCode, tt.wantStatus)
			}
			if te.Op != "calendarByDistrict" {
				t.Errorf("Op = %q, want calendarByDistrict", te.Op)
			}
		})
	}
}

func TestGateway_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := ts.URL
	ts.Close()

	g, err := NewGateway(WithBaseURL(baseURL))
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	_, err = g.QueryByPinCode(context.Background(), "110001", "01-01-2027")
	if !IsTransportError(err) {
		t.Fatalf("error = %v, want TransportError", err)
	}
}

func TestGateway_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	g, err := NewGateway(WithBaseURL(ts.URL), WithRequestTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	_, err = g.QueryByDistrict(context.Background(), 1, "01-01-2027")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want wrapped context.DeadlineExceeded", err)
	}
}

func TestGateway_Locations(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/admin/location/states":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"states": []State{{StateID: 21, StateName: "Maharashtra"}},
			})
		case strings.HasPrefix(r.URL.Path, "/admin/location/districts/21"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"districts": []District{{DistrictID: 395, DistrictName: "Mumbai"}},
			})
		default:
			http.NotFound(w, r)
		}
	})

	states, err := g.States(context.Background())
	if err != nil {
		t.Fatalf("States() error = %v", err)
	}
	if len(states) != 1 || states[0].StateName != "Maharashtra" {
		t.Errorf("States() = %+v", states)
	}

	districts, err := g.Districts(context.Background(), 21)
	if err != nil {
		t.Fatalf("Districts() error = %v", err)
	}
	if len(districts) != 1 || districts[0].DistrictID != 395 {
		t.Errorf("Districts() = %+v", districts)
	}
}

func TestNewGateway_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  GatewayOption
	}{
		{"ftp base url", WithBaseURL("ftp://example.com")},
		{"zero timeout", WithRequestTimeout(0)},
		{"nil client", WithHTTPClient(nil)},
		{"empty header", WithHeader("", "x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGateway(tt.opt); err == nil {
				t.Error("NewGateway() expected error, got nil")
			}
		})
	}
}

func TestPinCode_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want PinCode
	}{
		{`{"pincode":400001}`, "400001"},
		{`{"pincode":"110001"}`, "110001"},
		{`{"pincode":null}`, ""},
		{`{}`, ""},
	}

	for _, tt := range tests {
		var c Center
		if err := json.Unmarshal([]byte(tt.in), &c); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
		}
		if c.PinCode != tt.want {
			t.Errorf("Unmarshal(%s) PinCode = %q, want %q", tt.in, c.PinCode, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2026, time.March, 7, 23, 59, 0, 0, time.Local)
	if got := FormatDate(ts); got != "07-03-2026" {
		t.Errorf("FormatDate() = %q, want 07-03-2026", got)
	}
}
