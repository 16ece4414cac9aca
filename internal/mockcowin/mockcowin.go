// Package mockcowin serves a fake appointment API for demos and manual
// testing of the CLI.
//
// Every center cycles between no capacity and a random capacity, changing
// every 20-60 seconds, so a monitor pointed at the handler eventually finds
// slots.
package mockcowin

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jpalmerr/slotwatch/cowin"
)

type district struct {
	id      int
	name    string
	stateID int
	pinCode string
}

var (
	states = []cowin.State{
		{StateID: 9, StateName: "Delhi"},
		{StateID: 16, StateName: "Karnataka"},
		{StateID: 21, StateName: "Maharashtra"},
	}

	districts = []district{
		{id: 140, name: "New Delhi", stateID: 9, pinCode: "110001"},
		{id: 145, name: "East Delhi", stateID: 9, pinCode: "110092"},
		{id: 265, name: "Bangalore Urban", stateID: 16, pinCode: "560001"},
		{id: 363, name: "Pune", stateID: 21, pinCode: "411001"},
		{id: 395, name: "Mumbai", stateID: 21, pinCode: "400001"},
	}

	vaccines = []string{"COVISHIELD", "COVAXIN", "SPUTNIK V"}
)

const centersPerDistrict = 3

// centerState tracks capacity and next change time for a single center.
type centerState struct {
	capacity     int
	nextChangeAt time.Time
}

// Server is the fake API. The zero value is not usable; call [New].
type Server struct {
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	centers map[int]*centerState
}

// New creates a fake API server logging capacity changes to logger.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:  logger,
		now:     time.Now,
		centers: make(map[int]*centerState),
	}
}

// Handler returns the API routes, rooted like the public API's /api/v2.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/appointment/sessions/public/calendarByDistrict", s.handleByDistrict)
	mux.HandleFunc("/appointment/sessions/public/calendarByPin", s.handleByPin)
	mux.HandleFunc("/admin/location/states", s.handleStates)
	mux.HandleFunc("/admin/location/districts/", s.handleDistricts)
	return mux
}

// ListenAndServe serves the fake API on addr until it fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleByDistrict(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("district_id"))
	if err != nil {
		http.Error(w, `{"error":"invalid district_id"}`, http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")

	for _, d := range districts {
		if d.id == id {
			s.writeJSON(w, s.calendar(d, date))
			return
		}
	}
	s.writeJSON(w, cowin.Calendar{Centers: []cowin.Center{}})
}

func (s *Server) handleByPin(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get("pincode")
	date := r.URL.Query().Get("date")

	for _, d := range districts {
		if d.pinCode == pin {
			s.writeJSON(w, s.calendar(d, date))
			return
		}
	}
	s.writeJSON(w, cowin.Calendar{Centers: []cowin.Center{}})
}

func (s *Server) handleStates(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]any{"states": states, "ttl": 24})
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	stateID, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/admin/location/districts/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	out := []cowin.District{}
	for _, d := range districts {
		if d.stateID == stateID {
			out = append(out, cowin.District{DistrictID: d.id, DistrictName: d.name})
		}
	}
	s.writeJSON(w, map[string]any{"districts": out, "ttl": 24})
}

func (s *Server) calendar(d district, date string) cowin.Calendar {
	if date == "" {
		date = cowin.FormatDate(s.now())
	}

	// simulate small latency variance
	time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

	cal := cowin.Calendar{}
	for i := 0; i < centersPerDistrict; i++ {
		centerID := d.id*100 + i
		capacity := s.capacity(centerID)

		minAge := 18
		if i%2 == 1 {
			minAge = 45
		}

		cal.Centers = append(cal.Centers, cowin.Center{
			CenterID:     centerID,
			Name:         fmt.Sprintf("%s UPHC %d", d.name, i+1),
			Address:      fmt.Sprintf("Ward %d", i+1),
			DistrictName: d.name,
			PinCode:      cowin.PinCode(d.pinCode),
			FeeType:      []string{"Free", "Paid"}[i%2],
			Sessions: []cowin.Session{{
				SessionID:         fmt.Sprintf("%d-%s", centerID, date),
				Date:              date,
				AvailableCapacity: float64(capacity),
				MinAgeLimit:       minAge,
				Vaccine:           vaccines[i%len(vaccines)],
				Slots:             []string{"09:00AM-11:00AM", "11:00AM-01:00PM"},
			}},
		})
	}
	return cal
}

// capacity returns the current capacity of a center, flipping it between
// zero and a random value when its change time is reached.
func (s *Server) capacity(centerID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st, ok := s.centers[centerID]
	if !ok {
		st = &centerState{nextChangeAt: now.Add(nextChange())}
		s.centers[centerID] = st
	}

	if now.After(st.nextChangeAt) {
		old := st.capacity
		if st.capacity == 0 {
			st.capacity = 1 + rand.Intn(50)
		} else {
			st.capacity = 0
		}
		st.nextChangeAt = now.Add(nextChange())
		s.logger.Info("capacity change", "center_id", centerID, "from", old, "to", st.capacity)
	}
	return st.capacity
}

// nextChange returns a delay of 20-60 seconds.
func nextChange() time.Duration {
	return time.Duration(20+rand.Intn(41)) * time.Second
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}
