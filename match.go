package slotwatch

import (
	"math"
	"strconv"

	"github.com/jpalmerr/slotwatch/cowin"
)

// SlotMatch is an appointment session that passed the age-group filters and
// has positive remaining capacity. SlotMatch is an immutable value.
type SlotMatch struct {
	CenterID    int
	CenterName  string
	Address     string
	District    string
	PinCode     string
	FeeType     string
	SessionID   string
	Vaccine     string
	Date        string
	MinAgeLimit int

	// AvailableCapacity is the API's capacity rounded to the nearest
	// integer, always positive.
	AvailableCapacity int
}

// Key identifies the (facility, session, date) triple of the match. Two
// matches with the same key describe the same offering, possibly with a
// different capacity.
func (m SlotMatch) Key() string {
	session := m.SessionID
	if session == "" {
		session = m.Vaccine + "/" + strconv.Itoa(m.MinAgeLimit)
	}
	return strconv.Itoa(m.CenterID) + "|" + m.PinCode + "|" + session + "|" + m.Date
}

// FilterMatches returns every session of cal that the filter accepts, in
// center order then session order. It is a pure function of its inputs.
//
// A session is dropped when its minimum age is 18 and the 18+ group is not
// selected, when its minimum age is 45 or more and the 45+ group is not
// selected, or when its capacity rounds to zero or less. Rounding is half
// away from zero, so 2.5 becomes 3 and 0.4 becomes 0.
func FilterMatches(cal *cowin.Calendar, f Filter) []SlotMatch {
	if cal == nil {
		return nil
	}

	var out []SlotMatch
	for _, c := range cal.Centers {
		for _, s := range c.Sessions {
			if !f.Age18Plus() && s.MinAgeLimit == 18 {
				continue
			}
			if !f.Age45Plus() && s.MinAgeLimit >= 45 {
				continue
			}

			capacity := roundCapacity(s.AvailableCapacity)
			if capacity <= 0 {
				continue
			}

			out = append(out, SlotMatch{
				CenterID:          c.CenterID,
				CenterName:        c.Name,
				Address:           c.Address,
				District:          c.DistrictName,
				PinCode:           c.PinCode.String(),
				FeeType:           c.FeeType,
				SessionID:         s.SessionID,
				Vaccine:           s.Vaccine,
				Date:              s.Date,
				MinAgeLimit:       s.MinAgeLimit,
				AvailableCapacity: capacity,
			})
		}
	}
	return out
}

func roundCapacity(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r := math.Round(v)
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold
	if r >= float64(math.MaxInt) {
		return math.MaxInt
	}
	if r <= float64(math.MinInt) {
		return math.MinInt
	}
	return int(r)
}
