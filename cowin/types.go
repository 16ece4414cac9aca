package cowin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// dateLayout is the DD-MM-YYYY layout the appointment API expects.
const dateLayout = "02-01-2006"

// FormatDate formats t as DD-MM-YYYY in the local calendar.
//
// Callers should compute the date for every request rather than caching it,
// so polling across midnight queries the new day.
func FormatDate(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// Calendar is the payload returned by the calendarByDistrict and
// calendarByPin endpoints.
//
// Every field may be absent in the response. A missing centers list decodes
// as an empty slice and is treated as zero matches, not as an error.
type Calendar struct {
	Centers []Center `json:"centers"`
}

// Center is a vaccination facility with its upcoming sessions.
type Center struct {
	CenterID     int       `json:"center_id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	StateName    string    `json:"state_name"`
	DistrictName string    `json:"district_name"`
	BlockName    string    `json:"block_name"`
	PinCode      PinCode   `json:"pincode"`
	FeeType      string    `json:"fee_type"`
	Sessions     []Session `json:"sessions"`
}

// Session is a single appointment offering at a center on a given date.
type Session struct {
	SessionID         string   `json:"session_id"`
	Date              string   `json:"date"`
	AvailableCapacity float64  `json:"available_capacity"`
	MinAgeLimit       int      `json:"min_age_limit"`
	Vaccine           string   `json:"vaccine"`
	Slots             []string `json:"slots"`
}

// PinCode is a postal code that the API encodes either as a JSON number or
// as a JSON string depending on the endpoint.
type PinCode string

// UnmarshalJSON accepts both 400001 and "400001".
func (p *PinCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PinCode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pincode must be a string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*p = PinCode(strconv.FormatInt(i, 10))
		return nil
	}
	*p = PinCode(n.String())
	return nil
}

// String returns the pin code as text.
func (p PinCode) String() string {
	return string(p)
}

// State is a top-level region returned by /admin/location/states.
type State struct {
	StateID   int    `json:"state_id"`
	StateName string `json:"state_name"`
}

// District is a sub-region returned by /admin/location/districts/{stateId}.
type District struct {
	DistrictID   int    `json:"district_id"`
	DistrictName string `json:"district_name"`
}

type statesResponse struct {
	States []State `json:"states"`
}

type districtsResponse struct {
	Districts []District `json:"districts"`
}

// LocationKind distinguishes states from districts in the [Directory].
type LocationKind string

const (
	// KindState marks a top-level region.
	KindState LocationKind = "state"

	// KindDistrict marks a sub-region of a state.
	KindDistrict LocationKind = "district"
)

// Location is a node of the state -> district hierarchy.
//
// ParentID is zero for states and the owning state id for districts.
type Location struct {
	ID       int          `json:"id"`
	ParentID int          `json:"parent_id,omitempty"`
	Name     string       `json:"name"`
	Kind     LocationKind `json:"kind"`
}
