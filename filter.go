package slotwatch

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jpalmerr/slotwatch/internal/poller"
)

// SearchMode selects which part of the filter drives the queries.
type SearchMode string

const (
	// ModeDistrict queries every selected district of a state.
	ModeDistrict SearchMode = "district"

	// ModePinCode queries a single 6-digit pin code.
	ModePinCode SearchMode = "pincode"
)

// String returns the string representation of the mode.
func (m SearchMode) String() string {
	return string(m)
}

// ParseSearchMode converts "district" or "pincode" to a [SearchMode].
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(s) {
	case ModeDistrict, ModePinCode:
		return SearchMode(s), nil
	default:
		return "", fmt.Errorf("unknown search mode %q (expected %q or %q)", s, ModeDistrict, ModePinCode)
	}
}

// PollPeriods are the selectable intervals between ticks.
var PollPeriods = []time.Duration{
	20 * time.Second,
	30 * time.Second,
	45 * time.Second,
	90 * time.Second,
	120 * time.Second,
	180 * time.Second,
}

// DefaultPollPeriod is the period a new [Form] starts with.
const DefaultPollPeriod = 20 * time.Second

const pinCodeLength = 6

// Rule validates one field value.
type Rule[T any] func(T) error

// FieldRules holds the rules applied to each form field for a mode.
// An empty list means the field is not validated in that mode.
type FieldRules struct {
	State      []Rule[int]
	Districts  []Rule[[]int]
	PinCode    []Rule[string]
	PollPeriod []Rule[time.Duration]
}

// ValidatorsFor returns the validation rules of mode. It is a pure
// function; switching mode means re-validating with the new mode's rules,
// so the inactive field never keeps an error from the previous mode.
func ValidatorsFor(mode SearchMode) FieldRules {
	rules := FieldRules{
		PollPeriod: []Rule[time.Duration]{pollPeriodAllowed},
	}

	switch mode {
	case ModeDistrict:
		rules.State = []Rule[int]{stateRequired}
		rules.Districts = []Rule[[]int]{districtsRequired, districtIDsPositive}
	case ModePinCode:
		rules.PinCode = []Rule[string]{pinCodeRequired, pinCodeLengthExact, pinCodeDigits}
	}

	return rules
}

func stateRequired(id int) error {
	if id <= 0 {
		return errors.New("a state is required")
	}
	return nil
}

func districtsRequired(ids []int) error {
	if len(ids) == 0 {
		return errors.New("at least one district is required")
	}
	return nil
}

func districtIDsPositive(ids []int) error {
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("invalid district id %d", id)
		}
	}
	return nil
}

func pinCodeRequired(code string) error {
	if code == "" {
		return errors.New("a pin code is required")
	}
	return nil
}

func pinCodeLengthExact(code string) error {
	if len(code) != pinCodeLength {
		return fmt.Errorf("pin code must be %d characters, got %d", pinCodeLength, len(code))
	}
	return nil
}

func pinCodeDigits(code string) error {
	for _, r := range code {
		if r < '0' || r > '9' {
			return errors.New("pin code must contain digits only")
		}
	}
	return nil
}

func pollPeriodAllowed(d time.Duration) error {
	for _, p := range PollPeriods {
		if d == p {
			return nil
		}
	}
	return fmt.Errorf("poll period %s is not one of %v", d, PollPeriods)
}

// filterValues is the field set shared by Form and Filter.
type filterValues struct {
	mode         SearchMode
	stateID      int
	districtIDs  []int
	pinCode      string
	age18Plus    bool
	age45Plus    bool
	alertEnabled bool
	pollPeriod   time.Duration
}

func (v filterValues) validate() []FieldError {
	var errs []FieldError

	if _, err := ParseSearchMode(string(v.mode)); err != nil {
		errs = append(errs, FieldError{Field: "mode", Message: err.Error()})
	}

	rules := ValidatorsFor(v.mode)
	errs = check(errs, "state", rules.State, v.stateID)
	errs = check(errs, "districts", rules.Districts, v.districtIDs)
	errs = check(errs, "pincode", rules.PinCode, v.pinCode)
	errs = check(errs, "poll_period", rules.PollPeriod, v.pollPeriod)
	return errs
}

// check appends the first failing rule of a field, if any.
func check[T any](errs []FieldError, field string, rules []Rule[T], value T) []FieldError {
	for _, rule := range rules {
		if err := rule(value); err != nil {
			return append(errs, FieldError{Field: field, Message: err.Error()})
		}
	}
	return errs
}

// Filter is an immutable snapshot of the search criteria of a monitoring
// session. Obtain one from [Form.Snapshot].
//
// Exactly one of the district selection and the pin code is active,
// determined by [Filter.Mode]; the inactive one is carried but ignored.
type Filter struct {
	v filterValues
}

// Mode returns the active search mode.
func (f Filter) Mode() SearchMode { return f.v.mode }

// StateID returns the selected state (district mode).
func (f Filter) StateID() int { return f.v.stateID }

// DistrictIDs returns a copy of the selected districts (district mode).
func (f Filter) DistrictIDs() []int { return append([]int(nil), f.v.districtIDs...) }

// PinCode returns the pin code (pin code mode).
func (f Filter) PinCode() string { return f.v.pinCode }

// Age18Plus reports whether sessions for the 18+ group are wanted.
func (f Filter) Age18Plus() bool { return f.v.age18Plus }

// Age45Plus reports whether sessions for the 45+ group are wanted.
func (f Filter) Age45Plus() bool { return f.v.age45Plus }

// AlertEnabled reports whether new matches should trigger the alert sink.
func (f Filter) AlertEnabled() bool { return f.v.alertEnabled }

// PollPeriod returns the interval between ticks.
func (f Filter) PollPeriod() time.Duration { return f.v.pollPeriod }

// Validate returns a *[ValidationError] if the filter is incomplete. The
// zero Filter is invalid.
func (f Filter) Validate() error {
	if errs := f.v.validate(); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// targets returns one query target per selected district, or the single
// pin code target.
func (f Filter) targets() []poller.Target {
	if f.v.mode == ModePinCode {
		return []poller.Target{{Name: "pincode " + f.v.pinCode, PinCode: f.v.pinCode}}
	}

	out := make([]poller.Target, 0, len(f.v.districtIDs))
	for _, id := range f.v.districtIDs {
		out = append(out, poller.Target{Name: "district " + strconv.Itoa(id), DistrictID: id})
	}
	return out
}
