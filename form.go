package slotwatch

import (
	"sort"
	"sync"
	"time"
)

// Freezer is implemented by editors that a monitoring session holds
// read-only while it runs. [Form] implements it.
type Freezer interface {
	Freeze()
	Unfreeze()
}

// Form is the editable source of a [Filter].
//
// Validity is never stored: [Form.Errors] evaluates the rules returned by
// [ValidatorsFor] for the current mode on every call, so switching mode
// re-validates immediately and drops errors of the previous mode.
//
// A new Form starts in district mode with the 18+ group selected, the 45+
// group unselected, alerts on and a 20 second poll period.
//
// Form is safe for concurrent use.
type Form struct {
	mu     sync.Mutex
	v      filterValues
	frozen bool
}

// NewForm returns a Form with default values.
func NewForm() *Form {
	return &Form{
		v: filterValues{
			mode:         ModeDistrict,
			age18Plus:    true,
			alertEnabled: true,
			pollPeriod:   DefaultPollPeriod,
		},
	}
}

// SetMode switches the search mode. Switching is idempotent and performs no
// I/O; values of the inactive mode are kept so switching back restores them.
func (f *Form) SetMode(mode SearchMode) error {
	return f.update(func(v *filterValues) { v.mode = mode })
}

// SetState selects the state whose districts are monitored. Changing the
// state clears the district selection.
func (f *Form) SetState(stateID int) error {
	return f.update(func(v *filterValues) {
		if v.stateID != stateID {
			v.districtIDs = nil
		}
		v.stateID = stateID
	})
}

// SetDistricts replaces the district selection. Duplicates are dropped.
func (f *Form) SetDistricts(ids ...int) error {
	return f.update(func(v *filterValues) {
		seen := make(map[int]struct{}, len(ids))
		out := make([]int, 0, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
		sort.Ints(out)
		v.districtIDs = out
	})
}

// SetPinCode sets the pin code.
func (f *Form) SetPinCode(code string) error {
	return f.update(func(v *filterValues) { v.pinCode = code })
}

// SetAgeGroups selects the 18+ and 45+ age groups.
func (f *Form) SetAgeGroups(age18Plus, age45Plus bool) error {
	return f.update(func(v *filterValues) {
		v.age18Plus = age18Plus
		v.age45Plus = age45Plus
	})
}

// SetAlertEnabled toggles alerting on new matches.
func (f *Form) SetAlertEnabled(enabled bool) error {
	return f.update(func(v *filterValues) { v.alertEnabled = enabled })
}

// SetPollPeriod sets the interval between ticks; it must be one of
// [PollPeriods] to validate.
func (f *Form) SetPollPeriod(d time.Duration) error {
	return f.update(func(v *filterValues) { v.pollPeriod = d })
}

// Mode returns the current search mode.
func (f *Form) Mode() SearchMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v.mode
}

// Errors returns the failing fields under the current mode's rules.
func (f *Form) Errors() []FieldError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v.validate()
}

// Valid reports whether [Form.Errors] is empty.
func (f *Form) Valid() bool {
	return len(f.Errors()) == 0
}

// Snapshot returns an immutable [Filter] of the current values, or a
// *[ValidationError] listing every failing field.
func (f *Form) Snapshot() (Filter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if errs := f.v.validate(); len(errs) > 0 {
		return Filter{}, &ValidationError{Fields: errs}
	}

	v := f.v
	v.districtIDs = append([]int(nil), f.v.districtIDs...)
	return Filter{v: v}, nil
}

// Freeze makes every setter fail with [ErrFormFrozen].
func (f *Form) Freeze() {
	f.mu.Lock()
	f.frozen = true
	f.mu.Unlock()
}

// Unfreeze re-enables editing.
func (f *Form) Unfreeze() {
	f.mu.Lock()
	f.frozen = false
	f.mu.Unlock()
}

// Frozen reports whether the form is read-only.
func (f *Form) Frozen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frozen
}

func (f *Form) update(fn func(v *filterValues)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return ErrFormFrozen
	}
	fn(&f.v)
	return nil
}
