package cowin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// LocationSource fetches reference location data. [Gateway] implements it.
type LocationSource interface {
	States(ctx context.Context) ([]State, error)
	Districts(ctx context.Context, stateID int) ([]District, error)
}

// Directory caches the state -> district hierarchy for the lifetime of a
// session. Each list is fetched at most once on success; failed fetches are
// not cached so the next call tries again.
//
// Directory is safe for concurrent use.
type Directory struct {
	src LocationSource

	mu        sync.Mutex
	states    []State
	loaded    bool
	districts map[int][]District

	// States and districts are numbered independently; id 3 may name both.
	stateByID    map[int]Location
	districtByID map[int]Location
}

// NewDirectory creates an empty [Directory] backed by src.
func NewDirectory(src LocationSource) *Directory {
	return &Directory{
		src:       src,
		districts:    make(map[int][]District),
		stateByID:    make(map[int]Location),
		districtByID: make(map[int]Location),
	}
}

// States returns all states sorted by name.
func (d *Directory) States(ctx context.Context) ([]State, error) {
	d.mu.Lock()
	if d.loaded {
		out := append([]State(nil), d.states...)
		d.mu.Unlock()
		return out, nil
	}
	d.mu.Unlock()

	states, err := d.src.States(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(states, func(i, j int) bool { return states[i].StateName < states[j].StateName })

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		d.states = states
		d.loaded = true
		for _, s := range states {
			d.stateByID[s.StateID] = Location{ID: s.StateID, Name: s.StateName, Kind: KindState}
		}
	}
	return append([]State(nil), d.states...), nil
}

// Districts returns the districts of stateID sorted by name.
func (d *Directory) Districts(ctx context.Context, stateID int) ([]District, error) {
	d.mu.Lock()
	if cached, ok := d.districts[stateID]; ok {
		out := append([]District(nil), cached...)
		d.mu.Unlock()
		return out, nil
	}
	d.mu.Unlock()

	districts, err := d.src.Districts(ctx, stateID)
	if err != nil {
		return nil, err
	}
	sort.Slice(districts, func(i, j int) bool { return districts[i].DistrictName < districts[j].DistrictName })

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.districts[stateID]; !ok {
		d.districts[stateID] = districts
		for _, dist := range districts {
			d.districtByID[dist.DistrictID] = Location{
				ID:       dist.DistrictID,
				ParentID: stateID,
				Name:     dist.DistrictName,
				Kind:     KindDistrict,
			}
		}
	}
	return append([]District(nil), d.districts[stateID]...), nil
}

// State returns a previously fetched state by id.
func (d *Directory) State(id int) (Location, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	loc, ok := d.stateByID[id]
	return loc, ok
}

// District returns a previously fetched district by id.
func (d *Directory) District(id int) (Location, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	loc, ok := d.districtByID[id]
	return loc, ok
}

// DistrictName resolves a district id for display, falling back to the
// numeric id when the district has not been fetched.
func (d *Directory) DistrictName(id int) string {
	if loc, ok := d.District(id); ok {
		return loc.Name
	}
	return fmt.Sprintf("district %d", id)
}
