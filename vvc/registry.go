package vvc

import "sort"

// ParameterSet is a parsed SPS together with the unit it came from. Err is
// set when the payload could not be parsed; such sets are listed but never
// registered.
type ParameterSet struct {
	Index int
	Range FileRange
	Info  SPSInfo
	Err   error
}

// Registry maps SPS ids to the most recently parsed set with that id.
// Registering an id again silently replaces the entry; the replaced
// *ParameterSet stays valid for anyone else holding it.
type Registry struct {
	active map[uint8]*ParameterSet
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[uint8]*ParameterSet)}
}

// Register inserts ps under ps.Info.ID, replacing any previous entry.
func (r *Registry) Register(ps *ParameterSet) {
	r.active[ps.Info.ID] = ps
}

// Lookup returns the active parameter set for id.
func (r *Registry) Lookup(id uint8) (*ParameterSet, bool) {
	ps, ok := r.active[id]
	return ps, ok
}

// Len returns the number of distinct ids registered.
func (r *Registry) Len() int {
	return len(r.active)
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []uint8 {
	ids := make([]uint8, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
