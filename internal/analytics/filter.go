package analytics

import (
	"time"

	"storepulse/pkg/contracts/domain"
)

// FilterParams describes one filter interaction: an inclusive date range and
// an optional selection at each level of the region > state > city hierarchy.
type FilterParams struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Regions []string  `json:"regions,omitempty"`
	States  []string  `json:"states,omitempty"`
	Cities  []string  `json:"cities,omitempty"`
}

// ApplyFilters derives the working set for the given parameters.
//
// Date bounds are inclusive and validated: a start after the end returns
// ErrInvalidRange. A zero bound is unbounded on that side, so the zero
// FilterParams selects every record. The hierarchical selection follows
// most-specific-wins
// precedence: a non-empty city selection decides the working set outright,
// otherwise a non-empty state selection, otherwise a non-empty region
// selection, otherwise no geographic restriction. An empty selection at a
// level means "no restriction at that level".
//
// The input records are never mutated; the returned working set is a fresh
// slice owned by the caller.
func ApplyFilters(records []domain.Record, p FilterParams) (domain.WorkingSet, error) {
	if !p.Start.IsZero() && !p.End.IsZero() && p.Start.After(p.End) {
		return nil, ErrInvalidRange
	}

	inRange := make(domain.WorkingSet, 0, len(records))
	for _, r := range records {
		if !p.Start.IsZero() && r.OrderDate.Before(p.Start) {
			continue
		}
		if !p.End.IsZero() && r.OrderDate.After(p.End) {
			continue
		}
		inRange = append(inRange, r)
	}

	switch {
	case len(p.Cities) > 0:
		return selectWhere(inRange, p.Cities, func(r domain.Record) string { return r.City }), nil
	case len(p.States) > 0:
		return selectWhere(inRange, p.States, func(r domain.Record) string { return r.State }), nil
	case len(p.Regions) > 0:
		return selectWhere(inRange, p.Regions, func(r domain.Record) string { return r.Region }), nil
	default:
		return inRange, nil
	}
}

// selectWhere keeps the records whose key is one of the selected values
func selectWhere(ws domain.WorkingSet, selected []string, key func(domain.Record) string) domain.WorkingSet {
	allowed := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		allowed[s] = struct{}{}
	}

	out := make(domain.WorkingSet, 0, len(ws))
	for _, r := range ws {
		if _, ok := allowed[key(r)]; ok {
			out = append(out, r)
		}
	}
	return out
}

// DistinctValues returns the distinct values of the given dimension in
// first-seen order. The dashboard uses this to populate the cascading
// filter choices (states within the selected regions, cities within the
// selected states).
func DistinctValues(ws domain.WorkingSet, key func(domain.Record) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range ws {
		v := key(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
