package track

import "sort"

// Zone is a value attached to the half-open distance interval [Start, End)
// along an edge.
type Zone[T any] struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Value T       `json:"value" yaml:"value"`
}

// Contains reports whether s falls inside the zone.
func (z Zone[T]) Contains(s float64) bool {
	return s >= z.Start && s < z.End
}

// ZoneSet holds the zones of one property in start order. Zones may overlap;
// among zones containing a distance the last one wins.
type ZoneSet[T any] []Zone[T]

// Sorted returns a copy ordered by start. Zones with equal starts keep
// their declaration order.
func (zs ZoneSet[T]) Sorted() ZoneSet[T] {
	out := append(ZoneSet[T](nil), zs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Find returns the value of the last zone containing s.
func (zs ZoneSet[T]) Find(s float64) (T, bool) {
	for i := len(zs) - 1; i >= 0; i-- {
		if zs[i].Contains(s) {
			return zs[i].Value, true
		}
	}
	var zero T
	return zero, false
}

// At returns the value of the last zone containing s, or def.
func (zs ZoneSet[T]) At(s float64, def T) T {
	if v, ok := zs.Find(s); ok {
		return v
	}
	return def
}

// All returns the values of every zone containing s in order.
func (zs ZoneSet[T]) All(s float64) []T {
	var out []T
	for _, z := range zs {
		if z.Start > s {
			break
		}
		if z.Contains(s) {
			out = append(out, z.Value)
		}
	}
	return out
}
