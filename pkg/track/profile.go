package track

import "sort"

// WidthSpec is the paved width of the road plus its shoulders, in meters.
type WidthSpec struct {
	Width         float64 `json:"width" yaml:"width"`
	ShoulderLeft  float64 `json:"shoulder_left,omitempty" yaml:"shoulder_left,omitempty"`
	ShoulderRight float64 `json:"shoulder_right,omitempty" yaml:"shoulder_right,omitempty"`
}

// Hazard is an obstacle or danger announced to the driver.
type Hazard struct {
	Kind     string  `json:"kind" yaml:"kind"`
	Severity float64 `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// Checkpoint is a timing gate.
type Checkpoint struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Emitter is a positional sound source placed along the road.
type Emitter struct {
	ID     string  `json:"id,omitempty" yaml:"id,omitempty"`
	Sound  string  `json:"sound" yaml:"sound"`
	Volume float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
	Loop   bool    `json:"loop,omitempty" yaml:"loop,omitempty"`
}

// Trigger fires a named action when a vehicle enters its zone.
type Trigger struct {
	ID     string `json:"id" yaml:"id"`
	Action string `json:"action" yaml:"action"`
	Once   bool   `json:"once,omitempty" yaml:"once,omitempty"`
}

// HitLanes lists the lane indices a zone applies to.
type HitLanes []int

// Marker is a named point along an edge, used for narration.
type Marker struct {
	Name string  `json:"name" yaml:"name"`
	S    float64 `json:"s" yaml:"s"`
}

// Defaults are the values an edge reports where no zone applies.
type Defaults struct {
	Surface  Surface  `json:"surface" yaml:"surface"`
	Noise    Noise    `json:"noise" yaml:"noise"`
	Width    float64  `json:"width" yaml:"width"`
	Weather  Weather  `json:"weather" yaml:"weather"`
	Ambience Ambience `json:"ambience" yaml:"ambience"`
}

// Profile holds every distance-indexed property of one edge.
type Profile struct {
	Defaults        Defaults            `json:"defaults" yaml:"defaults"`
	Widths          ZoneSet[WidthSpec]  `json:"widths,omitempty" yaml:"widths,omitempty"`
	Surfaces        ZoneSet[Surface]    `json:"surfaces,omitempty" yaml:"surfaces,omitempty"`
	Noises          ZoneSet[Noise]      `json:"noises,omitempty" yaml:"noises,omitempty"`
	SpeedLimits     ZoneSet[float64]    `json:"speed_limits,omitempty" yaml:"speed_limits,omitempty"`
	Weathers        ZoneSet[Weather]    `json:"weathers,omitempty" yaml:"weathers,omitempty"`
	Ambiences       ZoneSet[Ambience]   `json:"ambiences,omitempty" yaml:"ambiences,omitempty"`
	Hazards         ZoneSet[Hazard]     `json:"hazards,omitempty" yaml:"hazards,omitempty"`
	Checkpoints     ZoneSet[Checkpoint] `json:"checkpoints,omitempty" yaml:"checkpoints,omitempty"`
	HitLanes        ZoneSet[HitLanes]   `json:"hit_lanes,omitempty" yaml:"hit_lanes,omitempty"`
	Emitters        ZoneSet[Emitter]    `json:"emitters,omitempty" yaml:"emitters,omitempty"`
	Triggers        ZoneSet[Trigger]    `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Markers         []Marker            `json:"markers,omitempty" yaml:"markers,omitempty"`
	AllowedVehicles []string            `json:"allowed_vehicles,omitempty" yaml:"allowed_vehicles,omitempty"`
}

// sorted returns a copy with every zone set in start order and markers by
// distance.
func (p Profile) sorted() Profile {
	out := p
	out.Widths = p.Widths.Sorted()
	out.Surfaces = p.Surfaces.Sorted()
	out.Noises = p.Noises.Sorted()
	out.SpeedLimits = p.SpeedLimits.Sorted()
	out.Weathers = p.Weathers.Sorted()
	out.Ambiences = p.Ambiences.Sorted()
	out.Hazards = p.Hazards.Sorted()
	out.Checkpoints = p.Checkpoints.Sorted()
	out.HitLanes = p.HitLanes.Sorted()
	out.Emitters = p.Emitters.Sorted()
	out.Triggers = p.Triggers.Sorted()
	out.Markers = append([]Marker(nil), p.Markers...)
	sort.SliceStable(out.Markers, func(i, j int) bool { return out.Markers[i].S < out.Markers[j].S })
	out.AllowedVehicles = append([]string(nil), p.AllowedVehicles...)
	return out
}
