package track

import "github.com/GruiaChiscop/top-speed/pkg/geometry"

// DefaultWidth is the road width in meters used when a track sets none.
const DefaultWidth = 12.0

// Meta describes the track for menus and narration.
type Meta struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Author      string            `json:"author,omitempty" yaml:"author,omitempty"`
	Version     string            `json:"version,omitempty" yaml:"version,omitempty"`
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Extra       map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Environment holds track-wide defaults.
type Environment struct {
	Weather        Weather  `json:"weather" yaml:"weather"`
	Ambience       Ambience `json:"ambience" yaml:"ambience"`
	DefaultSurface Surface  `json:"default_surface" yaml:"default_surface"`
	DefaultNoise   Noise    `json:"default_noise" yaml:"default_noise"`
	DefaultWidth   float64  `json:"default_width" yaml:"default_width"`
	SampleSpacing  float64  `json:"sample_spacing" yaml:"sample_spacing"`
	EnforceClosure bool     `json:"enforce_closure" yaml:"enforce_closure"`
	PrimaryRoute   string   `json:"primary_route,omitempty" yaml:"primary_route,omitempty"`
}

// DefaultEnvironment returns the environment of a track that sets nothing.
func DefaultEnvironment() Environment {
	return Environment{
		Weather:        WeatherSunny,
		Ambience:       AmbienceNone,
		DefaultSurface: SurfaceAsphalt,
		DefaultNoise:   NoiseNone,
		DefaultWidth:   DefaultWidth,
		SampleSpacing:  geometry.DefaultSampleSpacing,
	}
}

// EdgeDefaults returns the profile defaults an edge inherits.
func (env Environment) EdgeDefaults() Defaults {
	return Defaults{
		Surface:  env.DefaultSurface,
		Noise:    env.DefaultNoise,
		Width:    env.DefaultWidth,
		Weather:  env.Weather,
		Ambience: env.Ambience,
	}
}

// Layout is a complete parsed track.
type Layout struct {
	Meta        Meta        `json:"meta" yaml:"meta"`
	Environment Environment `json:"environment" yaml:"environment"`
	Graph       *Graph      `json:"graph" yaml:"graph"`
}
