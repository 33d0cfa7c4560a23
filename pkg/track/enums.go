package track

import (
	"errors"
	"fmt"

	"github.com/GruiaChiscop/top-speed/internal/alias"
)

// ErrUnknownValue is wrapped by the Parse functions for unrecognized names.
var ErrUnknownValue = errors.New("unknown value")

// Surface is the road material under the wheels.
type Surface int

const (
	SurfaceAsphalt Surface = iota
	SurfaceGravel
	SurfaceWater
	SurfaceSand
	SurfaceSnow
	SurfaceGrass
	SurfaceDirt
)

// Noise is the trackside sound loop played alongside a stretch of road.
type Noise int

const (
	NoiseNone Noise = iota
	NoiseCrowd
	NoiseOcean
	NoiseRunway
	NoiseClock
	NoiseJet
	NoiseThunder
	NoisePile
	NoiseConstruction
	NoiseRiver
	NoiseHelicopter
	NoiseOwl
)

// Weather is the sky condition heard by the driver.
type Weather int

const (
	WeatherSunny Weather = iota
	WeatherRain
	WeatherWind
	WeatherStorm
	WeatherFog
	WeatherSnow
)

// Ambience is the background soundscape of a region.
type Ambience int

const (
	AmbienceNone Ambience = iota
	AmbienceDesert
	AmbienceAirport
	AmbienceCity
	AmbienceForest
	AmbienceCoast
)

// TurnDirection tags an intersection edge with the manoeuvre it represents.
type TurnDirection int

const (
	TurnNone TurnDirection = iota
	TurnStraight
	TurnLeft
	TurnRight
	TurnUTurn
)

var (
	surfaceNames = alias.New(map[Surface][]string{
		SurfaceAsphalt: {"asphalt", "tarmac", "road", "pavement"},
		SurfaceGravel:  {"gravel"},
		SurfaceWater:   {"water"},
		SurfaceSand:    {"sand"},
		SurfaceSnow:    {"snow", "ice"},
		SurfaceGrass:   {"grass"},
		SurfaceDirt:    {"dirt", "mud"},
	})
	noiseNames = alias.New(map[Noise][]string{
		NoiseNone:         {"none", "silent", "nonoise"},
		NoiseCrowd:        {"crowd"},
		NoiseOcean:        {"ocean", "sea"},
		NoiseRunway:       {"runway"},
		NoiseClock:        {"clock"},
		NoiseJet:          {"jet"},
		NoiseThunder:      {"thunder"},
		NoisePile:         {"pile", "piledriver"},
		NoiseConstruction: {"construction"},
		NoiseRiver:        {"river"},
		NoiseHelicopter:   {"helicopter"},
		NoiseOwl:          {"owl"},
	})
	weatherNames = alias.New(map[Weather][]string{
		WeatherSunny: {"sunny", "clear", "sun"},
		WeatherRain:  {"rain", "rainy"},
		WeatherWind:  {"wind", "windy"},
		WeatherStorm: {"storm", "stormy"},
		WeatherFog:   {"fog", "foggy"},
		WeatherSnow:  {"snow", "snowy"},
	})
	ambienceNames = alias.New(map[Ambience][]string{
		AmbienceNone:    {"none", "noambience"},
		AmbienceDesert:  {"desert"},
		AmbienceAirport: {"airport"},
		AmbienceCity:    {"city", "urban"},
		AmbienceForest:  {"forest"},
		AmbienceCoast:   {"coast", "coastal", "beach"},
	})
	turnNames = alias.New(map[TurnDirection][]string{
		TurnNone:     {"none"},
		TurnStraight: {"straight", "ahead"},
		TurnLeft:     {"left"},
		TurnRight:    {"right"},
		TurnUTurn:    {"uturn", "u"},
	})
)

func (s Surface) String() string       { return surfaceNames.Name(s) }
func (n Noise) String() string         { return noiseNames.Name(n) }
func (w Weather) String() string       { return weatherNames.Name(w) }
func (a Ambience) String() string      { return ambienceNames.Name(a) }
func (t TurnDirection) String() string { return turnNames.Name(t) }

func unknown(kind, s string, names []string) error {
	return fmt.Errorf("%w: %s %q (want one of %v)", ErrUnknownValue, kind, s, names)
}

// ParseSurface resolves a surface name.
func ParseSurface(s string) (Surface, error) {
	if v, ok := surfaceNames.Lookup(s); ok {
		return v, nil
	}
	return 0, unknown("surface", s, surfaceNames.Names())
}

// ParseNoise resolves a noise name.
func ParseNoise(s string) (Noise, error) {
	if v, ok := noiseNames.Lookup(s); ok {
		return v, nil
	}
	return 0, unknown("noise", s, noiseNames.Names())
}

// ParseWeather resolves a weather name.
func ParseWeather(s string) (Weather, error) {
	if v, ok := weatherNames.Lookup(s); ok {
		return v, nil
	}
	return 0, unknown("weather", s, weatherNames.Names())
}

// ParseAmbience resolves an ambience name.
func ParseAmbience(s string) (Ambience, error) {
	if v, ok := ambienceNames.Lookup(s); ok {
		return v, nil
	}
	return 0, unknown("ambience", s, ambienceNames.Names())
}

// ParseTurnDirection resolves a turn direction tag.
func ParseTurnDirection(s string) (TurnDirection, error) {
	if v, ok := turnNames.Lookup(s); ok {
		return v, nil
	}
	return 0, unknown("turn direction", s, turnNames.Names())
}

func (s Surface) MarshalText() ([]byte, error)       { return []byte(s.String()), nil }
func (n Noise) MarshalText() ([]byte, error)         { return []byte(n.String()), nil }
func (w Weather) MarshalText() ([]byte, error)       { return []byte(w.String()), nil }
func (a Ambience) MarshalText() ([]byte, error)      { return []byte(a.String()), nil }
func (t TurnDirection) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
