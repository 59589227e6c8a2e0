package weather

import (
	"encoding/json"
)

// Provider names accepted by the registry, the CLI and the HTTP API.
const (
	ProviderOpenWeather = "openweather"
	ProviderAccuWeather = "accuweather"
	ProviderWeatherAPI  = "weatherapi"
	ProviderOpenMeteo   = "openmeteo"
)

// ProviderNames lists every supported provider in display order.
var ProviderNames = []string{
	ProviderOpenWeather,
	ProviderAccuWeather,
	ProviderWeatherAPI,
	ProviderOpenMeteo,
}

// IsKnownProvider reports whether name is one of ProviderNames.
func IsKnownProvider(name string) bool {
	for _, n := range ProviderNames {
		if n == name {
			return true
		}
	}
	return false
}

// Reading is the normalized current-weather observation for one coordinate.
// Every measurement is optional because providers differ in what they report.
type Reading struct {
	Provider  string  `json:"provider"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	ObservedAtUnix   *int64   `json:"observed_at_unix"`
	TemperatureC     *float64 `json:"temperature_c"`
	TemperatureF     *float64 `json:"temperature_f"`
	HumidityPct      *int     `json:"humidity_pct"`
	PressureHpa      *float64 `json:"pressure_hpa"`
	WindSpeedMS      *float64 `json:"wind_speed_ms"`
	WindDirectionDeg *int     `json:"wind_direction_deg"`
	ConditionCode    *string  `json:"condition_code"`
	ConditionText    *string  `json:"condition_text"`

	// Raw is the provider payload exactly as received.
	Raw json.RawMessage `json:"raw"`
}

// Coordinate returns the coordinate the reading was requested for.
func (r Reading) Coordinate() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

// NewReading starts a reading for provider at c with the raw payload attached.
func NewReading(provider string, c Coordinate, raw json.RawMessage) Reading {
	return Reading{
		Provider:  provider,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Raw:       raw,
	}
}

// CoordinateError records a failed coordinate when a batch keeps going.
type CoordinateError struct {
	Provider   string     `json:"provider"`
	Coordinate Coordinate `json:"coordinate"`
	Message    string     `json:"message"`
}

// Result is the outcome of one orchestrator run. Readings keep input order.
type Result struct {
	Readings []Reading         `json:"readings"`
	Errors   []CoordinateError `json:"errors,omitempty"`
}

// Ptr returns a pointer to v. Normalizers use it for literal values.
func Ptr[T any](v T) *T {
	return &v
}
