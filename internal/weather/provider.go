package weather

import (
	"context"
	"encoding/json"
)

// Provider abstracts one upstream weather API (OpenWeather, AccuWeather,
// WeatherAPI, Open-Meteo). Normalize is pure over the raw payload.
type Provider interface {
	Name() string
	// FetchCurrent returns the raw current-conditions payload for c.
	FetchCurrent(ctx context.Context, c Coordinate) (json.RawMessage, error)
	// Normalize maps a raw payload into a Reading. Absent fields stay nil.
	Normalize(c Coordinate, raw json.RawMessage) (Reading, error)
}

// ProviderFactory builds a ready-to-use Provider by name. It fails with
// ErrValidation for unknown names and ErrConfiguration for missing credentials.
type ProviderFactory interface {
	New(name string) (Provider, error)
}
