package providers

import (
	"net/http"

	"github.com/i474232898/coord-weather/internal/weather"
)

// Credentials holds the API keys of the providers that need one.
type Credentials struct {
	OpenWeatherAPIKey string
	AccuWeatherAPIKey string
	WeatherAPIKey     string
}

// Registry builds provider clients by name. Every call to New returns a fresh
// client, so circuit breaker state never outlives a single batch.
type Registry struct {
	client *http.Client
	creds  Credentials
	opts   map[string][]Option
}

// NewRegistry creates a Registry sharing client across all providers.
func NewRegistry(client *http.Client, creds Credentials) *Registry {
	return &Registry{
		client: client,
		creds:  creds,
		opts:   make(map[string][]Option),
	}
}

// WithOptions appends client options for one provider.
func (r *Registry) WithOptions(name string, opts ...Option) *Registry {
	r.opts[name] = append(r.opts[name], opts...)
	return r
}

// New implements weather.ProviderFactory.
func (r *Registry) New(name string) (weather.Provider, error) {
	opts := r.opts[name]

	switch name {
	case weather.ProviderOpenMeteo:
		return NewOpenMeteoProvider(r.client, opts...), nil
	case weather.ProviderOpenWeather:
		p, err := NewOpenWeatherProvider(r.client, r.creds.OpenWeatherAPIKey, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	case weather.ProviderWeatherAPI:
		p, err := NewWeatherAPIProvider(r.client, r.creds.WeatherAPIKey, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	case weather.ProviderAccuWeather:
		p, err := NewAccuWeatherProvider(r.client, r.creds.AccuWeatherAPIKey, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, weather.ValidationErrorf("unsupported provider %q", name)
	}
}
