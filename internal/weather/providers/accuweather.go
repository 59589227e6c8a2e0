package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/coord-weather/internal/weather"
	"github.com/sony/gobreaker"
)

const accuWeatherBaseURL = "https://dataservice.accuweather.com"

// AccuWeatherProvider implements the weather.Provider interface for AccuWeather.
// Coordinates are first resolved to a location key through the geoposition
// search, then current conditions are requested for that key.
type AccuWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewAccuWeatherProvider fails with weather.ErrConfiguration when apiKey is empty.
func NewAccuWeatherProvider(client *http.Client, apiKey string, opts ...Option) (*AccuWeatherProvider, error) {
	if apiKey == "" {
		return nil, weather.ConfigurationErrorf("ACCUWEATHER_API_KEY is not configured")
	}

	o := applyOptions(accuWeatherBaseURL, opts)
	return &AccuWeatherProvider{
		name:    weather.ProviderAccuWeather,
		apiKey:  apiKey,
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newCircuitBreaker(weather.ProviderAccuWeather),
	}, nil
}

func (p *AccuWeatherProvider) Name() string {
	return p.name
}

// FetchCurrent returns the first current-conditions record for c.
func (p *AccuWeatherProvider) FetchCurrent(ctx context.Context, c weather.Coordinate) (json.RawMessage, error) {
	key, err := p.locationKey(ctx, c)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("apikey", p.apiKey)
	values.Set("details", "true")

	endpoint := p.baseURL + "/currentconditions/v1/" + url.PathEscape(key)
	body, err := getJSON(ctx, p.name, p.httpCfg, p.circuit, endpoint, values)
	if err != nil {
		return nil, err
	}

	var records []json.RawMessage
	if err := decodePayload(p.name, body, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return records[0], nil
}

// locationKey resolves c through the geoposition search.
func (p *AccuWeatherProvider) locationKey(ctx context.Context, c weather.Coordinate) (string, error) {
	values := url.Values{}
	values.Set("apikey", p.apiKey)
	values.Set("q", c.String())

	body, err := getJSON(ctx, p.name, p.httpCfg, p.circuit, p.baseURL+"/locations/v1/cities/geoposition/search", values)
	if err != nil {
		return "", err
	}

	var location struct {
		Key *string `json:"Key"`
	}
	if err := decodePayload(p.name, body, &location); err != nil {
		return "", err
	}
	if location.Key == nil || strings.TrimSpace(*location.Key) == "" {
		return "", &weather.ProviderError{
			Provider: p.name,
			Message:  "no location key returned for coordinates " + c.String(),
		}
	}
	return *location.Key, nil
}

type accuWeatherValue struct {
	Value optFloat `json:"Value"`
}

type accuWeatherPayload struct {
	EpochTime   optFloat `json:"EpochTime"`
	WeatherText optText  `json:"WeatherText"`
	WeatherIcon optFloat `json:"WeatherIcon"`
	Temperature struct {
		Metric   accuWeatherValue `json:"Metric"`
		Imperial accuWeatherValue `json:"Imperial"`
	} `json:"Temperature"`
	RelativeHumidity optFloat `json:"RelativeHumidity"`
	Pressure         struct {
		Metric accuWeatherValue `json:"Metric"`
	} `json:"Pressure"`
	Wind struct {
		Speed struct {
			Metric accuWeatherValue `json:"Metric"`
		} `json:"Speed"`
		Direction struct {
			Degrees optFloat `json:"Degrees"`
		} `json:"Direction"`
	} `json:"Wind"`
}

func (p *AccuWeatherProvider) Normalize(c weather.Coordinate, raw json.RawMessage) (weather.Reading, error) {
	var payload accuWeatherPayload
	if err := decodePayload(p.name, raw, &payload); err != nil {
		return weather.Reading{}, err
	}

	r := weather.NewReading(p.name, c, raw)
	r.ObservedAtUnix = weather.RoundInt64(payload.EpochTime.ptr())
	r.TemperatureC = payload.Temperature.Metric.Value.ptr()
	r.TemperatureF = payload.Temperature.Imperial.Value.ptr()
	r.HumidityPct = weather.RoundInt(payload.RelativeHumidity.ptr())
	r.PressureHpa = payload.Pressure.Metric.Value.ptr()
	// Metric wind speed is reported in km/h.
	r.WindSpeedMS = weather.KmhToMS(payload.Wind.Speed.Metric.Value.ptr())
	r.WindDirectionDeg = weather.RoundInt(payload.Wind.Direction.Degrees.ptr())
	r.ConditionCode = codeString(payload.WeatherIcon)
	r.ConditionText = nonEmpty(payload.WeatherText)
	r.FillTemperatures()
	return r, nil
}
