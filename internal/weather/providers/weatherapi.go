package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/i474232898/coord-weather/internal/weather"
	"github.com/sony/gobreaker"
)

const weatherAPIBaseURL = "https://api.weatherapi.com"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewWeatherAPIProvider fails with weather.ErrConfiguration when apiKey is empty.
func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) (*WeatherAPIProvider, error) {
	if apiKey == "" {
		return nil, weather.ConfigurationErrorf("WEATHERAPI_API_KEY is not configured")
	}

	o := applyOptions(weatherAPIBaseURL, opts)
	return &WeatherAPIProvider{
		name:    weather.ProviderWeatherAPI,
		apiKey:  apiKey,
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newCircuitBreaker(weather.ProviderWeatherAPI),
	}, nil
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) FetchCurrent(ctx context.Context, c weather.Coordinate) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "lat,lon".
	values.Set("q", c.String())

	return getJSON(ctx, p.name, p.httpCfg, p.circuit, p.baseURL+"/v1/current.json", values)
}

type weatherAPIPayload struct {
	Current struct {
		LastUpdatedEpoch optFloat `json:"last_updated_epoch"`
		TempC            optFloat `json:"temp_c"`
		TempF            optFloat `json:"temp_f"`
		Humidity         optFloat `json:"humidity"`
		PressureMb       optFloat `json:"pressure_mb"`
		WindKph          optFloat `json:"wind_kph"`
		WindDegree       optFloat `json:"wind_degree"`
		Condition        struct {
			Text optText  `json:"text"`
			Code optFloat `json:"code"`
		} `json:"condition"`
	} `json:"current"`
}

func (p *WeatherAPIProvider) Normalize(c weather.Coordinate, raw json.RawMessage) (weather.Reading, error) {
	var payload weatherAPIPayload
	if err := decodePayload(p.name, raw, &payload); err != nil {
		return weather.Reading{}, err
	}
	cur := payload.Current

	r := weather.NewReading(p.name, c, raw)
	r.ObservedAtUnix = weather.RoundInt64(cur.LastUpdatedEpoch.ptr())
	r.TemperatureC = cur.TempC.ptr()
	r.TemperatureF = cur.TempF.ptr()
	r.HumidityPct = weather.RoundInt(cur.Humidity.ptr())
	// Millibars and hPa are the same unit.
	r.PressureHpa = cur.PressureMb.ptr()
	r.WindSpeedMS = weather.KmhToMS(cur.WindKph.ptr())
	r.WindDirectionDeg = weather.RoundInt(cur.WindDegree.ptr())
	r.ConditionCode = codeString(cur.Condition.Code)
	r.ConditionText = nonEmpty(cur.Condition.Text)
	r.FillTemperatures()
	return r, nil
}
