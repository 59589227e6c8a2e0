package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/i474232898/coord-weather/internal/weather"
	"github.com/sony/gobreaker"
)

const openWeatherBaseURL = "https://api.openweathermap.org"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider fails with weather.ErrConfiguration when apiKey is empty.
func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) (*OpenWeatherProvider, error) {
	if apiKey == "" {
		return nil, weather.ConfigurationErrorf("OPENWEATHER_API_KEY is not configured")
	}

	o := applyOptions(openWeatherBaseURL, opts)
	return &OpenWeatherProvider{
		name:    weather.ProviderOpenWeather,
		apiKey:  apiKey,
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newCircuitBreaker(weather.ProviderOpenWeather),
	}, nil
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, c weather.Coordinate) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("lat", weather.FormatDegrees(c.Latitude))
	values.Set("lon", weather.FormatDegrees(c.Longitude))
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	return getJSON(ctx, p.name, p.httpCfg, p.circuit, p.baseURL+"/data/2.5/weather", values)
}

type openWeatherPayload struct {
	Dt   optFloat `json:"dt"`
	Main struct {
		Temp     optFloat `json:"temp"`
		Humidity optFloat `json:"humidity"`
		Pressure optFloat `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed optFloat `json:"speed"`
		Deg   optFloat `json:"deg"`
	} `json:"wind"`
	Weather []struct {
		ID          optFloat `json:"id"`
		Description optText  `json:"description"`
	} `json:"weather"`
}

func (p *OpenWeatherProvider) Normalize(c weather.Coordinate, raw json.RawMessage) (weather.Reading, error) {
	var payload openWeatherPayload
	if err := decodePayload(p.name, raw, &payload); err != nil {
		return weather.Reading{}, err
	}

	r := weather.NewReading(p.name, c, raw)
	r.ObservedAtUnix = weather.RoundInt64(payload.Dt.ptr())
	// units=metric: °C, hPa, m/s.
	r.TemperatureC = payload.Main.Temp.ptr()
	r.HumidityPct = weather.RoundInt(payload.Main.Humidity.ptr())
	r.PressureHpa = payload.Main.Pressure.ptr()
	r.WindSpeedMS = payload.Wind.Speed.ptr()
	r.WindDirectionDeg = weather.RoundInt(payload.Wind.Deg.ptr())
	if len(payload.Weather) > 0 {
		r.ConditionCode = codeString(payload.Weather[0].ID)
		r.ConditionText = nonEmpty(payload.Weather[0].Description)
	}
	r.FillTemperatures()
	return r, nil
}
