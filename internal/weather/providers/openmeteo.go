package providers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/coord-weather/internal/weather"
	"github.com/sony/gobreaker"
)

const openMeteoBaseURL = "https://api.open-meteo.com"

// openMeteoCurrentFields is the "current" variable list requested from Open-Meteo.
var openMeteoCurrentFields = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"pressure_msl",
	"wind_speed_10m",
	"wind_direction_10m",
	"weather_code",
}

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// No credential is required.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, opts ...Option) *OpenMeteoProvider {
	o := applyOptions(openMeteoBaseURL, opts)
	return &OpenMeteoProvider{
		name:    weather.ProviderOpenMeteo,
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newCircuitBreaker(weather.ProviderOpenMeteo),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchCurrent(ctx context.Context, c weather.Coordinate) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("latitude", weather.FormatDegrees(c.Latitude))
	values.Set("longitude", weather.FormatDegrees(c.Longitude))
	values.Set("current", strings.Join(openMeteoCurrentFields, ","))
	values.Set("wind_speed_unit", "ms")
	values.Set("timeformat", "unixtime")

	return getJSON(ctx, p.name, p.httpCfg, p.circuit, p.baseURL+"/v1/forecast", values)
}

type openMeteoPayload struct {
	Current struct {
		Time             optFloat `json:"time"`
		Temperature2m    optFloat `json:"temperature_2m"`
		RelativeHumidity optFloat `json:"relative_humidity_2m"`
		PressureMSL      optFloat `json:"pressure_msl"`
		WindSpeed10m     optFloat `json:"wind_speed_10m"`
		WindDirection10m optFloat `json:"wind_direction_10m"`
		WeatherCode      optFloat `json:"weather_code"`
	} `json:"current"`
}

func (p *OpenMeteoProvider) Normalize(c weather.Coordinate, raw json.RawMessage) (weather.Reading, error) {
	var payload openMeteoPayload
	if err := decodePayload(p.name, raw, &payload); err != nil {
		return weather.Reading{}, err
	}
	cur := payload.Current

	r := weather.NewReading(p.name, c, raw)
	r.ObservedAtUnix = weather.RoundInt64(cur.Time.ptr())
	r.TemperatureC = cur.Temperature2m.ptr()
	r.HumidityPct = weather.RoundInt(cur.RelativeHumidity.ptr())
	r.PressureHpa = cur.PressureMSL.ptr()
	// wind_speed_unit=ms is requested, so no conversion.
	r.WindSpeedMS = cur.WindSpeed10m.ptr()
	r.WindDirectionDeg = weather.RoundInt(cur.WindDirection10m.ptr())
	r.ConditionCode = codeString(cur.WeatherCode)
	if code := cur.WeatherCode.ptr(); code != nil {
		r.ConditionText = describeWMOCode(int(math.Round(*code)))
	}
	r.FillTemperatures()
	return r, nil
}

// wmoDescriptions follows the WMO weather interpretation codes used by Open-Meteo.
var wmoDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

func describeWMOCode(code int) *string {
	if text, ok := wmoDescriptions[code]; ok {
		return weather.Ptr(text)
	}
	return nil
}
