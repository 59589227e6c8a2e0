package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const openWeatherSample = `{
  "coord": {"lon": -122.4194, "lat": 37.7749},
  "weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}],
  "main": {"temp": 15.5, "feels_like": 15.1, "pressure": 1015, "humidity": 77},
  "wind": {"speed": 4.12, "deg": 250},
  "dt": 1700000123,
  "name": "San Francisco"
}`

func TestOpenWeatherFetchAndNormalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/data/2.5/weather" || q.Get("appid") != "ow-key" || q.Get("units") != "metric" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if q.Get("lat") != "37.7749" || q.Get("lon") != "-122.4194" {
			t.Errorf("unexpected coordinates %s,%s", q.Get("lat"), q.Get("lon"))
		}
		_, _ = w.Write([]byte(openWeatherSample))
	}))
	t.Cleanup(srv.Close)

	p, err := NewOpenWeatherProvider(srv.Client(), "ow-key", WithBaseURL(srv.URL), noRetry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := p.FetchCurrent(context.Background(), sanFrancisco)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := p.Normalize(sanFrancisco, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ObservedAtUnix == nil || *r.ObservedAtUnix != 1700000123 {
		t.Fatalf("unexpected observed_at_unix %v", r.ObservedAtUnix)
	}
	assertFloat(t, "temperature_c", r.TemperatureC, 15.5)
	assertFloat(t, "temperature_f", r.TemperatureF, 59.9)
	assertInt(t, "humidity_pct", r.HumidityPct, 77)
	assertFloat(t, "pressure_hpa", r.PressureHpa, 1015)
	assertFloat(t, "wind_speed_ms", r.WindSpeedMS, 4.12)
	assertInt(t, "wind_direction_deg", r.WindDirectionDeg, 250)
	assertString(t, "condition_code", r.ConditionCode, "803")
	assertString(t, "condition_text", r.ConditionText, "broken clouds")
}

func TestOpenWeatherNormalizeMissingFields(t *testing.T) {
	p, _ := NewOpenWeatherProvider(http.DefaultClient, "k")
	r, err := p.Normalize(sanFrancisco, []byte(`{"main":{"temp":10},"weather":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertFloat(t, "temperature_c", r.TemperatureC, 10)
	assertFloat(t, "temperature_f", r.TemperatureF, 50)
	if r.ConditionCode != nil || r.ConditionText != nil || r.WindSpeedMS != nil || r.ObservedAtUnix != nil {
		t.Fatalf("expected missing fields to stay nil: %+v", r)
	}
}

func TestOpenWeatherNormalizeLenientScalars(t *testing.T) {
	p, _ := NewOpenWeatherProvider(http.DefaultClient, "k")
	raw := []byte(`{
  "dt": "1700000123",
  "main": {"temp": 12.5, "humidity": "85", "pressure": true},
  "wind": {"speed": {"value": 3}, "deg": "NaN"},
  "weather": [{"id": "800", "description": 42}]
}`)

	r, err := p.Normalize(sanFrancisco, raw)
	if err != nil {
		t.Fatalf("expected mistyped fields not to fail the reading, got %v", err)
	}
	if r.ObservedAtUnix == nil || *r.ObservedAtUnix != 1700000123 {
		t.Fatalf("expected numeric string dt to be accepted, got %v", r.ObservedAtUnix)
	}
	assertFloat(t, "temperature_c", r.TemperatureC, 12.5)
	assertInt(t, "humidity_pct", r.HumidityPct, 85)
	assertString(t, "condition_code", r.ConditionCode, "800")
	if r.PressureHpa != nil || r.WindSpeedMS != nil || r.WindDirectionDeg != nil || r.ConditionText != nil {
		t.Fatalf("expected mistyped fields to be nil: %+v", r)
	}
}
