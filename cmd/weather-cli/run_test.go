package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/coord-weather/internal/output"
	"github.com/i474232898/coord-weather/internal/weather"
	"github.com/i474232898/coord-weather/internal/weather/providers"
)

// openMeteoService returns a service whose Open-Meteo client talks to a fake
// upstream that rejects latitude 2.
func openMeteoService(t *testing.T) *weather.Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lat := r.URL.Query().Get("latitude")
		if lat == "2" {
			http.Error(w, `{"error":true,"reason":"bad latitude"}`, http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"current":{"temperature_2m":`+lat+`}}`)
	}))
	t.Cleanup(srv.Close)

	registry := providers.NewRegistry(srv.Client(), providers.Credentials{}).
		WithOptions(weather.ProviderOpenMeteo,
			providers.WithBaseURL(srv.URL),
			providers.WithBackoff(providers.BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}))
	return weather.NewService(registry, nil)
}

func TestRunUsageErrors(t *testing.T) {
	chdir(t, t.TempDir())

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing provider", []string{"--coords", "1,2"}, "--provider is required"},
		{"unknown provider", []string{"--provider", "yahoo"}, "--provider must be one of"},
		{"bad format", []string{"-p", "openmeteo", "--format", "xml"}, "--format must be one of"},
		{"negative delay", []string{"-p", "openmeteo", "--delay-seconds", "-1"}, "--delay-seconds"},
		{"infinite delay", []string{"-p", "openmeteo", "--delay-seconds", "Inf"}, "--delay-seconds"},
		{"not a number delay", []string{"-p", "openmeteo", "--delay-seconds", "NaN"}, "--delay-seconds"},
		{"bad coordinate", []string{"-p", "openmeteo", "not,a,coord"}, "invalid coordinate"},
		{"unknown flag", []string{"--nope"}, "unknown flag"},
	}
	for _, tc := range cases {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), tc.args, &stdout, &stderr)
		if code != exitUsage {
			t.Fatalf("%s: expected exit %d, got %d (stderr: %s)", tc.name, exitUsage, code, stderr.String())
		}
		if !strings.Contains(stderr.String(), tc.want) {
			t.Fatalf("%s: expected %q in stderr, got %s", tc.name, tc.want, stderr.String())
		}
		if stdout.Len() != 0 {
			t.Fatalf("%s: expected no output, got %s", tc.name, stdout.String())
		}
	}
}

func TestRunMissingAPIKey(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OPENWEATHER_API_KEY", "")
	// Server-only settings must not stop the CLI.
	t.Setenv("APP_ENV", "staging")
	t.Setenv("API_MAX_COORDS", "0")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--provider", "openweather", "--coords", "1,2"}, &stdout, &stderr)
	if code != exitUsage {
		t.Fatalf("expected exit %d, got %d", exitUsage, code)
	}
	if !strings.Contains(stderr.String(), "OPENWEATHER_API_KEY") {
		t.Fatalf("expected the missing variable to be named, got %s", stderr.String())
	}
	if strings.Contains(stderr.String(), "APP_ENV") || strings.Contains(stderr.String(), "API_MAX_COORDS") {
		t.Fatalf("expected server settings to be ignored, got %s", stderr.String())
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--help"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("expected exit %d, got %d", exitOK, code)
	}
	if !strings.Contains(stderr.String(), "--keep-going") {
		t.Fatalf("expected usage text, got %s", stderr.String())
	}
}

func TestLoadCoordinates(t *testing.T) {
	coords, err := loadCoordinates(cliOptions{})
	if err != nil || len(coords) != len(weather.DefaultSampleCoordinates) {
		t.Fatalf("expected sample coordinates, got %v, %v", coords, err)
	}

	coords, err = loadCoordinates(cliOptions{Coords: []string{"1,2", " 51.5074, -0.1278 ", "", "5 , 6"}})
	if err != nil || len(coords) != 3 {
		t.Fatalf("unexpected coordinates %v, %v", coords, err)
	}
	if coords[1] != (weather.Coordinate{Latitude: 51.5074, Longitude: -0.1278}) || coords[2] != (weather.Coordinate{Latitude: 5, Longitude: 6}) {
		t.Fatalf("expected spaces around the comma to be accepted, got %v", coords)
	}

	path := filepath.Join(t.TempDir(), "points.txt")
	if err := os.WriteFile(path, []byte("# header\n10,20\n\n30,40\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	coords, err = loadCoordinates(cliOptions{CoordsFile: path, Coords: []string{"1,2"}})
	if err != nil || len(coords) != 2 || coords[0].Latitude != 10 {
		t.Fatalf("expected the file to win, got %v, %v", coords, err)
	}
}

func TestFetchAndWriteJSON(t *testing.T) {
	svc := openMeteoService(t)
	coords := []weather.Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 3, Longitude: 3}}

	var stdout, stderr bytes.Buffer
	code := fetchAndWrite(context.Background(), svc, cliOptions{Provider: weather.ProviderOpenMeteo}, coords, output.FormatJSON, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", exitOK, code, stderr.String())
	}

	var readings []weather.Reading
	if err := json.Unmarshal(stdout.Bytes(), &readings); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(readings) != 2 || *readings[1].TemperatureC != 3 {
		t.Fatalf("unexpected readings %+v", readings)
	}
}

func TestFetchAndWriteFailFast(t *testing.T) {
	svc := openMeteoService(t)
	coords := []weather.Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}, {Latitude: 3, Longitude: 3}}

	var stdout, stderr bytes.Buffer
	code := fetchAndWrite(context.Background(), svc, cliOptions{Provider: weather.ProviderOpenMeteo}, coords, output.FormatCSV, &stdout, &stderr)
	if code != exitProvider {
		t.Fatalf("expected exit %d, got %d", exitProvider, code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected no output on failure, got %s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "openmeteo error 400") {
		t.Fatalf("expected provider error on stderr, got %s", stderr.String())
	}
}

func TestFetchAndWriteKeepGoing(t *testing.T) {
	svc := openMeteoService(t)
	coords := []weather.Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}, {Latitude: 3, Longitude: 3}}
	out := filepath.Join(t.TempDir(), "out.csv")

	var stdout, stderr bytes.Buffer
	opts := cliOptions{Provider: weather.ProviderOpenMeteo, KeepGoing: true, Out: out}
	code := fetchAndWrite(context.Background(), svc, opts, coords, output.FormatCSV, &stdout, &stderr)
	if code != exitProvider {
		t.Fatalf("expected exit %d for partial results, got %d", exitProvider, code)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %q", lines)
	}
	if !strings.HasPrefix(lines[2], "openmeteo,3,3,") {
		t.Fatalf("expected order to be kept, got %q", lines[2])
	}
	if !strings.Contains(stderr.String(), "2,2") {
		t.Fatalf("expected the failed coordinate on stderr, got %s", stderr.String())
	}
}
