package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/i474232898/coord-weather/internal/weather"
)

// Format is an output encoding for a list of readings.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// CSVHeader is the column order of CSV output. The raw payload is JSON-only.
var CSVHeader = []string{
	"provider",
	"latitude",
	"longitude",
	"observed_at_unix",
	"temperature_c",
	"temperature_f",
	"humidity_pct",
	"pressure_hpa",
	"wind_speed_ms",
	"wind_direction_deg",
	"condition_code",
	"condition_text",
}

// ParseFormat accepts "json" or "csv", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", weather.ValidationErrorf("unsupported format %q (allowed: json, csv)", s)
	}
}

// Write encodes readings to w in the given format.
func Write(w io.Writer, readings []weather.Reading, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, readings)
	case FormatCSV:
		return writeCSV(w, readings)
	default:
		return weather.ValidationErrorf("unsupported format %q (allowed: json, csv)", format)
	}
}

func writeJSON(w io.Writer, readings []weather.Reading) error {
	if readings == nil {
		readings = []weather.Reading{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(readings); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, readings []weather.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range readings {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRow(r weather.Reading) []string {
	return []string{
		r.Provider,
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		optInt64(r.ObservedAtUnix),
		optFloat(r.TemperatureC),
		optFloat(r.TemperatureF),
		optInt(r.HumidityPct),
		optFloat(r.PressureHpa),
		optFloat(r.WindSpeedMS),
		optInt(r.WindDirectionDeg),
		optString(r.ConditionCode),
		optString(r.ConditionText),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
