package weather

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// DefaultSampleCoordinates is used when the caller supplies no coordinates.
var DefaultSampleCoordinates = []Coordinate{
	{Latitude: 37.7749, Longitude: -122.4194}, // San Francisco
	{Latitude: 40.7128, Longitude: -74.0060},  // New York
	{Latitude: 51.5074, Longitude: -0.1278},   // London
}

// String renders the coordinate as "lat,lon" using the shortest decimal form
// that parses back to the same float64 values.
func (c Coordinate) String() string {
	return FormatDegrees(c.Latitude) + "," + FormatDegrees(c.Longitude)
}

// FormatDegrees formats a degree value for a query string without losing precision.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseCoordinate parses a "lat,lon" string.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, ValidationErrorf("invalid coordinate %q: expected 'lat,lon'", s)
	}

	lat, err := parseDegrees(parts[0])
	if err != nil {
		return Coordinate{}, ValidationErrorf("invalid coordinate %q: latitude: %v", s, err)
	}
	lon, err := parseDegrees(parts[1])
	if err != nil {
		return Coordinate{}, ValidationErrorf("invalid coordinate %q: longitude: %v", s, err)
	}

	c := Coordinate{Latitude: lat, Longitude: lon}
	if err := validate.Struct(c); err != nil {
		return Coordinate{}, ValidationErrorf("invalid coordinate %q: out of range", s)
	}
	return c, nil
}

func parseDegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return v, nil
}

// ParseCoordinates parses every entry, failing on the first invalid one.
// Nothing is fetched until the whole list is known to be valid.
func ParseCoordinates(raw []string) ([]Coordinate, error) {
	coords := make([]Coordinate, 0, len(raw))
	for _, item := range raw {
		c, err := ParseCoordinate(item)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	return coords, nil
}

// ReadCoordinates reads one "lat,lon" per line. Blank lines and lines
// starting with '#' are skipped.
func ReadCoordinates(r io.Reader) ([]Coordinate, error) {
	var coords []Coordinate
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		c, err := ParseCoordinate(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		coords = append(coords, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read coordinates: %w", err)
	}
	return coords, nil
}
