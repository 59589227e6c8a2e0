package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"

	"github.com/i474232898/coord-weather/internal/config"
	"github.com/i474232898/coord-weather/internal/logging"
	"github.com/i474232898/coord-weather/internal/output"
	"github.com/i474232898/coord-weather/internal/weather"
	"github.com/i474232898/coord-weather/internal/weather/providers"
)

// Exit codes.
const (
	exitOK       = 0
	exitProvider = 1
	exitUsage    = 2
)

var validate = newValidator()

// newValidator reports field errors by flag name instead of Go field name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("flag")
	})
	return v
}

// cliOptions holds the parsed command line.
type cliOptions struct {
	Provider     string        `flag:"provider" validate:"required,oneof=openweather accuweather weatherapi openmeteo"`
	Coords       []string      `flag:"coords"`
	CoordsFile   string        `flag:"coords-file"`
	Format       string        `flag:"format" validate:"oneof=json csv"`
	Out          string        `flag:"out"`
	DelaySeconds float64       `flag:"delay-seconds" validate:"gte=0,lte=3600"`
	KeepGoing    bool          `flag:"keep-going"`
	Timeout      time.Duration `flag:"timeout" validate:"gte=0"`

	OpenWeatherAPIKey string `flag:"openweather-api-key"`
	AccuWeatherAPIKey string `flag:"accuweather-api-key"`
	WeatherAPIKey     string `flag:"weatherapi-api-key"`
}

func newFlagSet(opts *cliOptions, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("weather-cli", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: weather-cli --provider NAME [--coords LAT,LON ...] [LAT,LON ...]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Fetch current weather for each coordinate from one provider.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	fs.StringVarP(&opts.Provider, "provider", "p", "", "provider: "+strings.Join(weather.ProviderNames, ", "))
	fs.StringArrayVarP(&opts.Coords, "coords", "c", nil, "coordinate as lat,lon (repeatable)")
	fs.StringVar(&opts.CoordsFile, "coords-file", "", "file with one lat,lon per line (# starts a comment)")
	fs.StringVarP(&opts.Format, "format", "f", string(output.FormatJSON), "output format: json or csv")
	fs.StringVarP(&opts.Out, "out", "o", "", "write output to this file instead of stdout")
	fs.Float64Var(&opts.DelaySeconds, "delay-seconds", 0, "pause between provider calls, at most 3600")
	fs.BoolVar(&opts.KeepGoing, "keep-going", false, "continue past failed coordinates and write partial output")
	fs.DurationVar(&opts.Timeout, "timeout", 0, "per-request HTTP timeout (default HTTP_TIMEOUT)")
	fs.StringVar(&opts.OpenWeatherAPIKey, "openweather-api-key", "", "overrides OPENWEATHER_API_KEY")
	fs.StringVar(&opts.AccuWeatherAPIKey, "accuweather-api-key", "", "overrides ACCUWEATHER_API_KEY")
	fs.StringVar(&opts.WeatherAPIKey, "weatherapi-api-key", "", "overrides WEATHERAPI_API_KEY")
	return fs
}

// run executes the CLI and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts cliOptions
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		fs.Usage()
		return exitUsage
	}
	opts.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	opts.Format = strings.ToLower(strings.TrimSpace(opts.Format))
	opts.Coords = append(opts.Coords, fs.Args()...)

	if err := validate.Struct(opts); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", describeValidation(err))
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	logger := logging.New(stderr, cfg.AppEnv, cfg.LogLevel, "weather-cli")

	creds := cfg.Credentials()
	if fs.Changed("openweather-api-key") {
		creds.OpenWeatherAPIKey = strings.TrimSpace(opts.OpenWeatherAPIKey)
	}
	if fs.Changed("accuweather-api-key") {
		creds.AccuWeatherAPIKey = strings.TrimSpace(opts.AccuWeatherAPIKey)
	}
	if fs.Changed("weatherapi-api-key") {
		creds.WeatherAPIKey = strings.TrimSpace(opts.WeatherAPIKey)
	}

	timeout := cfg.HTTPTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	coords, err := loadCoordinates(opts)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	registry := providers.NewRegistry(&http.Client{Timeout: timeout}, creds)
	return fetchAndWrite(ctx, weather.NewService(registry, logger), opts, coords, format, stdout, stderr)
}

// fetchAndWrite runs the batch and writes the readings.
func fetchAndWrite(
	ctx context.Context,
	service *weather.Service,
	opts cliOptions,
	coords []weather.Coordinate,
	format output.Format,
	stdout, stderr io.Writer,
) int {
	result, err := service.Run(ctx, opts.Provider, coords, weather.RunOptions{
		Delay:    time.Duration(opts.DelaySeconds * float64(time.Second)),
		FailFast: !opts.KeepGoing,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	if err := writeReadings(result.Readings, format, opts.Out, stdout); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitProvider
	}

	for _, ce := range result.Errors {
		fmt.Fprintf(stderr, "error: %s: %s\n", ce.Coordinate, ce.Message)
	}
	if len(result.Errors) > 0 {
		return exitProvider
	}
	return exitOK
}

// loadCoordinates picks --coords-file, then --coords and positional
// arguments, then the built-in sample points.
func loadCoordinates(opts cliOptions) ([]weather.Coordinate, error) {
	if opts.CoordsFile != "" {
		f, err := os.Open(opts.CoordsFile)
		if err != nil {
			return nil, weather.ValidationErrorf("open coords file: %v", err)
		}
		defer f.Close()

		coords, err := weather.ReadCoordinates(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.CoordsFile, err)
		}
		if len(coords) == 0 {
			return nil, weather.ValidationErrorf("%s: no coordinates found", opts.CoordsFile)
		}
		return coords, nil
	}

	var values []string
	for _, v := range opts.Coords {
		if s := strings.TrimSpace(v); s != "" {
			values = append(values, s)
		}
	}
	if len(values) == 0 {
		return weather.DefaultSampleCoordinates, nil
	}
	return weather.ParseCoordinates(values)
}

func writeReadings(readings []weather.Reading, format output.Format, path string, stdout io.Writer) error {
	if path == "" {
		return output.Write(stdout, readings, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := output.Write(f, readings, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exitCodeFor(err error) int {
	if errors.Is(err, weather.ErrValidation) || errors.Is(err, weather.ErrConfiguration) {
		return exitUsage
	}
	return exitProvider
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("--%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("--%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("--%s is invalid (%s %s)", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}
