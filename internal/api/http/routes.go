package httpapi

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/coord-weather/internal/weather"
)

var validate = validator.New()

// RouteOptions configures the weather endpoint.
type RouteOptions struct {
	DefaultProvider string
	MaxCoordinates  int
	Delay           time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, opts RouteOptions) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "coord-weather",
		})
	})

	api := app.Group("/api")

	api.Get("/weather", func(c *fiber.Ctx) error {
		q, err := parseWeatherQuery(c, opts.DefaultProvider)
		if err != nil {
			return err
		}

		coords, err := weather.ParseCoordinates(q.Coords)
		if err != nil {
			return err
		}
		if len(coords) == 0 {
			coords = weather.DefaultSampleCoordinates[:1]
		}
		if opts.MaxCoordinates > 0 && len(coords) > opts.MaxCoordinates {
			return weather.ValidationErrorf("too many coordinates: %d (max %d)", len(coords), opts.MaxCoordinates)
		}

		result, err := service.Run(c.UserContext(), q.Provider, coords, weather.RunOptions{
			Delay:    opts.Delay,
			FailFast: true,
		})
		if err != nil {
			return err
		}

		return c.JSON(result.Readings)
	})
}

// weatherQuery holds query parameters for the weather endpoint.
type weatherQuery struct {
	Provider string `validate:"required,oneof=openweather accuweather weatherapi openmeteo"`
	Coords   []string
}

// parseWeatherQuery reads provider and every coords value. Each coords value
// is one "lat,lon" pair; blank values are skipped.
func parseWeatherQuery(c *fiber.Ctx, defaultProvider string) (weatherQuery, error) {
	var q weatherQuery

	q.Provider = strings.ToLower(strings.TrimSpace(c.Query("provider")))
	if q.Provider == "" {
		q.Provider = defaultProvider
	}

	for _, v := range c.Context().QueryArgs().PeekMulti("coords") {
		if s := strings.TrimSpace(string(v)); s != "" {
			q.Coords = append(q.Coords, s)
		}
	}

	if err := validate.Struct(q); err != nil {
		return q, weather.ValidationErrorf("unsupported provider %q (allowed: %s)", q.Provider, strings.Join(weather.ProviderNames, ", "))
	}

	return q, nil
}
