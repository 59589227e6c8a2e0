package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/i474232898/coord-weather/internal/metrics"
	"github.com/i474232898/coord-weather/internal/weather"
	"github.com/i474232898/coord-weather/internal/web"
)

// AppOptions configures NewApp.
type AppOptions struct {
	Routes RouteOptions
	Form   web.FormOptions

	CORSAllowedOrigins string
	// WriteTimeout should cover a full batch of provider calls.
	WriteTimeout time.Duration
	// AccessLog enables Fiber's request logger.
	AccessLog bool
}

// NewApp builds the Fiber app serving the form, the weather API, health and metrics.
func NewApp(service *weather.Service, opts AppOptions) *fiber.App {
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Minute
	}

	app := fiber.New(fiber.Config{
		AppName:               "coord-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          writeTimeout,
		ErrorHandler:          ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}?${queryParams}\n",
		}))
	}
	app.Use(metrics.Middleware())

	allowOrigins := opts.CORSAllowedOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: fiber.MethodGet,
	}))

	app.Get("/metrics", metrics.Handler())
	web.RegisterRoutes(app, opts.Form)
	RegisterRoutes(app, service, opts.Routes)

	return app
}
