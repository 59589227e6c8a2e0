package web

import (
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/coord-weather/internal/weather"
)

//go:embed templates/*.html
var templatesFS embed.FS

var formTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// FormOptions is fixed at startup from configuration.
type FormOptions struct {
	// APIBaseURL is prefixed to /api/weather; empty means same origin.
	APIBaseURL         string
	DefaultProvider    string
	ShowProviderSelect bool
}

// formData is the view model for index.html.
type formData struct {
	APIBaseURL         string
	DefaultProvider    string
	ShowProviderSelect bool
	Providers          []string
	SampleCoordinates  string
}

// RegisterRoutes serves the form at "/".
func RegisterRoutes(app *fiber.App, opts FormOptions) {
	data := formData{
		APIBaseURL:         opts.APIBaseURL,
		DefaultProvider:    opts.DefaultProvider,
		ShowProviderSelect: opts.ShowProviderSelect,
		Providers:          weather.ProviderNames,
		SampleCoordinates:  weather.DefaultSampleCoordinates[0].String(),
	}
	if data.DefaultProvider == "" {
		data.DefaultProvider = weather.ProviderOpenMeteo
	}

	app.Get("/", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return formTmpl.ExecuteTemplate(c, "index.html", data)
	})
}
