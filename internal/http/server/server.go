// Package server assembles the Fiber application.
package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pdf-service/internal/config"
	"pdf-service/internal/http/handlers"
	"pdf-service/internal/http/middleware"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Config   config.Config
	Renderer handlers.PDFRenderer
	Engine   handlers.EngineStatser
}

// New creates and configures a new Fiber app instance
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               d.Config.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             d.Config.Server.BodyLimitBytes,
		ErrorHandler:          handlers.ErrorHandler,
	})

	middleware.Register(app)
	registerRoutes(app, d)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func registerRoutes(app *fiber.App, d Deps) {
	pdf := handlers.NewPDFHandler(d.Renderer)

	// Legacy contract, kept byte-compatible for existing consumers.
	app.Post("/api/Utility/GeneratePdf", pdf.HandleLegacy)

	api := app.Group("/api/pdf")
	api.Post("/generate", pdf.HandleGenerate)
	api.Post("/download", pdf.HandleDownload)

	app.Get("/health", handlers.HandleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	ops := app.Group("/ops")
	if d.Engine != nil {
		ops.Get("/engine", handlers.HandleEngineStats(d.Engine))
	}
	ops.Get("/monitor", monitor.New())
}
