// Package server is the HTTP API: layout calculation, report generation,
// irradiance lookup, ROI and scenario comparison.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/piwi3910/SolarLayout/internal/config"
	"github.com/piwi3910/SolarLayout/internal/metrics"
)

// NewApp builds the Fiber application with middleware and routes.
func NewApp(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "SolarLayout API",
		ErrorHandler: ErrorHandler,
	})
	app.Use(recover.New())
	// The planner UI is embedded in third-party pages
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	SetupRoutes(app, deps)
	return app
}

// SetupRoutes registers all routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Get("/health", HealthHandler(deps))

	api := app.Group("/api")
	api.Post("/calculate-panels", CalculatePanelsHandler(deps))
	api.Post("/generate-pdf", GeneratePDFHandler(deps))
	api.Post("/get-solar-data", SolarDataHandler(deps))
	api.Post("/calculate-roi", ROIHandler(deps))
	api.Post("/compare-scenarios", CompareScenariosHandler(deps))
}
