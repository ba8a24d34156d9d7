package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"creditapi/internal/service"
)

// RegisterRoutes attaches the API routes to the provided Fiber app. Handlers
// stay thin; all business logic lives in the injected service.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.ReportService) {
	api := app.Group("/api")

	api.Get("/health", HealthCheck(db))
	api.Post("/upload", UploadReport(svc))
	api.Get("/reports", ListReports(svc))
	api.Get("/reports/:id", GetReport(svc))
	api.Get("/reports/:id/file", DownloadReport(svc))
	api.Delete("/reports/:id", DeleteReport(svc))

	app.Get("/metrics", Metrics())
}

// Metrics serves the Prometheus registry through a fasthttp adaptor since
// Fiber does not speak net/http directly.
func Metrics() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}
