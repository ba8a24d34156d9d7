package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"creditapi/docs"
	"creditapi/internal/config"
	"creditapi/internal/database"
	"creditapi/internal/database/migration"
	handlers "creditapi/internal/http/handler"
	"creditapi/internal/http/middleware"
	"creditapi/internal/otel"
	"creditapi/internal/repository/postgres"
	"creditapi/internal/service"
	"creditapi/internal/storage"
)

// @title Credit Report API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Initialize tracing; degrades to a noop provider when the exporter is unreachable
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Create the reports schema on first start
	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Raw-XML archive is optional; without an endpoint uploads are not archived
	archive := storage.NewNoop()
	if cfg.MinIO.Enabled() {
		archive, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	}

	// Initialize repository and service
	repo := postgres.NewReportPostgres(db)
	svc := service.NewReportService(repo, archive, cfg.Upload.StagingDir)

	app := fiber.New(fiber.Config{
		// Streaming keeps oversized bodies from being rejected inside
		// fasthttp before the upload handler can answer with the 400 contract.
		BodyLimit:         handlers.MaxRequestBodyBytes,
		StreamRequestBody: true,
		ErrorHandler:      handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(cors.New())
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	prom, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(prom.Handler())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, svc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	// Browser client
	app.Static("/", "./web")

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
