package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/locaith/locaith-design/internal/config"
	"github.com/locaith/locaith-design/internal/database"
	"github.com/locaith/locaith-design/internal/database/migration"
	"github.com/locaith/locaith-design/internal/export"
	"github.com/locaith/locaith-design/internal/genai"
	handlers "github.com/locaith/locaith-design/internal/http/handler"
	"github.com/locaith/locaith-design/internal/http/middleware"
	"github.com/locaith/locaith-design/internal/otel"
	"github.com/locaith/locaith-design/internal/repository"
	"github.com/locaith/locaith-design/internal/repository/memory"
	"github.com/locaith/locaith-design/internal/repository/postgres"
	"github.com/locaith/locaith-design/internal/service"
	"github.com/locaith/locaith-design/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	ctx := context.Background()
	loc := time.UTC

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// PostgreSQL backs signed-in users' designs; guests live in memory.
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Object storage holds rendered thumbnails. Without it, thumbnails are
	// inlined as data URLs instead.
	var objStore storage.Storage
	if cfg.MinIO.Endpoint != "" {
		objStore, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	}

	gen, err := genai.NewClient(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Region, cfg.Vertex.Model, cfg.Vertex.UtilityModel)
	if err != nil {
		log.Fatalf("failed to initialize generation backend: %v", err)
	}
	defer gen.Close()

	ras := export.NewHTTPRasterizer(cfg.Render.Endpoint)
	pipeline := export.NewPipeline(ras, nil)
	thumbs := export.NewThumbnailer(ras, objStore)

	repos := repository.NewSelector(memory.NewDesignMemory(), postgres.NewDesignPostgres(db))
	svc := service.NewDesignService(repos, thumbs)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	handlers.RegisterRoutes(app, db, svc, gen, pipeline)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
