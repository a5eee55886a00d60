package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/locaith/locaith-design/internal/genai"
	"github.com/locaith/locaith-design/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; everything flows through the
// design service, the generation backend and the export pipeline.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.DesignService, gen genai.Generator, exp Exporter) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/designs", ListDesigns(svc))
	app.Post("/designs", SaveDesign(svc))
	app.Get("/designs/:id", GetDesign(svc))
	app.Delete("/designs/:id", DeleteDesign(svc))

	app.Post("/designs/:id/assets", AddDesignAsset(svc))
	app.Patch("/designs/:id/assets/:assetId", UpdateDesignAsset(svc))
	app.Delete("/designs/:id/assets/:assetId", RemoveDesignAsset(svc))

	app.Get("/designs/:id/export", ExportDesign(svc, exp))

	app.Post("/generate", GenerateDesign(gen, svc))
	app.Post("/prompts/enhance", EnhancePrompt(gen))
	app.Post("/prompts/title", SuggestTitle(gen))
}
