package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/locaith/locaith-design/internal/export"
	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/service"
)

// Exporter renders a design into a downloadable artifact.
type Exporter interface {
	Export(ctx context.Context, d *model.Design, display string, format export.Format) (*export.Artifact, error)
}

// ownerID resolves the caller identity. An absent header means a guest
// session backed by the in-memory store.
func ownerID(c *fiber.Ctx) string {
	if id := c.Get("X-User-ID"); id != "" {
		return id
	}
	return "guest"
}

// mapServiceError translates service sentinels into the standard error
// payload.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "design id is required")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "design not found")
	case errors.Is(err, service.ErrNotOwner):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "design belongs to another user")
	case errors.Is(err, service.ErrInvalidType):
		return writeError(c, fiber.StatusBadRequest, "INVALID_TYPE", "unknown design type")
	case errors.Is(err, service.ErrTooManyAssets):
		return writeError(c, fiber.StatusBadRequest, "IMAGE_LIMIT_REACHED", "at most 5 images per design")
	case errors.Is(err, service.ErrAssetTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "image exceeds the 2MB limit")
	case errors.Is(err, service.ErrAssetMissing):
		return writeError(c, fiber.StatusNotFound, "ASSET_NOT_FOUND", "image asset not found")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is the simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListDesigns returns the caller's designs with limit & offset.
func ListDesigns(svc service.DesignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), ownerID(c), limit, offset)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// SaveDesign upserts a design record. The body carries the design as
// JSON; ownership always comes from the request identity, never the body.
func SaveDesign(svc service.DesignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var d model.Design
		if err := c.BodyParser(&d); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed design payload")
		}
		d.OwnerID = ownerID(c)

		stored, err := svc.Save(c.UserContext(), &d)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(stored)
	}
}

// GetDesign returns a design by ID. With ?display=true the response also
// carries the substituted display content.
func GetDesign(svc service.DesignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		d, err := svc.Get(c.UserContext(), ownerID(c), id)
		if err != nil {
			return mapServiceError(c, err)
		}
		if c.QueryBool("display") {
			return c.JSON(fiber.Map{"design": d, "display": svc.Display(d)})
		}
		return c.JSON(d)
	}
}

// DeleteDesign removes a design by ID.
func DeleteDesign(svc service.DesignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), ownerID(c), id); err != nil {
			return mapServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type assetRequest struct {
	Data        string `json:"data"`
	Context     string `json:"context"`
	Description string `json:"description"`
}

// AddDesignAsset attaches an uploaded image (as a data URL) to a design.
func AddDesignAsset(svc service.DesignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body assetRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed asset payload")
		}
		if body.Data == "" {
			return writeError(c, fiber.StatusBadRequest, "IMAGE_REQUIRED", "image data is required")
		}

		d, err := svc.AddAsset(c.UserContext(), ownerID(c), id, body.Data, model.ImageContext(body.Context), body.Description)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	}
}

// UpdateDesignAsset edits an asset's context or description.
func UpdateDesignAsset(svc service.DesignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body assetRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed asset payload")
		}

		d, err := svc.UpdateAsset(c.UserContext(), ownerID(c), id, c.Params("assetId"), model.ImageContext(body.Context), body.Description)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(d)
	}
}

// RemoveDesignAsset detaches an asset from a design.
func RemoveDesignAsset(svc service.DesignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		d, err := svc.RemoveAsset(c.UserContext(), ownerID(c), id, c.Params("assetId"))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(d)
	}
}

// ExportDesign renders a design into the requested format and returns it
// as an attachment. The caller must confirm its preview finished loading
// images (images_loaded=true); exporting a half-loaded preview produces
// blank boxes, so the request is refused until then.
func ExportDesign(svc service.DesignService, exp Exporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		format := export.Format(c.Query("format", string(export.FormatPDF)))
		if !format.Valid() {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORMAT", "format must be png, pdf or pptx")
		}
		if !c.QueryBool("images_loaded") {
			return writeError(c, fiber.StatusConflict, "WAIT_FOR_IMAGES", "preview images are still loading")
		}

		d, err := svc.Get(c.UserContext(), ownerID(c), id)
		if err != nil {
			return mapServiceError(c, err)
		}

		art, err := exp.Export(c.UserContext(), d, svc.Display(d), format)
		if err != nil {
			if errors.Is(err, export.ErrNoPages) {
				return writeError(c, fiber.StatusUnprocessableEntity, "NO_PAGES", "design has no pages to export")
			}
			return writeError(c, fiber.StatusInternalServerError, "EXPORT_FAILED", "export failed")
		}

		c.Set(fiber.HeaderContentType, art.ContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+art.Filename+`"`)
		return c.Send(art.Data)
	}
}
