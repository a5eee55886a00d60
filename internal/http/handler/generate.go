package handler

import (
	"bufio"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/locaith/locaith-design/internal/genai"
	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/service"
	"github.com/locaith/locaith-design/internal/session"
)

type generateRequest struct {
	DesignID     string             `json:"design_id"`
	Prompt       string             `json:"prompt"`
	Type         model.DesignType   `json:"type"`
	Assets       []model.ImageAsset `json:"assets"`
	PageCount    int                `json:"page_count"`
	PriorContent string             `json:"prior_content"`
	Title        string             `json:"title"`
}

// GenerateDesign streams a generation round trip as server-sent events.
// Each fragment arrives as `data: {"text": ...}`; the persisted record is
// sent as `data: {"saved": ...}` and the stream closes with `data: [DONE]`.
func GenerateDesign(gen genai.Generator, svc service.DesignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body generateRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed generation payload")
		}
		if strings.TrimSpace(body.Prompt) == "" && len(body.Assets) == 0 {
			return writeError(c, fiber.StatusBadRequest, "PROMPT_REQUIRED", "a prompt or an image is required")
		}
		if len(body.Assets) > model.MaxAssetsPerDesign {
			return writeError(c, fiber.StatusBadRequest, "IMAGE_LIMIT_REACHED", "at most 5 images per generation")
		}
		if !body.Type.Valid() {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TYPE", "unknown design type")
		}

		req := session.Request{
			OwnerID:      ownerID(c),
			DesignID:     body.DesignID,
			Prompt:       body.Prompt,
			Type:         body.Type,
			Assets:       body.Assets,
			PageCount:    body.PageCount,
			PriorContent: body.PriorContent,
			Title:        body.Title,
		}
		ctx := c.UserContext()

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			writeEvent := func(v any) {
				b, err := json.Marshal(v)
				if err != nil {
					return
				}
				w.WriteString("data: ")
				w.Write(b)
				w.WriteString("\n\n")
				w.Flush()
			}

			sess := session.New(gen, svc, session.Hooks{
				OnFragment: func(text string) {
					writeEvent(fiber.Map{"text": text})
				},
				OnSaved: func(d *model.Design) {
					writeEvent(fiber.Map{"saved": d})
				},
			})

			if _, err := sess.Run(ctx, req); err != nil {
				writeEvent(fiber.Map{"error": err.Error()})
			}

			w.WriteString("data: [DONE]\n\n")
			w.Flush()
		}))
		return nil
	}
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// EnhancePrompt rewrites a raw prompt into a detailed brief. A backend
// failure degrades to echoing the input so the editor never blocks on it.
func EnhancePrompt(gen genai.Generator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body promptRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed prompt payload")
		}
		if strings.TrimSpace(body.Prompt) == "" {
			return writeError(c, fiber.StatusBadRequest, "PROMPT_REQUIRED", "prompt is required")
		}

		enhanced, err := gen.EnhancePrompt(c.UserContext(), body.Prompt)
		if err != nil || enhanced == "" {
			enhanced = body.Prompt
		}
		return c.JSON(fiber.Map{"prompt": enhanced})
	}
}

// SuggestTitle proposes a short project title for the prompt, falling
// back to the default on failure.
func SuggestTitle(gen genai.Generator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body promptRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed prompt payload")
		}
		if strings.TrimSpace(body.Prompt) == "" {
			return writeError(c, fiber.StatusBadRequest, "PROMPT_REQUIRED", "prompt is required")
		}

		title, err := gen.SuggestTitle(c.UserContext(), body.Prompt)
		if err != nil || title == "" {
			title = "Untitled Design"
		}
		return c.JSON(fiber.Map{"title": title})
	}
}
