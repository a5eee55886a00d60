// Package genai is the client for the generative backend: streamed design
// generation plus the small title-suggestion and prompt-enhancement calls.
package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"

	"github.com/locaith/locaith-design/internal/model"
)

// Request carries everything one generation or edit round trip needs.
type Request struct {
	Prompt    string
	Type      model.DesignType
	Assets    []model.ImageAsset
	PageCount int
	// PriorContent is the previously accumulated raw content for edit
	// mode; empty for a fresh generation.
	PriorContent string
}

// Edit reports whether the request refines existing content.
func (r Request) Edit() bool {
	return r.PriorContent != ""
}

// Generator is the interface the session controller consumes. The live
// implementation talks to Vertex AI; tests substitute scripted fakes.
type Generator interface {
	// StreamDesign opens a streaming generation and invokes onChunk for
	// every text fragment, in arrival order, until end of stream.
	StreamDesign(ctx context.Context, req Request, onChunk func(text string)) error

	// SuggestTitle returns a short project title for the prompt, in the
	// prompt's own language.
	SuggestTitle(ctx context.Context, prompt string) (string, error)

	// EnhancePrompt rewrites a raw prompt into a detailed design brief,
	// in the prompt's own language.
	EnhancePrompt(ctx context.Context, prompt string) (string, error)
}

// Client holds the pre-configured generative models for the studio.
type Client struct {
	designModel     *genai.GenerativeModel
	invitationModel *genai.GenerativeModel
	utilityModel    *genai.GenerativeModel
	baseClient      *genai.Client
}

var _ Generator = (*Client)(nil)

// NewClient creates a Vertex AI client with the design, invitation and
// utility models configured.
func NewClient(ctx context.Context, projectID, region, modelName, utilityModelName string) (*Client, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("genai.NewClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	designModel := baseClient.GenerativeModel(modelName)
	designModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(designSystemPrompt)},
	}
	designModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.7),
	}

	invitationModel := baseClient.GenerativeModel(modelName)
	invitationModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(invitationSystemPrompt)},
	}
	invitationModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.8),
	}

	utilityModel := baseClient.GenerativeModel(utilityModelName)

	return &Client{
		designModel:     designModel,
		invitationModel: invitationModel,
		utilityModel:    utilityModel,
		baseClient:      baseClient,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// StreamDesign streams a design generation, invoking onChunk per fragment.
func (c *Client) StreamDesign(ctx context.Context, req Request, onChunk func(text string)) error {
	m := c.designModel
	if req.Type == model.TypeInvitation {
		m = c.invitationModel
	}

	var text string
	if req.Edit() {
		text = buildEditPrompt(req)
	} else {
		text = buildUserPrompt(req)
	}

	parts := make([]genai.Part, 0, len(req.Assets)+1)
	for _, a := range req.Assets {
		blob, err := assetBlob(a)
		if err != nil {
			continue // unusable payloads are skipped, not fatal
		}
		parts = append(parts, blob)
	}
	parts = append(parts, genai.Text(text))

	iter := m.GenerateContentStream(ctx, parts...)
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("generation stream: %w", err)
		}
		if chunk := extractText(resp); chunk != "" {
			onChunk(chunk)
		}
	}
}

// SuggestTitle generates a short project title for the prompt.
func (c *Client) SuggestTitle(ctx context.Context, prompt string) (string, error) {
	resp, err := c.utilityModel.GenerateContent(ctx, genai.Text(fmt.Sprintf(titlePromptTemplate, prompt)))
	if err != nil {
		return "", fmt.Errorf("suggest title: %w", err)
	}
	return strings.TrimSpace(extractText(resp)), nil
}

// EnhancePrompt rewrites a raw prompt into a detailed brief.
func (c *Client) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	resp, err := c.utilityModel.GenerateContent(ctx, genai.Text(fmt.Sprintf(enhancePromptTemplate, prompt)))
	if err != nil {
		return "", fmt.Errorf("enhance prompt: %w", err)
	}
	return strings.TrimSpace(extractText(resp)), nil
}

// assetBlob converts an inline data URL into a model input blob.
func assetBlob(a model.ImageAsset) (genai.Blob, error) {
	payload := a.Data
	mimeType := "image/png"
	if strings.HasPrefix(payload, "data:") {
		meta, b64, ok := strings.Cut(payload, ",")
		if !ok {
			return genai.Blob{}, fmt.Errorf("asset %s: malformed data url", a.ID)
		}
		payload = b64
		if mt, _, found := strings.Cut(strings.TrimPrefix(meta, "data:"), ";"); found && mt != "" {
			mimeType = mt
		}
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return genai.Blob{}, fmt.Errorf("asset %s: decode payload: %w", a.ID, err)
	}
	return genai.Blob{MIMEType: mimeType, Data: raw}, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
