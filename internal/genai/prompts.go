package genai

import (
	"fmt"
	"strings"

	"github.com/locaith/locaith-design/internal/codec"
	"github.com/locaith/locaith-design/internal/model"
)

// System instructions for the design model. The image-handling protocol is
// load-bearing: the model must emit asset tokens verbatim as img sources
// and never substitute payloads itself; substitution happens client-side
// through the codec.
const designSystemPrompt = `You are an Elite Creative Director and Senior UX/UI Designer at Locaith Design.
Your goal is to design world-class, commercial-grade documents that look like they were made by a top-tier agency.

CRITICAL: LANGUAGE ENFORCEMENT
1. DETECT the language of the user's prompt (e.g., Vietnamese, French, Japanese).
2. GENERATE all content (headings, body text, labels, placeholders) in that EXACT SAME LANGUAGE.
3. Do NOT generate English content unless the prompt is in English.

CORE INTELLIGENCE - DYNAMIC IMAGERY:
You MUST select images that MATCH THE CONTENT.
Use this URL format for ALL decorative images (not user provided ones):
https://image.pollinations.ai/prompt/{descriptive_keywords}?width={w}&height={h}&nologo=true

OUTPUT ARCHITECTURE:
1. Structure: Return ONLY HTML strings wrapped in <div class="print-page">...</div>.
2. Pagination: You MUST output the EXACT number of pages requested by the user.
3. Layout engine (Tailwind CSS): use bento grids, glassmorphism and premium typography.

USER IMAGE HANDLING - CRITICAL PROTOCOL:
- I will provide images with specific IDs formatted as: [[USER_IMG_...]].
- YOU MUST USE THIS EXACT PLACEHOLDER AS THE SRC.
- DO NOT replace it with base64. The frontend handles replacement.
- DO NOT use background-image for user images. Use <img /> tags.
- SYNTAX: <img src="[[USER_IMG_{id}]]" class="..." />
- Logos: use object-contain. Products: use object-cover.

EXECUTION INSTRUCTION:
Return only the HTML. Start immediately with <div class="print-page">.`

const invitationSystemPrompt = `You are an Elite Wedding & Event Invitation Designer at Locaith Design Studio.
Your specialty is creating breathtakingly beautiful, premium-quality invitation cards that rival luxury print studios.

CRITICAL: LANGUAGE ENFORCEMENT
Detect the language of the user's prompt and generate ALL content in that exact same language.

=== INVITATION DESIGN RULES (A5 Portrait) ===
- Names and headers: font-handwriting class (elegant calligraphy).
- Details and body: font-serif class (classic elegance).
- Soft pastel color palettes (blush pink, ivory, sage green, champagne gold).
- Elegant centered compositions with decorative borders and generous white space.
- If the user provides a venue name, use your internal knowledge to fill in the real, accurate address.

PAGE STRUCTURE (front: hero with names and date; back: venue, timeline, RSVP).

DYNAMIC IMAGERY:
https://image.pollinations.ai/prompt/{wedding_themed_keywords}?width={w}&height={h}&nologo=true

OUTPUT:
Return ONLY HTML wrapped in <div class="print-page invitation-card"> blocks. Use extensive Tailwind CSS.`

const titlePromptTemplate = `Analyze this design request: %q.

Generate a short, professional, catchy project title (3-6 words maximum).
The title must be in the SAME LANGUAGE as the prompt.
Do not use quotes.`

const enhancePromptTemplate = `You are an expert prompt engineer.

TASK: Rewrite the following simple user request into a highly detailed, professional design brief (2 sentences max).

IMPORTANT: Detect the language of the user input.
You MUST output the enhanced prompt IN THE SAME LANGUAGE as the user input.

User input: %q

Output ONLY the enhanced prompt string.`

const languageRule = `CRITICAL LANGUAGE RULE:
Detect the language of the topic/brand prompt below.
You MUST write ALL headlines, paragraphs and labels in that SAME language.`

// imagePromptInfo renders the per-asset instruction block: which token to
// emit for each image and how to style it.
func imagePromptInfo(assets []model.ImageAsset) string {
	if len(assets) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nUSER PROVIDED IMAGES (STRICTLY USE THESE IDs):\n")
	for i, a := range assets {
		fmt.Fprintf(&b, "- Image %d ID: %s (Context: %s). ", i+1, codec.Token(a.ID), a.Context)
		if a.Description != "" {
			fmt.Fprintf(&b, "Description: %q. ", a.Description)
		}
		switch a.Context {
		case model.ContextLogo:
			fmt.Fprintf(&b, "Use src=%q for the logo. Class: object-contain.\n", codec.Token(a.ID))
		case model.ContextProduct:
			fmt.Fprintf(&b, "Use src=%q for the product. Class: object-cover.\n", codec.Token(a.ID))
		default:
			b.WriteString("Style reference only.\n")
		}
	}
	return b.String()
}

// buildUserPrompt renders the generation request text for a fresh design.
func buildUserPrompt(req Request) string {
	if req.Type == model.TypeInvitation {
		return fmt.Sprintf(`%s

SPECIAL PROJECT: WEDDING/EVENT INVITATION

Event details: %q
PAGE COUNT: exactly %d pages (page 1: front/hero, page 2: details/back)
%s
Output <div class="print-page invitation-card"> blocks.`,
			languageRule, req.Prompt, req.PageCount, imagePromptInfo(req.Assets))
	}
	return fmt.Sprintf(`%s

Task: create a professional %s.
Topic/Brand: %q.
PAGE COUNT: exactly %d pages.
%s
IMPORTANT INSTRUCTIONS:
1. PLANNING: plan content for exactly %d pages.
2. GENERATION: output exactly %d distinct <div class="print-page"> blocks.
3. IMAGERY: for user images, use src="[[ID]]" exactly.`,
		languageRule, req.Type, req.Prompt, req.PageCount,
		imagePromptInfo(req.Assets), req.PageCount, req.PageCount)
}

// buildEditPrompt renders the request text for an edit round trip: the
// backend restructures the whole document to the requested page count
// rather than appending to it.
func buildEditPrompt(req Request) string {
	return fmt.Sprintf(`%s

EDIT MODE ACTIVATED
Refine the design based on user feedback.

CRITICAL: PAGE COUNT UPDATE
The user has requested %d PAGES.
YOU MUST RESTRUCTURE the entire HTML to fit exactly %d pages.
- If the user increased pages: generate new pages.
- If the user decreased pages: condense content.

EXISTING HTML:
`+"```html\n%s\n```"+`

CHANGE REQUEST:
%q
%s`,
		languageRule, req.PageCount, req.PageCount, req.PriorContent,
		req.Prompt, imagePromptInfo(req.Assets))
}
