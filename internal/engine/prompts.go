package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// conceptFraming captures how a mode changes the generation instructions:
// the persona/objective, and what the storyboard and script fields mean.
type conceptFraming struct {
	persona    string
	storyboard string
	script     string
}

var framings = map[string]conceptFraming{
	"video": {
		persona:    "You are a short-form video ad director crafting scroll-stopping product commercials.",
		storyboard: "an ordered shot list describing each scene of the video",
		script:     "the spoken narration, written to be read aloud",
	},
	"image": {
		persona:    "You are a social media art director planning a cohesive product image series.",
		storyboard: "an ordered list of the images in the series",
		script:     "the social caption accompanying the series",
	},
	"pdp": {
		persona:    "You are an e-commerce conversion designer structuring a product detail page.",
		storyboard: "an ordered list of the page sections from hero to footer",
		script:     "the marketing copy for the page",
	},
}

func buildConceptPrompt(name, description, direction, mode string, count int) string {
	f := framings[mode]
	return fmt.Sprintf(`%s

Product name: %s
Product description: %s
Creative direction: %s

Propose exactly %d distinct creative concepts. Output ONLY a valid JSON array (no markdown, no explanation) where each element has this exact structure:
{"title": "...", "narrative": "...", "script": "...", "storyboard": "...", "image_prompt": "..."}

Field meanings:
- title: a short memorable concept name
- narrative: 2-3 sentences on the creative idea and why it sells this product
- script: %s
- storyboard: %s
- image_prompt: a single detailed prompt for generating the concept's key visual, faithful to the product's appearance

Rules:
- Every field must be non-empty
- Concepts must be meaningfully different from each other
- Honor the creative direction in tone and content`,
		f.persona, name, truncateRunes(description, 6000), direction, count, f.script, f.storyboard)
}

func buildShotParsePrompt(storyboard, mode string, count int) string {
	unit := "shot"
	switch mode {
	case "image":
		unit = "image"
	case "pdp":
		unit = "section visual"
	}
	return fmt.Sprintf(`You are a storyboard breakdown assistant. Split the following storyboard into exactly %d discrete %ss.

Output ONLY a valid JSON array of exactly %d elements (no markdown, no explanation), each with this exact structure:
{"label": "...", "instruction": "..."}

Rules:
- label: 2-4 words naming the %s
- instruction: one precise image-editing instruction that transforms a base product photo into this %s
- Keep the original order
- Exactly %d elements, never more, never fewer

Storyboard:
%s`, count, unit, count, unit, unit, count, truncateRunes(storyboard, 6000))
}

// identityDirective is appended to edit instructions when a reference image
// is supplied, forcing the provider to keep product identity intact.
const identityDirective = "\n\nPreserve the exact product identity from the reference image: keep the logo, colors, shape, and proportions unchanged. Do not restyle or redesign the product itself."

func buildVideoPrompt(script string) string {
	return fmt.Sprintf(`Produce a polished product advertisement video grounded in the supplied reference images.

Narration to follow:
%s

Keep the product's appearance faithful to the references across all frames. Smooth camera motion, commercial lighting, no on-screen text.`, truncateRunes(script, 4000))
}

// stripJSONFences removes a markdown code fence around a JSON body, which
// some models emit even when asked not to.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// truncateRunes truncates s to maxRunes runes (Unicode-safe).
func truncateRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "\n... [truncated]"
}
