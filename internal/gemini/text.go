package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dqalex/OmniSpark/internal/model"
)

// GenerateText sends a prompt, optionally with reference media attached as
// multimodal parts, and returns the response text. When wantJSON is set the
// provider is asked for a JSON-typed response body.
func (c *Client) GenerateText(ctx context.Context, prompt string, media []model.MediaPayload, wantJSON bool) (string, error) {
	parts := []part{{Text: prompt}}
	for _, m := range media {
		if m.Empty() {
			continue
		}
		parts = append(parts, part{InlineData: &blob{
			MimeType: m.MimeType,
			Data:     base64.StdEncoding.EncodeToString(m.Data),
		}})
	}

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			Temperature: 0.7,
		},
	}
	if wantJSON {
		req.GenerationConfig.ResponseMIMEType = "application/json"
	}

	raw, err := c.postJSON(ctx, c.modelPath(c.textModel, "generateContent"), req)
	if err != nil {
		return "", classify(err, "text generation")
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("api error: %s", decoded.Error.Message)
	}

	text := collectText(decoded)
	if strings.TrimSpace(text) == "" {
		return "", model.NewGenerationError(model.KindEmptyResult, "no text in response")
	}
	return text, nil
}

func collectText(resp generateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
