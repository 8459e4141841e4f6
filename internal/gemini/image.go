package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dqalex/OmniSpark/internal/model"
)

// GenerateImage produces exactly one image from a prompt plus optional
// reference media. Editing is the same call with the base image as the first
// media part. The quality tier is selected by model identifier via
// opts.HighRes.
func (c *Client) GenerateImage(ctx context.Context, prompt string, media []model.MediaPayload, opts model.ImageOptions) (model.MediaPayload, error) {
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
			ResponseModalities: []string{"IMAGE"},
		},
	}
	if opts.AspectRatio != "" {
		req.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: opts.AspectRatio}
	}

	modelID := c.imageModel
	if opts.HighRes && c.imageModelHQ != "" {
		modelID = c.imageModelHQ
	}

	raw, err := c.postJSON(ctx, c.modelPath(modelID, "generateContent"), req)
	if err != nil {
		return model.MediaPayload{}, classify(err, "image generation")
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return model.MediaPayload{}, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return model.MediaPayload{}, fmt.Errorf("api error: %s", decoded.Error.Message)
	}

	payload, ok := firstImage(decoded)
	if !ok {
		return model.MediaPayload{}, model.NewGenerationError(model.KindEmptyResult, "no image produced")
	}
	return payload, nil
}

func firstImage(resp generateContentResponse) (model.MediaPayload, bool) {
	if len(resp.Candidates) == 0 {
		return model.MediaPayload{}, false
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil || len(data) == 0 {
			continue
		}
		return model.MediaPayload{MimeType: p.InlineData.MimeType, Data: data}, true
	}
	return model.MediaPayload{}, false
}
