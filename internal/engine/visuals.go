package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/dqalex/OmniSpark/internal/model"
)

// VisualStudio produces and mutates single image artifacts. Both operations
// share one underlying capability; editing differs only by supplying the
// base image as the first media part.
type VisualStudio struct {
	images ImageClient
}

// NewVisualStudio creates a studio backed by the given image client.
func NewVisualStudio(images ImageClient) *VisualStudio {
	return &VisualStudio{images: images}
}

// GenerateScene produces a new image from scratch, optionally grounded in
// reference images for product-identity preservation. The aspect ratio is
// threaded through every call in a concept's visual lineage; changing it
// means full regeneration, not cropping.
func (v *VisualStudio) GenerateScene(ctx context.Context, prompt string, refs []model.MediaPayload, opts model.ImageOptions) (model.MediaPayload, error) {
	if strings.TrimSpace(prompt) == "" {
		return model.MediaPayload{}, errors.New("scene prompt is empty")
	}
	return v.images.GenerateImage(ctx, prompt, refs, opts)
}

// EditScene mutates an existing image given a free-text instruction. When a
// reference image is supplied the instruction is strengthened with an
// explicit identity-preservation directive.
func (v *VisualStudio) EditScene(ctx context.Context, base model.MediaPayload, instruction string, ref *model.MediaPayload, opts model.ImageOptions) (model.MediaPayload, error) {
	if base.Empty() {
		return model.MediaPayload{}, errors.New("base image is empty")
	}
	if strings.TrimSpace(instruction) == "" {
		return model.MediaPayload{}, errors.New("edit instruction is empty")
	}

	media := []model.MediaPayload{base}
	if ref != nil && !ref.Empty() {
		media = append(media, *ref)
		instruction += identityDirective
	}
	return v.images.GenerateImage(ctx, instruction, media, opts)
}
