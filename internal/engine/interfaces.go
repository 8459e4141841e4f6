package engine

import (
	"context"

	"github.com/dqalex/OmniSpark/internal/model"
)

// TextClient abstracts structured and free-form text generation.
// Implementations can wrap the Gemini REST API or stubs.
type TextClient interface {
	GenerateText(ctx context.Context, prompt string, media []model.MediaPayload, wantJSON bool) (string, error)
}

// ImageClient abstracts single-image generation. Editing is the same call
// with the base image supplied as the first media part.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string, media []model.MediaPayload, opts model.ImageOptions) (model.MediaPayload, error)
}

// VideoClient abstracts the long-running video surface: submit, poll,
// resolve.
type VideoClient interface {
	SubmitVideo(ctx context.Context, prompt string, refs []model.MediaPayload, opts model.VideoOptions) (string, error)
	PollVideo(ctx context.Context, operation string) (model.OperationStatus, error)
	DownloadVideo(ctx context.Context, uri string) (model.MediaPayload, error)
}

// ImageAppender receives every produced image artifact. Appends are
// unconditional: they happen before any downstream selection and are never
// rolled back.
type ImageAppender interface {
	AddImage(a model.ImageArtifact)
}

// VideoAppender receives every produced video artifact.
type VideoAppender interface {
	AddVideo(a model.VideoArtifact)
}
