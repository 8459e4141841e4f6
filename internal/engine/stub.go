package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dqalex/OmniSpark/internal/model"
)

// StubProvider returns canned generation results (for development without a
// provider key, and for tests). It implements TextClient, ImageClient, and
// VideoClient.
type StubProvider struct{}

// stubPNG is a 1x1 transparent PNG.
var stubPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func (s *StubProvider) GenerateText(_ context.Context, prompt string, _ []model.MediaPayload, _ bool) (string, error) {
	if strings.Contains(prompt, "creative concepts") {
		payloads := make([]conceptPayload, 0, ConceptCount)
		for i := 1; i <= ConceptCount; i++ {
			payloads = append(payloads, conceptPayload{
				Title:       fmt.Sprintf("[Stub] Concept %d", i),
				Narrative:   "A stub creative narrative that positions the product around a single memorable moment.",
				Script:      "Stub script copy: meet the product that changes your morning.",
				Storyboard:  "1. Opening product reveal. 2. Feature close-up. 3. Lifestyle moment. 4. Closing call to action.",
				ImagePrompt: "Studio photo of the product on a seamless background, soft key light.",
			})
		}
		b, _ := json.Marshal(payloads)
		return string(b), nil
	}

	if strings.Contains(prompt, "storyboard breakdown") {
		shots := []model.ShotDescriptor{
			{Label: "Opening reveal", Instruction: "Show the product emerging from darkness into a spotlight."},
			{Label: "Feature close-up", Instruction: "Zoom into the product's key feature with macro detail."},
			{Label: "Lifestyle moment", Instruction: "Place the product on a kitchen counter in warm morning light."},
			{Label: "Call to action", Instruction: "Center the product with bold studio lighting and empty space for text."},
		}
		b, _ := json.Marshal(shots)
		return string(b), nil
	}

	return "Stub generated text.", nil
}

func (s *StubProvider) GenerateImage(_ context.Context, _ string, _ []model.MediaPayload, _ model.ImageOptions) (model.MediaPayload, error) {
	return model.MediaPayload{MimeType: "image/png", Data: stubPNG}, nil
}

func (s *StubProvider) SubmitVideo(_ context.Context, _ string, _ []model.MediaPayload, _ model.VideoOptions) (string, error) {
	return "operations/stub-video-job", nil
}

func (s *StubProvider) PollVideo(_ context.Context, _ string) (model.OperationStatus, error) {
	return model.OperationStatus{Done: true, VideoURI: "https://stub.local/video.mp4"}, nil
}

func (s *StubProvider) DownloadVideo(_ context.Context, _ string) (model.MediaPayload, error) {
	return model.MediaPayload{MimeType: "video/mp4", Data: []byte("stub-video-bytes")}, nil
}
