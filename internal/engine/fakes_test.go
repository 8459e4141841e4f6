package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dqalex/OmniSpark/internal/model"
)

// fakeText replies with a scripted response or error and records the last
// prompt.
type fakeText struct {
	response string
	err      error

	mu         sync.Mutex
	lastPrompt string
	lastMedia  []model.MediaPayload
}

func (f *fakeText) GenerateText(_ context.Context, prompt string, media []model.MediaPayload, _ bool) (string, error) {
	f.mu.Lock()
	f.lastPrompt = prompt
	f.lastMedia = media
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeImage returns a canned payload, optionally failing on chosen prompts,
// and records every call.
type fakeImage struct {
	failOn func(prompt string) error

	mu      sync.Mutex
	prompts []string
	media   [][]model.MediaPayload
}

func (f *fakeImage) GenerateImage(_ context.Context, prompt string, media []model.MediaPayload, _ model.ImageOptions) (model.MediaPayload, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.media = append(f.media, media)
	f.mu.Unlock()
	if f.failOn != nil {
		if err := f.failOn(prompt); err != nil {
			return model.MediaPayload{}, err
		}
	}
	return model.MediaPayload{MimeType: "image/png", Data: []byte("rendered:" + prompt)}, nil
}

func (f *fakeImage) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeVideo scripts the submit/poll/download sequence and records the
// submitted references.
type fakeVideo struct {
	submitErr     error
	pollErr       error
	downloadErr   error
	pendingPolls  int
	operationName string

	mu            sync.Mutex
	submittedRefs []model.MediaPayload
	polls         int
}

func (f *fakeVideo) SubmitVideo(_ context.Context, _ string, refs []model.MediaPayload, _ model.VideoOptions) (string, error) {
	f.mu.Lock()
	f.submittedRefs = refs
	f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	if f.operationName == "" {
		return "operations/test-job", nil
	}
	return f.operationName, nil
}

func (f *fakeVideo) PollVideo(_ context.Context, _ string) (model.OperationStatus, error) {
	f.mu.Lock()
	f.polls++
	polls := f.polls
	f.mu.Unlock()
	if f.pollErr != nil {
		return model.OperationStatus{}, f.pollErr
	}
	if polls <= f.pendingPolls {
		return model.OperationStatus{Done: false}, nil
	}
	return model.OperationStatus{Done: true, VideoURI: "https://provider/files/out"}, nil
}

func (f *fakeVideo) DownloadVideo(_ context.Context, _ string) (model.MediaPayload, error) {
	if f.downloadErr != nil {
		return model.MediaPayload{}, f.downloadErr
	}
	return model.MediaPayload{MimeType: "video/mp4", Data: []byte("video-bytes")}, nil
}

// recordingHistory collects appended artifacts.
type recordingHistory struct {
	mu     sync.Mutex
	images []model.ImageArtifact
	videos []model.VideoArtifact
}

func (h *recordingHistory) AddImage(a model.ImageArtifact) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.images = append(h.images, a)
}

func (h *recordingHistory) AddVideo(a model.VideoArtifact) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.videos = append(h.videos, a)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBrief() model.ProductBrief {
	return model.ProductBrief{Name: "Mug", Description: "Ceramic coffee mug"}
}
