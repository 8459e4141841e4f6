package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dqalex/OmniSpark/internal/model"
)

// VideoState is the synthesizer state machine:
// Idle -> Submitted -> Polling -> Ready | Failed.
type VideoState string

const (
	VideoIdle      VideoState = "idle"
	VideoSubmitted VideoState = "submitted"
	VideoPolling   VideoState = "polling"
	VideoReady     VideoState = "ready"
	VideoFailed    VideoState = "failed"
)

// VideoRequest is one video synthesis submission.
type VideoRequest struct {
	Script     string
	References []model.MediaPayload
	Concept    model.Concept
	Options    model.VideoOptions
}

// Synthesizer drives a video job from submission through polling to a
// locally resolved artifact. There is no automatic retry; retry is a
// user-initiated re-submission.
type Synthesizer struct {
	video    VideoClient
	interval time.Duration
	maxPolls int
	logger   *slog.Logger
}

// NewSynthesizer creates a synthesizer. interval is the fixed poll period;
// maxPolls bounds the wait so an abandoned provider job cannot pin the
// worker forever.
func NewSynthesizer(video VideoClient, interval time.Duration, maxPolls int, logger *slog.Logger) *Synthesizer {
	if interval <= 0 {
		interval = 8 * time.Second
	}
	if maxPolls <= 0 {
		maxPolls = 75
	}
	return &Synthesizer{video: video, interval: interval, maxPolls: maxPolls, logger: logger}
}

// Run executes one full synthesis. References beyond the provider limit are
// truncated before submission. progress, if non-nil, observes each state
// transition. The produced artifact is appended to history before Run
// returns.
func (s *Synthesizer) Run(ctx context.Context, req VideoRequest, hist VideoAppender, progress func(VideoState)) (model.VideoArtifact, error) {
	notify := func(st VideoState) {
		if progress != nil {
			progress(st)
		}
	}

	refs := req.References
	if len(refs) > model.MaxVideoReferences {
		refs = refs[:model.MaxVideoReferences]
	}

	prompt := buildVideoPrompt(req.Script)
	operation, err := s.video.SubmitVideo(ctx, prompt, refs, req.Options)
	if err != nil {
		notify(VideoFailed)
		return model.VideoArtifact{}, err
	}
	notify(VideoSubmitted)
	s.logger.Info("video job submitted", "operation", operation, "concept", req.Concept.Title)

	notify(VideoPolling)
	var status model.OperationStatus
	for polls := 0; ; polls++ {
		if polls >= s.maxPolls {
			notify(VideoFailed)
			return model.VideoArtifact{}, model.NewGenerationError(model.KindVideoFailed, "video job did not complete in time")
		}

		select {
		case <-ctx.Done():
			notify(VideoFailed)
			return model.VideoArtifact{}, ctx.Err()
		case <-time.After(s.interval):
		}

		status, err = s.video.PollVideo(ctx, operation)
		if err != nil {
			notify(VideoFailed)
			return model.VideoArtifact{}, err
		}
		if status.Done {
			break
		}
		s.logger.Debug("video job still running", "operation", operation, "polls", polls+1)
	}

	payload, err := s.video.DownloadVideo(ctx, status.VideoURI)
	if err != nil {
		notify(VideoFailed)
		return model.VideoArtifact{}, err
	}

	artifact := model.NewVideoArtifact(uuid.New().String(), status.VideoURI, payload, req.Concept)
	hist.AddVideo(artifact)
	notify(VideoReady)
	s.logger.Info("video job ready", "operation", operation, "artifact_id", artifact.ID)
	return artifact, nil
}
