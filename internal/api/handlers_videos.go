package api

import (
	"fmt"
	"net/http"

	"github.com/dqalex/OmniSpark/internal/engine"
	"github.com/dqalex/OmniSpark/internal/model"
	"github.com/dqalex/OmniSpark/internal/session"
)

type submitVideoRequest struct {
	Script      string   `json:"script"`
	ShotIDs     []string `json:"shot_ids"`
	AspectRatio string   `json:"aspect_ratio"`
	Resolution  string   `json:"resolution"`
}

// handleSubmitVideo queues an asynchronous video synthesis job for the
// session's selected concept. Selected storyboard shots ride along as
// reference images.
func (s *Server) handleSubmitVideo(w http.ResponseWriter, r *http.Request) {
	var req submitVideoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if sess.Mode != model.ModeVideo {
		writeError(w, http.StatusConflict, "video synthesis requires video mode")
		return
	}
	concept, ok := s.selectedConcept(w, sess)
	if !ok {
		return
	}

	script := req.Script
	if script == "" {
		script = concept.Script
	}
	if script == "" {
		writeError(w, http.StatusBadRequest, "script is required")
		return
	}

	refs, err := s.videoReferences(sess, req.ShotIDs)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	job := s.queue.Enqueue(sess.ID, engine.VideoRequest{
		Script:     script,
		References: refs,
		Concept:    concept,
		Options:    s.videoOptions(req.AspectRatio, req.Resolution),
	}, sess.History)

	writeJSON(w, http.StatusAccepted, job)
}

// handleVideoStatus reports a queued job's current state without blocking.
func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.queue.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "video job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// videoReferences resolves shot artifact IDs against session history. With no
// explicit IDs the current storyboard working set is used.
func (s *Server) videoReferences(sess session.Session, shotIDs []string) ([]model.MediaPayload, error) {
	if len(shotIDs) == 0 {
		refs := make([]model.MediaPayload, 0, len(sess.Shots))
		for _, shot := range sess.Shots {
			if !shot.Payload.Empty() {
				refs = append(refs, shot.Payload)
			}
		}
		return refs, nil
	}

	refs := make([]model.MediaPayload, 0, len(shotIDs))
	for _, id := range shotIDs {
		artifact, found := sess.History.ImageByID(id)
		if !found {
			return nil, fmt.Errorf("shot artifact %s not found in session history", id)
		}
		refs = append(refs, artifact.Payload)
	}
	return refs, nil
}

func (s *Server) videoOptions(aspectRatio, resolution string) model.VideoOptions {
	if aspectRatio == "" {
		aspectRatio = s.defaults.AspectRatio
	}
	if resolution == "" {
		resolution = s.defaults.VideoResolution
	}
	return model.VideoOptions{AspectRatio: aspectRatio, Resolution: resolution}
}
