package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dqalex/OmniSpark/internal/model"
	"github.com/dqalex/OmniSpark/internal/store"
)

type promoteRequest struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	ID        string `json:"id"`
}

// handlePromote copies a history entry into the persistent library. The
// stored asset is a snapshot; later session activity cannot change it.
func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	asset := model.LibraryAsset{
		ID:        uuid.New().String(),
		Kind:      req.Kind,
		Pinned:    false,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	switch req.Kind {
	case model.AssetConcept:
		concept, found := sess.History.ConceptByID(req.ID)
		if !found {
			writeError(w, http.StatusNotFound, "concept not found in session history")
			return
		}
		content, err := json.Marshal(concept)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to encode concept")
			return
		}
		asset.MimeType = "application/json"
		asset.Content = content
		asset.ProductName = concept.ProductName
		asset.ConceptTitle = concept.Title
		asset.Direction = concept.Direction
		asset.Mode = concept.Mode
	case model.AssetImage:
		artifact, found := sess.History.ImageByID(req.ID)
		if !found {
			writeError(w, http.StatusNotFound, "image not found in session history")
			return
		}
		asset.MimeType = artifact.Payload.MimeType
		asset.Content = artifact.Payload.Data
		asset.ProductName = artifact.ProductName
		asset.ConceptTitle = artifact.ConceptTitle
		asset.Direction = artifact.Direction
		asset.Mode = artifact.Mode
	case model.AssetVideo:
		artifact, found := sess.History.VideoByID(req.ID)
		if !found {
			writeError(w, http.StatusNotFound, "video not found in session history")
			return
		}
		asset.MimeType = artifact.Payload.MimeType
		asset.Content = artifact.Payload.Data
		asset.ProductName = artifact.ProductName
		asset.ConceptTitle = artifact.ConceptTitle
		asset.Direction = artifact.Direction
		asset.Mode = artifact.Mode
	default:
		writeError(w, http.StatusBadRequest, "kind must be concept, image, or video")
		return
	}

	if err := s.repo.PromoteAsset(r.Context(), asset); err != nil {
		s.logger.Error("promote asset failed", "kind", req.Kind, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save asset")
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

// handleListLibrary lists promoted assets, optionally narrowed by kind and
// mode query parameters.
func (s *Server) handleListLibrary(w http.ResponseWriter, r *http.Request) {
	filter := store.LibraryFilter{Kind: trimQuery(r, "kind")}
	if raw := trimQuery(r, "mode"); raw != "" {
		mode, err := model.ParseMode(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Mode = mode
	}

	assets, err := s.repo.ListAssets(r.Context(), filter)
	if err != nil {
		s.logger.Error("list assets failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handlePinAsset(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.repo.PinAsset(r.Context(), r.PathValue("id"), req.Pinned); err != nil {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"pinned": req.Pinned})
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteAsset(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
