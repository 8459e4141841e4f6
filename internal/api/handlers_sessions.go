package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/dqalex/OmniSpark/internal/engine"
	"github.com/dqalex/OmniSpark/internal/model"
	"github.com/dqalex/OmniSpark/internal/session"
)

// ---------------------------------------------------------------------------
// POST /api/sessions
// ---------------------------------------------------------------------------

type createSessionRequest struct {
	Brief model.ProductBrief `json:"brief"`
	Mode  string             `json:"mode"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Brief.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.sessions.Create(req.Brief, mode)
	writeJSON(w, http.StatusCreated, sess)
}

// ---------------------------------------------------------------------------
// GET /api/sessions/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ---------------------------------------------------------------------------
// PATCH /api/sessions/{id}/mode
// ---------------------------------------------------------------------------

type setModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.sessions.SetMode(r.PathValue("id"), mode)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ---------------------------------------------------------------------------
// POST /api/sessions/{id}/concepts
// ---------------------------------------------------------------------------

func (s *Server) handleGenerateConcepts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	concepts, err := s.concepts.Generate(r.Context(), sess.Brief, sess.Mode, sess.Brief.Images)
	if err != nil {
		s.logger.Warn("concept generation failed", "session_id", sess.ID, "error", err)
		writeGenerationError(w, err)
		return
	}

	// History append happens before anything else can act on the result.
	for _, c := range concepts {
		sess.History.AddConcept(c)
	}
	writeJSON(w, http.StatusCreated, concepts)
}

// ---------------------------------------------------------------------------
// POST /api/sessions/{id}/concepts/select
// ---------------------------------------------------------------------------

type selectConceptRequest struct {
	ConceptID string `json:"concept_id"`
}

func (s *Server) handleSelectConcept(w http.ResponseWriter, r *http.Request) {
	var req selectConceptRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	concept, found := sess.History.ConceptByID(req.ConceptID)
	if !found {
		writeError(w, http.StatusNotFound, "concept not found in session history")
		return
	}
	if concept.Mode != sess.Mode {
		writeError(w, http.StatusConflict, "concept belongs to a different mode")
		return
	}

	updated, err := s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.SelectedConceptID = concept.ID
		sess.ActiveImageID = ""
		sess.Shots = nil
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ---------------------------------------------------------------------------
// POST /api/sessions/{id}/images
// ---------------------------------------------------------------------------

type generateSceneRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	HighRes     bool   `json:"high_res"`
	NoBriefRefs bool   `json:"no_brief_refs"`
}

func (s *Server) handleGenerateScene(w http.ResponseWriter, r *http.Request) {
	var req generateSceneRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	concept, ok := s.selectedConcept(w, sess)
	if !ok {
		return
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = concept.ImagePrompt
	}
	var refs []model.MediaPayload
	if !req.NoBriefRefs {
		refs = sess.Brief.Images
	}

	payload, err := s.studio.GenerateScene(r.Context(), prompt, refs, s.imageOptions(req.AspectRatio, req.HighRes))
	if err != nil {
		s.logger.Warn("scene generation failed", "session_id", sess.ID, "error", err)
		writeGenerationError(w, err)
		return
	}

	artifact := model.NewImageArtifact(uuid.New().String(), payload, prompt, concept)
	sess.History.AddImage(artifact)
	s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.ActiveImageID = artifact.ID
	})
	writeJSON(w, http.StatusCreated, artifact)
}

// ---------------------------------------------------------------------------
// POST /api/sessions/{id}/images/edit
// ---------------------------------------------------------------------------

type editSceneRequest struct {
	Instruction string `json:"instruction"`
	BaseImageID string `json:"base_image_id"`
	AspectRatio string `json:"aspect_ratio"`
	HighRes     bool   `json:"high_res"`
	NoBriefRef  bool   `json:"no_brief_ref"`
}

func (s *Server) handleEditScene(w http.ResponseWriter, r *http.Request) {
	var req editSceneRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Instruction == "" {
		writeError(w, http.StatusBadRequest, "instruction is required")
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	baseID := req.BaseImageID
	if baseID == "" {
		baseID = sess.ActiveImageID
	}
	base, found := sess.History.ImageByID(baseID)
	if !found {
		writeError(w, http.StatusConflict, "no active image to edit; generate a scene first")
		return
	}
	// The edited artifact inherits the lineage of the concept that produced
	// the base image.
	concept, found := sess.History.ConceptByID(base.ConceptID)
	if !found {
		writeError(w, http.StatusConflict, "base image has no concept in session history")
		return
	}

	ref := s.briefReference(sess, req.NoBriefRef)
	payload, err := s.studio.EditScene(r.Context(), base.Payload, req.Instruction, ref, s.imageOptions(req.AspectRatio, req.HighRes))
	if err != nil {
		s.logger.Warn("scene edit failed", "session_id", sess.ID, "error", err)
		writeGenerationError(w, err)
		return
	}

	artifact := model.NewImageArtifact(uuid.New().String(), payload, req.Instruction, concept)
	sess.History.AddImage(artifact)
	s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.ActiveImageID = artifact.ID
	})
	writeJSON(w, http.StatusCreated, artifact)
}

// ---------------------------------------------------------------------------
// POST /api/sessions/{id}/storyboard
// ---------------------------------------------------------------------------

type storyboardRequest struct {
	AspectRatio string `json:"aspect_ratio"`
	HighRes     bool   `json:"high_res"`
}

func (s *Server) handleStoryboard(w http.ResponseWriter, r *http.Request) {
	var req storyboardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	concept, ok := s.selectedConcept(w, sess)
	if !ok {
		return
	}
	base, found := sess.History.ImageByID(sess.ActiveImageID)
	if !found {
		writeError(w, http.StatusConflict, "no confirmed image; generate a scene first")
		return
	}

	descriptors := s.decomposer.ParseShots(r.Context(), concept.Storyboard, sess.Mode, sess.Brief.Name)
	shots := s.decomposer.RenderShots(r.Context(), engine.RenderInput{
		Base:      base.Payload,
		Shots:     descriptors,
		Reference: s.briefReference(sess, false),
		Options:   s.imageOptions(req.AspectRatio, req.HighRes),
		Concept:   concept,
	}, sess.History)

	s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.Shots = shots
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"descriptors": descriptors,
		"shots":       shots,
	})
}

// ---------------------------------------------------------------------------
// POST /api/sessions/{id}/storyboard/shots/{index}
// ---------------------------------------------------------------------------

type regenerateShotRequest struct {
	Instruction string `json:"instruction"`
	AspectRatio string `json:"aspect_ratio"`
	HighRes     bool   `json:"high_res"`
}

func (s *Server) handleRegenerateShot(w http.ResponseWriter, r *http.Request) {
	var req regenerateShotRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid shot index")
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	concept, ok := s.selectedConcept(w, sess)
	if !ok {
		return
	}
	if index < 0 || index >= len(sess.Shots) {
		writeError(w, http.StatusBadRequest, "shot index out of range")
		return
	}
	base, found := sess.History.ImageByID(sess.ActiveImageID)
	if !found {
		writeError(w, http.StatusConflict, "no confirmed image; generate a scene first")
		return
	}

	descriptors := make([]model.ShotDescriptor, len(sess.Shots))
	for i, shot := range sess.Shots {
		descriptors[i] = model.ShotDescriptor{Label: shot.Label, Instruction: shot.Instruction}
	}

	shot, err := s.decomposer.RegenerateShot(r.Context(), engine.RenderInput{
		Base:      base.Payload,
		Shots:     descriptors,
		Reference: s.briefReference(sess, false),
		Options:   s.imageOptions(req.AspectRatio, req.HighRes),
		Concept:   concept,
	}, index, req.Instruction, sess.History)
	if err != nil {
		s.logger.Warn("shot regeneration failed", "session_id", sess.ID, "index", index, "error", err)
		writeGenerationError(w, err)
		return
	}

	// Replace the working-set slot in place; the prior shot's history entry
	// stays.
	s.sessions.Update(sess.ID, func(sess *session.Session) {
		if index < len(sess.Shots) {
			sess.Shots[index] = shot
		}
	})
	writeJSON(w, http.StatusOK, shot)
}

// ---------------------------------------------------------------------------
// History views
// ---------------------------------------------------------------------------

func (s *Server) handleHistoryConcepts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	direction := trimQuery(r, "direction")
	writeJSON(w, http.StatusOK, sess.History.Concepts(sess.Brief.Name, direction, sess.Mode))
}

func (s *Server) handleHistoryImages(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conceptID := trimQuery(r, "concept_id")
	if conceptID == "" {
		conceptID = sess.SelectedConceptID
	}
	writeJSON(w, http.StatusOK, sess.History.Images(conceptID, sess.Mode))
}

func (s *Server) handleHistoryVideos(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.History.Videos(sess.Brief.Name, trimQuery(r, "concept_title")))
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (s *Server) selectedConcept(w http.ResponseWriter, sess session.Session) (model.Concept, bool) {
	if sess.SelectedConceptID == "" {
		writeError(w, http.StatusConflict, "no concept selected; generate and select a concept first")
		return model.Concept{}, false
	}
	concept, found := sess.History.ConceptByID(sess.SelectedConceptID)
	if !found {
		writeError(w, http.StatusConflict, "selected concept not found in session history")
		return model.Concept{}, false
	}
	return concept, true
}

func (s *Server) imageOptions(aspectRatio string, highRes bool) model.ImageOptions {
	if aspectRatio == "" {
		aspectRatio = s.defaults.AspectRatio
	}
	return model.ImageOptions{AspectRatio: aspectRatio, HighRes: highRes}
}

// briefReference returns the primary brief image used as the identity
// reference, or nil when absent or suppressed.
func (s *Server) briefReference(sess session.Session, suppress bool) *model.MediaPayload {
	if suppress || len(sess.Brief.Images) == 0 {
		return nil
	}
	ref := sess.Brief.Images[0]
	return &ref
}
