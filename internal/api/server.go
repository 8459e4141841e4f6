package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dqalex/OmniSpark/internal/engine"
	"github.com/dqalex/OmniSpark/internal/gemini"
	"github.com/dqalex/OmniSpark/internal/model"
	"github.com/dqalex/OmniSpark/internal/session"
	"github.com/dqalex/OmniSpark/internal/store"
	"github.com/dqalex/OmniSpark/internal/worker"
)

// maxRequestBody is the maximum allowed request body size (32 MB; briefs
// carry inline reference images).
const maxRequestBody int64 = 32 << 20

// Defaults holds the generation defaults applied when a request leaves an
// option unset.
type Defaults struct {
	AspectRatio     string
	VideoResolution string
}

// Options wires the server's collaborators.
type Options struct {
	Sessions   *session.Store
	Repo       store.Repository
	Concepts   *engine.ConceptGenerator
	Studio     *engine.VisualStudio
	Decomposer *engine.Decomposer
	Importer   *engine.BriefImporter
	Queue      *worker.Queue
	Broker     gemini.CredentialBroker
	Defaults   Defaults
	CORSOrigin string
	Logger     *slog.Logger
}

// Server holds the HTTP handlers and dependencies.
type Server struct {
	sessions   *session.Store
	repo       store.Repository
	concepts   *engine.ConceptGenerator
	studio     *engine.VisualStudio
	decomposer *engine.Decomposer
	importer   *engine.BriefImporter
	queue      *worker.Queue
	broker     gemini.CredentialBroker
	defaults   Defaults
	corsOrigin string
	logger     *slog.Logger
	mux        *http.ServeMux
}

// New creates a new API server.
func New(opts Options) *Server {
	srv := &Server{
		sessions:   opts.Sessions,
		repo:       opts.Repo,
		concepts:   opts.Concepts,
		studio:     opts.Studio,
		decomposer: opts.Decomposer,
		importer:   opts.Importer,
		queue:      opts.Queue,
		broker:     opts.Broker,
		defaults:   opts.Defaults,
		corsOrigin: opts.CORSOrigin,
		logger:     opts.Logger,
		mux:        http.NewServeMux(),
	}
	srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(limitBody(jsonContent(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/credential", s.handleCredential)

	s.mux.HandleFunc("POST /api/products", s.handleSaveProduct)
	s.mux.HandleFunc("GET /api/products", s.handleListProducts)
	s.mux.HandleFunc("POST /api/products/import", s.handleImportProduct)
	s.mux.HandleFunc("POST /api/products/{id}/pin", s.handlePinProduct)
	s.mux.HandleFunc("DELETE /api/products/{id}", s.handleDeleteProduct)

	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("PATCH /api/sessions/{id}/mode", s.handleSetMode)

	s.mux.HandleFunc("POST /api/sessions/{id}/concepts", s.handleGenerateConcepts)
	s.mux.HandleFunc("POST /api/sessions/{id}/concepts/select", s.handleSelectConcept)
	s.mux.HandleFunc("POST /api/sessions/{id}/images", s.handleGenerateScene)
	s.mux.HandleFunc("POST /api/sessions/{id}/images/edit", s.handleEditScene)
	s.mux.HandleFunc("POST /api/sessions/{id}/storyboard", s.handleStoryboard)
	s.mux.HandleFunc("POST /api/sessions/{id}/storyboard/shots/{index}", s.handleRegenerateShot)
	s.mux.HandleFunc("POST /api/sessions/{id}/videos", s.handleSubmitVideo)
	s.mux.HandleFunc("GET /api/videos/{id}", s.handleVideoStatus)

	s.mux.HandleFunc("GET /api/sessions/{id}/history/concepts", s.handleHistoryConcepts)
	s.mux.HandleFunc("GET /api/sessions/{id}/history/images", s.handleHistoryImages)
	s.mux.HandleFunc("GET /api/sessions/{id}/history/videos", s.handleHistoryVideos)

	s.mux.HandleFunc("POST /api/library", s.handlePromote)
	s.mux.HandleFunc("GET /api/library", s.handleListLibrary)
	s.mux.HandleFunc("POST /api/library/{id}/pin", s.handlePinAsset)
	s.mux.HandleFunc("DELETE /api/library/{id}", s.handleDeleteAsset)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origin := s.corsOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeGenerationError maps the failure taxonomy to a status message plus an
// actionable next step; a user-visible failure is never a silent no-op.
func writeGenerationError(w http.ResponseWriter, err error) {
	kind := model.KindOf(err)
	body := map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	}
	switch kind {
	case model.KindPermissionDenied:
		body["action"] = "re-select provider credentials and try again"
	case model.KindEmptyResult, model.KindParseFailure, model.KindVideoFailed:
		body["action"] = "retry the generation"
	default:
		body["action"] = "retry the generation"
	}
	writeJSON(w, http.StatusBadGateway, body)
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	id := r.PathValue("id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return session.Session{}, false
	}
	return sess, true
}

func trimQuery(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
