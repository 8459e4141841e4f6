package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dqalex/OmniSpark/internal/engine"
	"github.com/dqalex/OmniSpark/internal/gemini"
	"github.com/dqalex/OmniSpark/internal/model"
	"github.com/dqalex/OmniSpark/internal/session"
	"github.com/dqalex/OmniSpark/internal/store"
	"github.com/dqalex/OmniSpark/internal/worker"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo, err := store.New(db)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stub := &engine.StubProvider{}
	studio := engine.NewVisualStudio(stub)
	synth := engine.NewSynthesizer(stub, time.Millisecond, 10, logger)

	queue := worker.NewQueue()
	w := worker.New(queue, synth, time.Millisecond, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Start(ctx)

	srv := New(Options{
		Sessions:   session.NewStore(),
		Repo:       repo,
		Concepts:   engine.NewConceptGenerator(stub),
		Studio:     studio,
		Decomposer: engine.NewDecomposer(stub, studio, logger),
		Importer:   engine.NewBriefImporter(time.Second),
		Queue:      queue,
		Broker:     gemini.StaticBroker{},
		Defaults:   Defaults{AspectRatio: "16:9", VideoResolution: "720p"},
		Logger:     logger,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("%s %s: decode response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func createSession(t *testing.T, ts *httptest.Server, mode string) session.Session {
	t.Helper()
	var sess session.Session
	status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions", map[string]any{
		"brief": map[string]string{
			"name":        "Aurora Mug",
			"description": "A double-walled ceramic mug.",
			"direction":   "cozy mornings",
		},
		"mode": mode,
	}, &sess)
	if status != http.StatusCreated {
		t.Fatalf("create session: status %d", status)
	}
	return sess
}

func generateAndSelectConcept(t *testing.T, ts *httptest.Server, sessionID string) model.Concept {
	t.Helper()
	var concepts []model.Concept
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sessionID+"/concepts", map[string]any{}, &concepts); status != http.StatusCreated {
		t.Fatalf("generate concepts: status %d", status)
	}
	if len(concepts) != engine.ConceptCount {
		t.Fatalf("concepts = %d, want %d", len(concepts), engine.ConceptCount)
	}
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sessionID+"/concepts/select", map[string]string{
		"concept_id": concepts[0].ID,
	}, nil); status != http.StatusOK {
		t.Fatalf("select concept: status %d", status)
	}
	return concepts[0]
}

func generateScene(t *testing.T, ts *httptest.Server, sessionID string) model.ImageArtifact {
	t.Helper()
	var artifact model.ImageArtifact
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sessionID+"/images", map[string]any{}, &artifact); status != http.StatusCreated {
		t.Fatalf("generate scene: status %d", status)
	}
	return artifact
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	sess := createSession(t, ts, "video")
	if sess.ID == "" || sess.Mode != model.ModeVideo {
		t.Fatalf("session = %+v", sess)
	}

	var fetched session.Session
	if status := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+sess.ID, nil, &fetched); status != http.StatusOK {
		t.Fatalf("get session: status %d", status)
	}
	if fetched.Brief.Name != "Aurora Mug" {
		t.Errorf("brief name = %q", fetched.Brief.Name)
	}

	if status := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/unknown", nil, nil); status != http.StatusNotFound {
		t.Errorf("unknown session: status %d", status)
	}

	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions", map[string]any{
		"brief": map[string]string{"name": "X"},
		"mode":  "video",
	}, nil); status != http.StatusBadRequest {
		t.Errorf("invalid brief: status %d", status)
	}
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions", map[string]any{
		"brief": map[string]string{"name": "X", "description": "Y"},
		"mode":  "slideshow",
	}, nil); status != http.StatusBadRequest {
		t.Errorf("invalid mode: status %d", status)
	}
}

func TestConceptFlow(t *testing.T) {
	ts := newTestServer(t)
	sess := createSession(t, ts, "image")

	concept := generateAndSelectConcept(t, ts, sess.ID)
	if concept.Mode != model.ModeImage || concept.ProductName != "Aurora Mug" {
		t.Errorf("concept lineage = (%q, %q)", concept.Mode, concept.ProductName)
	}

	var history []model.Concept
	if status := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+sess.ID+"/history/concepts", nil, &history); status != http.StatusOK {
		t.Fatalf("history concepts: status %d", status)
	}
	if len(history) != engine.ConceptCount {
		t.Errorf("history concepts = %d, want %d", len(history), engine.ConceptCount)
	}

	// Selecting a concept that is not in history fails.
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sess.ID+"/concepts/select", map[string]string{
		"concept_id": "missing",
	}, nil); status != http.StatusNotFound {
		t.Errorf("select missing concept: status %d", status)
	}
}

func TestModeSwitchClearsSelection(t *testing.T) {
	ts := newTestServer(t)
	sess := createSession(t, ts, "image")
	generateAndSelectConcept(t, ts, sess.ID)

	var switched session.Session
	if status := doJSON(t, http.MethodPatch, ts.URL+"/api/sessions/"+sess.ID+"/mode", map[string]string{
		"mode": "pdp",
	}, &switched); status != http.StatusOK {
		t.Fatalf("set mode: status %d", status)
	}
	if switched.Mode != model.ModePDP || switched.SelectedConceptID != "" {
		t.Errorf("switched = %+v", switched)
	}

	// The image-mode concepts are preserved but filtered out of the pdp view.
	var history []model.Concept
	doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+sess.ID+"/history/concepts", nil, &history)
	if len(history) != 0 {
		t.Errorf("pdp history shows %d image-mode concepts", len(history))
	}
}

func TestImageFlow(t *testing.T) {
	ts := newTestServer(t)
	sess := createSession(t, ts, "image")

	// Generating before selecting a concept conflicts.
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sess.ID+"/images", map[string]any{}, nil); status != http.StatusConflict {
		t.Fatalf("scene without concept: status %d", status)
	}

	concept := generateAndSelectConcept(t, ts, sess.ID)
	artifact := generateScene(t, ts, sess.ID)
	if artifact.ConceptID != concept.ID || artifact.Mode != model.ModeImage {
		t.Errorf("artifact lineage = (%q, %q)", artifact.ConceptID, artifact.Mode)
	}

	var edited model.ImageArtifact
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sess.ID+"/images/edit", map[string]any{
		"instruction": "Add steam rising from the mug",
	}, &edited); status != http.StatusCreated {
		t.Fatalf("edit scene: status %d", status)
	}
	if edited.ConceptID != concept.ID {
		t.Error("edit should inherit the base image's concept")
	}
	if edited.ID == artifact.ID {
		t.Error("edit must produce a new artifact")
	}

	// Both artifacts are in the strict (concept, mode) history.
	var images []model.ImageArtifact
	doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+sess.ID+"/history/images", nil, &images)
	if len(images) != 2 {
		t.Errorf("history images = %d, want 2", len(images))
	}
	if images[0].ID != edited.ID {
		t.Error("newest artifact should come first")
	}
}

func TestStoryboardFlow(t *testing.T) {
	ts := newTestServer(t)
	sess := createSession(t, ts, "video")
	generateAndSelectConcept(t, ts, sess.ID)

	// Storyboard without a confirmed image conflicts.
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sess.ID+"/storyboard", map[string]any{}, nil); status != http.StatusConflict {
		t.Fatalf("storyboard without image: status %d", status)
	}

	generateScene(t, ts, sess.ID)

	var result struct {
		Descriptors []model.ShotDescriptor `json:"descriptors"`
		Shots       []model.Shot           `json:"shots"`
	}
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sess.ID+"/storyboard", map[string]any{}, &result); status != http.StatusCreated {
		t.Fatalf("storyboard: status %d", status)
	}
	if len(result.Descriptors) != engine.ShotCount || len(result.Shots) != engine.ShotCount {
		t.Fatalf("descriptors = %d, shots = %d", len(result.Descriptors), len(result.Shots))
	}

	var shot model.Shot
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sess.ID+"/storyboard/shots/1", map[string]any{
		"instruction": "Make it darker",
	}, &shot); status != http.StatusOK {
		t.Fatalf("regenerate shot: status %d", status)
	}
	if shot.Instruction != "Make it darker" {
		t.Errorf("instruction = %q", shot.Instruction)
	}
	if shot.ArtifactID == result.Shots[1].ArtifactID {
		t.Error("regeneration must produce a new artifact")
	}

	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sess.ID+"/storyboard/shots/9", map[string]any{}, nil); status != http.StatusBadRequest {
		t.Errorf("out-of-range shot: status %d", status)
	}
}

func TestVideoFlow(t *testing.T) {
	ts := newTestServer(t)
	sess := createSession(t, ts, "video")
	generateAndSelectConcept(t, ts, sess.ID)
	generateScene(t, ts, sess.ID)

	var job worker.Job
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sess.ID+"/videos", map[string]any{}, &job); status != http.StatusAccepted {
		t.Fatalf("submit video: status %d", status)
	}
	if job.ID == "" {
		t.Fatal("job missing id")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if status := doJSON(t, http.MethodGet, ts.URL+"/api/videos/"+job.ID, nil, &job); status != http.StatusOK {
			t.Fatalf("video status: %d", status)
		}
		if job.State == engine.VideoReady || job.State == engine.VideoFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in state %q", job.State)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if job.State != engine.VideoReady {
		t.Fatalf("job state = %q (%s)", job.State, job.Error)
	}
	if job.ArtifactID == "" {
		t.Error("ready job should reference its artifact")
	}

	var videos []model.VideoArtifact
	doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+sess.ID+"/history/videos", nil, &videos)
	if len(videos) != 1 || videos[0].ID != job.ArtifactID {
		t.Errorf("history videos = %+v", videos)
	}
}

func TestVideoRequiresVideoMode(t *testing.T) {
	ts := newTestServer(t)
	sess := createSession(t, ts, "image")
	generateAndSelectConcept(t, ts, sess.ID)

	if status := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+sess.ID+"/videos", map[string]any{}, nil); status != http.StatusConflict {
		t.Errorf("video in image mode: status %d", status)
	}
}

func TestProductLibrary(t *testing.T) {
	ts := newTestServer(t)

	brief := map[string]string{"name": "Aurora Mug", "description": "A mug."}
	var saved struct {
		Product model.ProductRecord `json:"product"`
		Merged  bool                `json:"merged"`
	}
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/products", brief, &saved); status != http.StatusCreated {
		t.Fatalf("save product: status %d", status)
	}
	if saved.Merged {
		t.Error("first save should not merge")
	}

	// Exact duplicate merges with 200.
	var again struct {
		Product model.ProductRecord `json:"product"`
		Merged  bool                `json:"merged"`
	}
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/products", brief, &again); status != http.StatusOK {
		t.Fatalf("re-save product: status %d", status)
	}
	if !again.Merged || again.Product.ID != saved.Product.ID {
		t.Errorf("re-save = %+v", again)
	}

	var products []model.ProductRecord
	doJSON(t, http.MethodGet, ts.URL+"/api/products", nil, &products)
	if len(products) != 1 {
		t.Fatalf("products = %d, want 1", len(products))
	}

	if status := doJSON(t, http.MethodPost, ts.URL+"/api/products/"+saved.Product.ID+"/pin", map[string]bool{"pinned": true}, nil); status != http.StatusOK {
		t.Errorf("pin product: status %d", status)
	}
	if status := doJSON(t, http.MethodDelete, ts.URL+"/api/products/"+saved.Product.ID, nil, nil); status != http.StatusNoContent {
		t.Errorf("delete product: status %d", status)
	}
	if status := doJSON(t, http.MethodDelete, ts.URL+"/api/products/"+saved.Product.ID, nil, nil); status != http.StatusNotFound {
		t.Errorf("delete missing product: status %d", status)
	}
}

func TestAssetLibrary(t *testing.T) {
	ts := newTestServer(t)
	sess := createSession(t, ts, "image")
	concept := generateAndSelectConcept(t, ts, sess.ID)
	artifact := generateScene(t, ts, sess.ID)

	var asset model.LibraryAsset
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/library", map[string]string{
		"session_id": sess.ID,
		"kind":       "image",
		"id":         artifact.ID,
	}, &asset); status != http.StatusCreated {
		t.Fatalf("promote: status %d", status)
	}
	if asset.ConceptTitle != concept.Title || asset.Mode != model.ModeImage {
		t.Errorf("asset lineage = (%q, %q)", asset.ConceptTitle, asset.Mode)
	}

	// Promote the concept as well, then filter by kind.
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/library", map[string]string{
		"session_id": sess.ID,
		"kind":       "concept",
		"id":         concept.ID,
	}, nil); status != http.StatusCreated {
		t.Fatalf("promote concept: status %d", status)
	}

	var assets []model.LibraryAsset
	doJSON(t, http.MethodGet, ts.URL+"/api/library?kind=image", nil, &assets)
	if len(assets) != 1 || assets[0].ID != asset.ID {
		t.Errorf("kind filter = %+v", assets)
	}

	if status := doJSON(t, http.MethodPost, ts.URL+"/api/library/"+asset.ID+"/pin", map[string]bool{"pinned": true}, nil); status != http.StatusOK {
		t.Errorf("pin asset: status %d", status)
	}
	if status := doJSON(t, http.MethodDelete, ts.URL+"/api/library/"+asset.ID, nil, nil); status != http.StatusNoContent {
		t.Errorf("delete asset: status %d", status)
	}

	// Deleting the promoted copy leaves session history untouched.
	var images []model.ImageArtifact
	doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+sess.ID+"/history/images", nil, &images)
	if len(images) != 1 {
		t.Errorf("history images = %d after library delete, want 1", len(images))
	}

	if status := doJSON(t, http.MethodPost, ts.URL+"/api/library", map[string]string{
		"session_id": sess.ID,
		"kind":       "poster",
		"id":         artifact.ID,
	}, nil); status != http.StatusBadRequest {
		t.Errorf("bad kind: status %d", status)
	}
}

func TestCredentialEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var got map[string]bool
	if status := doJSON(t, http.MethodGet, ts.URL+"/api/credential", nil, &got); status != http.StatusOK {
		t.Fatalf("credential: status %d", status)
	}
	if got["configured"] {
		t.Error("empty broker should report unconfigured")
	}
}

func TestImportEndpoint(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head><title>Aurora Mug</title></head><body><article><p>%s</p></article></body></html>`,
			strings.Repeat("A hand-glazed double-walled ceramic mug for slow mornings. ", 5))
	}))
	defer page.Close()

	ts := newTestServer(t)
	var brief model.ProductBrief
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/products/import", map[string]string{"url": page.URL}, &brief); status != http.StatusOK {
		t.Fatalf("import: status %d", status)
	}
	if brief.Name != "Aurora Mug" || brief.Description == "" {
		t.Errorf("brief = %+v", brief)
	}
}
