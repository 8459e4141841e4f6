package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dqalex/OmniSpark/internal/model"
)

// ---------------------------------------------------------------------------
// GET /api/credential
// ---------------------------------------------------------------------------

func (s *Server) handleCredential(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"configured": s.broker.HasCredential(),
	})
}

// ---------------------------------------------------------------------------
// POST /api/products
// ---------------------------------------------------------------------------

func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var brief model.ProductBrief
	if err := decodeBody(r, &brief); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := brief.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record := model.NewProductRecord(uuid.New().String(), brief)
	stored, existed, err := s.repo.SaveProduct(r.Context(), record)
	if err != nil {
		s.logger.Error("save product failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save product")
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"product": stored,
		"merged":  existed,
	})
}

// ---------------------------------------------------------------------------
// GET /api/products
// ---------------------------------------------------------------------------

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.repo.ListProducts(r.Context())
	if err != nil {
		s.logger.Error("list products failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.ProductRecord{}
	}
	writeJSON(w, http.StatusOK, products)
}

// ---------------------------------------------------------------------------
// POST /api/products/import
// ---------------------------------------------------------------------------

type importRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleImportProduct(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	brief, err := s.importer.Import(r.Context(), req.URL)
	if err != nil {
		s.logger.Warn("product import failed", "url", req.URL, "error", err)
		writeError(w, http.StatusBadGateway, "could not extract product content from the page")
		return
	}
	writeJSON(w, http.StatusOK, brief)
}

// ---------------------------------------------------------------------------
// POST /api/products/{id}/pin
// ---------------------------------------------------------------------------

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

func (s *Server) handlePinProduct(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.repo.PinProduct(r.Context(), r.PathValue("id"), req.Pinned)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to pin product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"pinned": req.Pinned})
}

// ---------------------------------------------------------------------------
// DELETE /api/products/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	err := s.repo.DeleteProduct(r.Context(), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
