package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/models"
	"tychoorderbook/internal/repository"
	"tychoorderbook/pkg/validate"
)

// PairHandler manages the set of pairs the operator wants watched.
// Grounded on the teacher's PairHandler (CRUD over a *Repository,
// id path variable parsed with strconv, 404 mapped from the repository's
// sentinel not-found error).
type PairHandler struct {
	repo *repository.WatchedPairRepository
}

// NewPairHandler builds a PairHandler.
func NewPairHandler(repo *repository.WatchedPairRepository) *PairHandler {
	return &PairHandler{repo: repo}
}

type createPairRequest struct {
	Tag string `json:"tag"`
}

// CreatePair handles POST /api/v1/pairs.
func (h *PairHandler) CreatePair(w http.ResponseWriter, r *http.Request) {
	var req createPairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidPair, "invalid request body", err))
		return
	}

	base, quote, err := validate.PairTag(req.Tag)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidPair, "invalid pair tag", err))
		return
	}

	pair := &models.WatchedPair{Tag: req.Tag, BaseToken: base, QuoteToken: quote}
	if err := h.repo.Create(pair); err != nil {
		if errors.Is(err, repository.ErrWatchedPairExists) {
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, pair)
}

// GetPairs handles GET /api/v1/pairs.
func (h *PairHandler) GetPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.repo.GetAll()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairs)
}

func parsePairID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

// DeletePair handles DELETE /api/v1/pairs/{id}.
func (h *PairHandler) DeletePair(w http.ResponseWriter, r *http.Request) {
	id, err := parsePairID(r)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidPair, "invalid pair id", err))
		return
	}

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrWatchedPairNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Message: "pair deleted"})
}

// PausePair handles POST /api/v1/pairs/{id}/pause.
func (h *PairHandler) PausePair(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.WatchedPairStatusPaused)
}

// ResumePair handles POST /api/v1/pairs/{id}/resume.
func (h *PairHandler) ResumePair(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.WatchedPairStatusActive)
}

func (h *PairHandler) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, err := parsePairID(r)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidPair, "invalid pair id", err))
		return
	}

	if err := h.repo.UpdateStatus(id, status); err != nil {
		if errors.Is(err, repository.ErrWatchedPairNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Message: "status updated"})
}
