package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/suar-net/suar-reactive/internal/model"
	"github.com/suar-net/suar-reactive/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type HistoryHandler struct {
	repo   repository.IRequestRepository
	logger *log.Logger
}

// NewHistoryHandler accepts a nil repository; history is then always empty.
func NewHistoryHandler(repo repository.IRequestRepository, l *log.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: l,
	}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	if h.repo == nil {
		respondWithJson(w, http.StatusOK, []*model.Request{})
		return
	}

	requests, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Printf("Error listing request history: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if requests == nil {
		requests = []*model.Request{}
	}
	respondWithJson(w, http.StatusOK, requests)
}
