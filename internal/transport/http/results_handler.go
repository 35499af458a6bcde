package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"quiz-session-engine/internal/domain"
)

// ResultLister reads stored score records.
type ResultLister interface {
	ResultsForUser(ctx context.Context, userID string) ([]domain.AttemptResult, error)
}

// ResultsHandler serves GET /results?userId=.
type ResultsHandler struct {
	results ResultLister
	logger  *zap.Logger
}

func NewResultsHandler(results ResultLister, logger *zap.Logger) *ResultsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsHandler{results: results, logger: logger}
}

func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	results, err := h.results.ResultsForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list results", zap.String("user_id", userID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []domain.AttemptResult{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results)
}
