// Package handler exposes the dashboard summary endpoint over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/summary"
	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/httputil"
)

// SummaryHandler serves the /summary route
type SummaryHandler struct {
	svc    *summary.Service
	logger *slog.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(svc *summary.Service, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the summary route on the given router
func (h *SummaryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Get)
}

// Get returns the caller's dashboard summary. Without from/to the window is
// the trailing thirty days.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req summary.Request
	if raw := r.URL.Query().Get("accountId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid account id")
			return
		}
		req.AccountID = &id
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_date", "from must be yyyy-MM-dd")
			return
		}
		req.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_date", "to must be yyyy-MM-dd")
			return
		}
		req.To = &to
	}
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_range", "from must not be after to")
		return
	}

	result, err := h.svc.Get(r.Context(), identity, req)
	if err != nil {
		h.logger.Error("summary request failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
