// Package handler exposes the bulk-import endpoints over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/account"
	"github.com/pocketledger/pocketledger/internal/domain/category"
	"github.com/pocketledger/pocketledger/internal/domain/import/grid"
	"github.com/pocketledger/pocketledger/internal/domain/import/importer"
	"github.com/pocketledger/pocketledger/internal/domain/import/mapper"
	"github.com/pocketledger/pocketledger/internal/domain/import/reconcile"
	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/httputil"
)

// ImportHandler serves the /imports routes
type ImportHandler struct {
	svc          *importer.Service
	maxFileBytes int64
	logger       *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(svc *importer.Service, maxFileBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, maxFileBytes: maxFileBytes, logger: logger}
}

// RegisterRoutes mounts the import routes on the given router
func (h *ImportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Post("/analyze", h.Analyze)
		r.Post("/", h.Import)
	})
}

// Analyze accepts a multipart file and returns a grid preview with a
// suggested column mapping.
func (h *ImportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	_, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	filename, data, ok := h.readFile(w, r)
	if !ok {
		return
	}

	analysis, err := h.svc.Analyze(r.Context(), filename, data)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_file", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, analysis)
}

// mappingRequest is the JSON carried in the multipart "mapping" field.
// Column keys arrive as strings because JSON objects cannot key on numbers.
type mappingRequest struct {
	Columns   map[string]mapper.Field `json:"columns"`
	AccountID *uuid.UUID              `json:"accountId"`
}

// Import accepts a multipart file plus a confirmed mapping and runs the full
// pipeline.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	filename, data, ok := h.readFile(w, r)
	if !ok {
		return
	}

	var req mappingRequest
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_mapping", "mapping field is not valid JSON")
			return
		}
	}

	columns := make(map[int]mapper.Field, len(req.Columns))
	for key, field := range req.Columns {
		col, err := strconv.Atoi(key)
		if err != nil || col < 0 {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_mapping", "column keys must be non-negative integers")
			return
		}
		if !field.Valid() {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_mapping", "unknown field "+string(field))
			return
		}
		columns[col] = field
	}

	outcome, err := h.svc.Import(r.Context(), identity, importer.Request{
		Filename:  filename,
		Data:      data,
		Columns:   columns,
		AccountID: req.AccountID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, outcome)
}

func (h *ImportHandler) readFile(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileBytes)
	if err := r.ParseMultipartForm(h.maxFileBytes); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_file", "expected a multipart upload within the size limit")
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_file", "missing file field")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_file", "failed to read upload")
		return "", nil, false
	}
	return header.Filename, data, true
}

func (h *ImportHandler) respondError(w http.ResponseWriter, err error) {
	var mappingErr *importer.MappingError
	var validationErr *reconcile.ValidationError
	var rowErr *reconcile.RowError

	switch {
	case errors.As(err, &mappingErr),
		errors.As(err, &validationErr),
		errors.As(err, &rowErr):
		httputil.WriteError(w, http.StatusUnprocessableEntity, "invalid_rows", err.Error())
	case errors.Is(err, grid.ErrUnsupportedFormat):
		httputil.WriteError(w, http.StatusBadRequest, "unsupported_format", err.Error())
	case errors.Is(err, account.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not_found", "account not found")
	case errors.Is(err, category.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not_found", "category not found")
	default:
		h.logger.Error("import request failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
