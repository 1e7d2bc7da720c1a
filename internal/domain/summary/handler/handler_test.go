package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketledger/pocketledger/internal/domain/summary"
	"github.com/pocketledger/pocketledger/pkg/auth"
)

type stubRepository struct{}

func (stubRepository) PeriodTotals(context.Context, summary.Filter) (summary.PeriodTotals, error) {
	return summary.PeriodTotals{}, nil
}

func (stubRepository) CategorySpend(context.Context, summary.Filter) ([]summary.CategorySpend, error) {
	return nil, nil
}

func (stubRepository) ActiveDays(context.Context, summary.Filter) ([]summary.DayActivity, error) {
	return nil, nil
}

func newTestRouter() chi.Router {
	logger := slog.New(slog.DiscardHandler)
	h := NewSummaryHandler(summary.NewService(stubRepository{}, logger), logger)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, router chi.Router, identity *auth.Identity, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *identity))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSummaryHandler_Get(t *testing.T) {
	router := newTestRouter()
	owner := auth.Identity{Subject: "owner"}

	t.Run("requires identity", func(t *testing.T) {
		rec := doRequest(t, router, nil, "/summary")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("default window succeeds", func(t *testing.T) {
		rec := doRequest(t, router, &owner, "/summary")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("explicit range succeeds", func(t *testing.T) {
		rec := doRequest(t, router, &owner, "/summary?from=2024-03-01&to=2024-03-10")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed dates are 400", func(t *testing.T) {
		rec := doRequest(t, router, &owner, "/summary?from=03-01-2024")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("inverted range is 400", func(t *testing.T) {
		rec := doRequest(t, router, &owner, "/summary?from=2024-03-10&to=2024-03-01")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_range")
	})

	t.Run("bad account id is 400", func(t *testing.T) {
		rec := doRequest(t, router, &owner, "/summary?accountId=not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
