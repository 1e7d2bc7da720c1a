package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketledger/pocketledger/internal/domain/account"
	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/pagination"
)

type stubRepository struct {
	accounts map[uuid.UUID]*account.Account
}

func (s *stubRepository) Create(_ context.Context, acc *account.Account) error {
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	acc.CreatedAt = time.Now()
	acc.UpdatedAt = acc.CreatedAt
	s.accounts[acc.ID] = acc
	return nil
}

func (s *stubRepository) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	acc, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return acc, nil
}

func (s *stubRepository) List(_ context.Context, userID, _ string, _ pagination.Cursor, limit int) ([]*account.Account, error) {
	var out []*account.Account
	for _, acc := range s.accounts {
		if acc.UserID == userID {
			out = append(out, acc)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepository) ListAll(_ context.Context, userID string) ([]*account.Account, error) {
	var out []*account.Account
	for _, acc := range s.accounts {
		if acc.UserID == userID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (s *stubRepository) Update(_ context.Context, acc *account.Account) error {
	s.accounts[acc.ID] = acc
	return nil
}

func (s *stubRepository) DeleteBatch(_ context.Context, ids []uuid.UUID) (int, error) {
	count := 0
	for _, id := range ids {
		if _, ok := s.accounts[id]; ok {
			delete(s.accounts, id)
			count++
		}
	}
	return count, nil
}

func newTestRouter() (chi.Router, *stubRepository) {
	repo := &stubRepository{accounts: make(map[uuid.UUID]*account.Account)}
	logger := slog.New(slog.DiscardHandler)
	h := NewAccountHandler(account.NewService(repo, logger), logger)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, repo
}

func doRequest(t *testing.T, router chi.Router, identity *auth.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *identity))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAccountHandler_Create(t *testing.T) {
	router, _ := newTestRouter()
	identity := auth.Identity{Subject: "owner"}

	rec := doRequest(t, router, &identity, http.MethodPost, "/accounts", map[string]string{"name": "Checking"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var got struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "Checking", got.Name)
}

func TestAccountHandler_RequiresIdentity(t *testing.T) {
	router, _ := newTestRouter()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/accounts"},
		{http.MethodGet, "/accounts/all"},
		{http.MethodPost, "/accounts"},
		{http.MethodDelete, "/accounts"},
		{http.MethodGet, "/accounts/" + uuid.NewString()},
		{http.MethodPatch, "/accounts/" + uuid.NewString()},
	} {
		rec := doRequest(t, router, nil, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAccountHandler_Get(t *testing.T) {
	router, repo := newTestRouter()
	owner := auth.Identity{Subject: "owner"}
	stranger := auth.Identity{Subject: "stranger"}

	id := uuid.New()
	repo.accounts[id] = &account.Account{ID: id, UserID: "owner", Name: "Checking"}

	t.Run("owner reads it", func(t *testing.T) {
		rec := doRequest(t, router, &owner, http.MethodGet, "/accounts/"+id.String(), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stranger sees 404", func(t *testing.T) {
		rec := doRequest(t, router, &stranger, http.MethodGet, "/accounts/"+id.String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad uuid is 400", func(t *testing.T) {
		rec := doRequest(t, router, &owner, http.MethodGet, "/accounts/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAccountHandler_Remove(t *testing.T) {
	router, repo := newTestRouter()
	owner := auth.Identity{Subject: "owner"}

	id := uuid.New()
	repo.accounts[id] = &account.Account{ID: id, UserID: "owner", Name: "Checking"}

	rec := doRequest(t, router, &owner, http.MethodDelete, "/accounts", map[string]any{
		"ids": []string{id.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got["deletedCount"])
	assert.Empty(t, repo.accounts)
}

func TestAccountHandler_List_EmptyIsArray(t *testing.T) {
	router, _ := newTestRouter()
	owner := auth.Identity{Subject: "owner"}

	rec := doRequest(t, router, &owner, http.MethodGet, "/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accounts":[]}`, rec.Body.String())
}
