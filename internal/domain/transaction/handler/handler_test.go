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
	"github.com/pocketledger/pocketledger/internal/domain/category"
	"github.com/pocketledger/pocketledger/internal/domain/transaction"
	"github.com/pocketledger/pocketledger/pkg/auth"
)

type stubTransactionRepo struct {
	transaction.Repository
	created []*transaction.Transaction
}

func (s *stubTransactionRepo) Create(_ context.Context, tx *transaction.Transaction) error {
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	s.created = append(s.created, tx)
	return nil
}

func (s *stubTransactionRepo) List(_ context.Context, userID string, _ transaction.ListFilter) ([]*transaction.Joined, error) {
	var out []*transaction.Joined
	for _, tx := range s.created {
		if tx.UserID == userID {
			out = append(out, &transaction.Joined{Transaction: *tx})
		}
	}
	return out, nil
}

type stubAccountRepo struct {
	account.Repository
	accounts map[uuid.UUID]*account.Account
}

func (s *stubAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	acc, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return acc, nil
}

type stubCategoryRepo struct {
	category.Repository
}

func newTestRouter(currency string) (chi.Router, *stubAccountRepo, *stubTransactionRepo) {
	txRepo := &stubTransactionRepo{}
	accRepo := &stubAccountRepo{accounts: make(map[uuid.UUID]*account.Account)}
	logger := slog.New(slog.DiscardHandler)

	svc := transaction.NewService(txRepo, accRepo, &stubCategoryRepo{}, logger)
	h := NewTransactionHandler(svc, currency, logger)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, accRepo, txRepo
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

func TestTransactionHandler_Create(t *testing.T) {
	router, accRepo, _ := newTestRouter("USD")
	owner := auth.Identity{Subject: "owner"}

	accountID := uuid.New()
	accRepo.accounts[accountID] = &account.Account{ID: accountID, UserID: "owner", Name: "Checking"}

	rec := doRequest(t, router, &owner, http.MethodPost, "/transactions", map[string]any{
		"accountId": accountID,
		"amount":    -4.5,
		"payee":     "Coffee Shop",
		"date":      "2024-01-13T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var got struct {
		Amount        float64 `json:"amount"`
		DisplayAmount string  `json:"displayAmount"`
		Payee         string  `json:"payee"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, -4.5, got.Amount)
	assert.Equal(t, "-$4.50", got.DisplayAmount)
	assert.Equal(t, "Coffee Shop", got.Payee)
}

func TestTransactionHandler_DisplayAmount_Currency(t *testing.T) {
	router, accRepo, _ := newTestRouter("EUR")
	owner := auth.Identity{Subject: "owner"}

	accountID := uuid.New()
	accRepo.accounts[accountID] = &account.Account{ID: accountID, UserID: "owner", Name: "Girokonto"}

	rec := doRequest(t, router, &owner, http.MethodPost, "/transactions", map[string]any{
		"accountId": accountID,
		"amount":    2000.0,
		"payee":     "Employer",
		"date":      "2024-01-14T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var got struct {
		DisplayAmount string `json:"displayAmount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.DisplayAmount, "€")
	assert.NotContains(t, got.DisplayAmount, "$")
}

func TestTransactionHandler_Create_ForeignAccount(t *testing.T) {
	router, accRepo, _ := newTestRouter("USD")
	stranger := auth.Identity{Subject: "stranger"}

	accountID := uuid.New()
	accRepo.accounts[accountID] = &account.Account{ID: accountID, UserID: "owner", Name: "Checking"}

	rec := doRequest(t, router, &stranger, http.MethodPost, "/transactions", map[string]any{
		"accountId": accountID,
		"amount":    -4.5,
		"payee":     "Coffee Shop",
		"date":      "2024-01-13T00:00:00Z",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionHandler_List(t *testing.T) {
	router, accRepo, txRepo := newTestRouter("USD")
	owner := auth.Identity{Subject: "owner"}

	accountID := uuid.New()
	accRepo.accounts[accountID] = &account.Account{ID: accountID, UserID: "owner", Name: "Checking"}
	txRepo.created = append(txRepo.created, &transaction.Transaction{
		ID:          uuid.New(),
		UserID:      "owner",
		AccountID:   accountID,
		AmountMilli: -4500,
		Payee:       "Coffee Shop",
		Date:        time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC),
	})

	rec := doRequest(t, router, &owner, http.MethodGet, "/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []struct {
		DisplayAmount string `json:"displayAmount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "-$4.50", got[0].DisplayAmount)
}
