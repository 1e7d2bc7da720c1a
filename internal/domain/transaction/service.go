package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pocketledger/pocketledger/internal/domain/account"
	"github.com/pocketledger/pocketledger/internal/domain/category"
	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/money"
)

// Service handles transaction business logic. Creating a transaction
// verifies the referenced account (and optional category) exists and is
// owned by the caller, so a transaction can never be created orphaned.
type Service struct {
	repo       Repository
	accounts   account.Repository
	categories category.Repository
	logger     *slog.Logger
}

// NewService creates a new transaction service
func NewService(repo Repository, accounts account.Repository, categories category.Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		accounts:   accounts,
		categories: categories,
		logger:     logger,
	}
}

// CreateInput carries the user-supplied fields for a new transaction
type CreateInput struct {
	AccountID  uuid.UUID
	CategoryID *uuid.UUID
	Amount     float64
	Payee      string
	Notes      *string
	Date       time.Time
}

// UpdateInput carries patch fields; nil fields are left untouched. Clearing
// the category reference goes through UpdateCategory.
type UpdateInput struct {
	AccountID  *uuid.UUID
	CategoryID *uuid.UUID
	Amount     *float64
	Payee      *string
	Notes      *string
	Date       *time.Time
}

// List returns the caller's transactions within the filter window. The date
// range defaults to everything up to now.
func (s *Service) List(ctx context.Context, identity auth.Identity, filter ListFilter) ([]*Joined, error) {
	if filter.From.IsZero() {
		filter.From = time.Unix(0, 0).UTC()
	}
	if filter.To.IsZero() {
		filter.To = time.Now().UTC()
	}
	return s.repo.List(ctx, identity.Subject, filter)
}

// Get returns one transaction with joined names if the caller owns it
func (s *Service) Get(ctx context.Context, identity auth.Identity, id uuid.UUID) (*Joined, error) {
	j, err := s.repo.GetJoinedByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.UserID != identity.Subject {
		return nil, ErrNotFound
	}
	return j, nil
}

// Create validates references and inserts a transaction owned by the caller
func (s *Service) Create(ctx context.Context, identity auth.Identity, input CreateInput) (*Transaction, error) {
	if input.Payee == "" {
		return nil, fmt.Errorf("payee is required")
	}
	if err := s.verifyAccount(ctx, identity, input.AccountID); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if err := s.verifyCategory(ctx, identity, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	tx := &Transaction{
		UserID:      identity.Subject,
		AccountID:   input.AccountID,
		CategoryID:  input.CategoryID,
		AmountMilli: money.ToMilliunits(decimal.NewFromFloat(input.Amount)),
		Payee:       input.Payee,
		Notes:       input.Notes,
		Date:        input.Date.UTC(),
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("transaction created", "transactionID", tx.ID, "user", identity.Subject)
	return tx, nil
}

// BulkCreate inserts all payloads as one batch. References are verified up
// front (with per-id caching) and the insert is a single all-or-nothing
// database transaction. There are no partial-failure semantics: the batch
// lands whole or the caller gets an error and may retry the entire import.
func (s *Service) BulkCreate(ctx context.Context, identity auth.Identity, inputs []CreateInput) ([]*Transaction, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no transactions supplied")
	}

	verifiedAccounts := make(map[uuid.UUID]bool)
	verifiedCategories := make(map[uuid.UUID]bool)

	txs := make([]*Transaction, 0, len(inputs))
	for i, input := range inputs {
		if input.Payee == "" {
			return nil, fmt.Errorf("transaction %d: payee is required", i+1)
		}
		if !verifiedAccounts[input.AccountID] {
			if err := s.verifyAccount(ctx, identity, input.AccountID); err != nil {
				return nil, fmt.Errorf("transaction %d: %w", i+1, err)
			}
			verifiedAccounts[input.AccountID] = true
		}
		if input.CategoryID != nil && !verifiedCategories[*input.CategoryID] {
			if err := s.verifyCategory(ctx, identity, *input.CategoryID); err != nil {
				return nil, fmt.Errorf("transaction %d: %w", i+1, err)
			}
			verifiedCategories[*input.CategoryID] = true
		}

		txs = append(txs, &Transaction{
			UserID:      identity.Subject,
			AccountID:   input.AccountID,
			CategoryID:  input.CategoryID,
			AmountMilli: money.ToMilliunits(decimal.NewFromFloat(input.Amount)),
			Payee:       input.Payee,
			Notes:       input.Notes,
			Date:        input.Date.UTC(),
		})
	}

	if err := s.repo.CreateBatch(ctx, txs); err != nil {
		return nil, err
	}

	s.logger.Info("transactions bulk created", "count", len(txs), "user", identity.Subject)
	return txs, nil
}

// Update applies patch semantics to one transaction
func (s *Service) Update(ctx context.Context, identity auth.Identity, id uuid.UUID, input UpdateInput) (*Transaction, error) {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.UserID != identity.Subject {
		return nil, ErrNotFound
	}

	if input.AccountID != nil {
		if err := s.verifyAccount(ctx, identity, *input.AccountID); err != nil {
			return nil, err
		}
		tx.AccountID = *input.AccountID
	}
	if input.CategoryID != nil {
		if err := s.verifyCategory(ctx, identity, *input.CategoryID); err != nil {
			return nil, err
		}
		tx.CategoryID = input.CategoryID
	}
	if input.Amount != nil {
		tx.AmountMilli = money.ToMilliunits(decimal.NewFromFloat(*input.Amount))
	}
	if input.Payee != nil {
		tx.Payee = *input.Payee
	}
	if input.Notes != nil {
		tx.Notes = input.Notes
	}
	if input.Date != nil {
		tx.Date = input.Date.UTC()
	}

	if err := s.repo.Update(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// UpdateCategory sets or clears the category of one transaction
func (s *Service) UpdateCategory(ctx context.Context, identity auth.Identity, id uuid.UUID, categoryID *uuid.UUID) error {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tx.UserID != identity.Subject {
		return ErrNotFound
	}

	if categoryID != nil {
		if err := s.verifyCategory(ctx, identity, *categoryID); err != nil {
			return err
		}
	}
	return s.repo.UpdateCategory(ctx, id, categoryID)
}

// Remove deletes the given transactions after verifying ownership of each;
// one bad id rejects the whole batch.
func (s *Service) Remove(ctx context.Context, identity auth.Identity, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("no transaction ids supplied")
	}

	for _, id := range ids {
		tx, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if tx.UserID != identity.Subject {
			return 0, ErrNotFound
		}
	}

	deleted, err := s.repo.DeleteBatch(ctx, ids)
	if err != nil {
		return 0, err
	}

	s.logger.Info("transactions deleted", "count", deleted, "user", identity.Subject)
	return deleted, nil
}

func (s *Service) verifyAccount(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if acc.UserID != identity.Subject {
		return account.ErrNotFound
	}
	return nil
}

func (s *Service) verifyCategory(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cat.UserID != identity.Subject {
		return category.ErrNotFound
	}
	return nil
}
