package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/pagination"
)

// Service handles account business logic. Every method takes the caller
// identity explicitly; ownership checks are a function of (identity, record).
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new account service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateInput carries the user-supplied fields for a new account
type CreateInput struct {
	Name       string
	ExternalID *string
}

// UpdateInput carries patch fields; nil fields are left untouched
type UpdateInput struct {
	Name       *string
	ExternalID *string
}

// ListPage is one page of accounts plus the cursor for the next page
type ListPage struct {
	Accounts   []*Account
	NextCursor string
}

// Create stamps the caller as owner and inserts the account
func (s *Service) Create(ctx context.Context, identity auth.Identity, input CreateInput) (*Account, error) {
	name := input.Name
	if name == "" {
		name = DefaultName
	}

	acc := &Account{
		UserID:     identity.Subject,
		Name:       name,
		ExternalID: input.ExternalID,
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("account created", "accountID", acc.ID, "user", identity.Subject)
	return acc, nil
}

// Get returns the account if the caller owns it
func (s *Service) Get(ctx context.Context, identity auth.Identity, id uuid.UUID) (*Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.UserID != identity.Subject {
		return nil, ErrNotFound
	}
	return acc, nil
}

// List returns a page of the caller's accounts
func (s *Service) List(ctx context.Context, identity auth.Identity, search, cursorToken string, limit int) (*ListPage, error) {
	cursor, err := pagination.Decode(cursorToken)
	if err != nil {
		return nil, err
	}
	limit = pagination.ClampLimit(limit)

	// Fetch one extra row to know whether a next page exists.
	accounts, err := s.repo.List(ctx, identity.Subject, search, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &ListPage{Accounts: accounts}
	if len(accounts) > limit {
		page.Accounts = accounts[:limit]
		last := page.Accounts[limit-1]
		page.NextCursor = pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, nil
}

// ListAll returns every account the caller owns, for form dropdowns
func (s *Service) ListAll(ctx context.Context, identity auth.Identity) ([]*Account, error) {
	return s.repo.ListAll(ctx, identity.Subject)
}

// Update applies patch semantics: only non-nil input fields change
func (s *Service) Update(ctx context.Context, identity auth.Identity, id uuid.UUID, input UpdateInput) (*Account, error) {
	acc, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		acc.Name = *input.Name
	}
	if input.ExternalID != nil {
		acc.ExternalID = input.ExternalID
	}

	if err := s.repo.Update(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Remove deletes the given accounts after verifying the caller owns every
// one of them; a single missing or foreign id rejects the whole batch.
// Deleting an account cascades to its transactions.
func (s *Service) Remove(ctx context.Context, identity auth.Identity, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("no account ids supplied")
	}

	for _, id := range ids {
		if _, err := s.Get(ctx, identity, id); err != nil {
			return 0, err
		}
	}

	deleted, err := s.repo.DeleteBatch(ctx, ids)
	if err != nil {
		return 0, err
	}

	s.logger.Info("accounts deleted", "count", deleted, "user", identity.Subject)
	return deleted, nil
}
