package category

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/pagination"
)

// Service handles category business logic
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new category service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListPage is one page of categories plus the cursor for the next page
type ListPage struct {
	Categories []*Category
	NextCursor string
}

// Create stamps the caller as owner and inserts the category
func (s *Service) Create(ctx context.Context, identity auth.Identity, name string) (*Category, error) {
	if name == "" {
		name = DefaultName
	}

	cat := &Category{
		UserID: identity.Subject,
		Name:   name,
	}
	if err := s.repo.Create(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("category created", "categoryID", cat.ID, "user", identity.Subject)
	return cat, nil
}

// Get returns the category if the caller owns it
func (s *Service) Get(ctx context.Context, identity auth.Identity, id uuid.UUID) (*Category, error) {
	cat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat.UserID != identity.Subject {
		return nil, ErrNotFound
	}
	return cat, nil
}

// List returns a page of the caller's categories
func (s *Service) List(ctx context.Context, identity auth.Identity, search, cursorToken string, limit int) (*ListPage, error) {
	cursor, err := pagination.Decode(cursorToken)
	if err != nil {
		return nil, err
	}
	limit = pagination.ClampLimit(limit)

	categories, err := s.repo.List(ctx, identity.Subject, search, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &ListPage{Categories: categories}
	if len(categories) > limit {
		page.Categories = categories[:limit]
		last := page.Categories[limit-1]
		page.NextCursor = pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, nil
}

// ListAll returns every category the caller owns
func (s *Service) ListAll(ctx context.Context, identity auth.Identity) ([]*Category, error) {
	return s.repo.ListAll(ctx, identity.Subject)
}

// Update renames a category the caller owns
func (s *Service) Update(ctx context.Context, identity auth.Identity, id uuid.UUID, name *string) (*Category, error) {
	cat, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		cat.Name = *name
	}

	if err := s.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// Remove deletes the given categories after verifying ownership of each.
// Referencing transactions become uncategorized rather than being deleted.
func (s *Service) Remove(ctx context.Context, identity auth.Identity, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("no category ids supplied")
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

	s.logger.Info("categories deleted", "count", deleted, "user", identity.Subject)
	return deleted, nil
}
