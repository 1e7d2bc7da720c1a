package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	pldb "github.com/pocketledger/pocketledger/pkg/db"
	"github.com/pocketledger/pocketledger/pkg/pagination"
)

// Repository is the persistence contract for categories
type Repository interface {
	Create(ctx context.Context, cat *Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	List(ctx context.Context, userID, search string, cursor pagination.Cursor, limit int) ([]*Category, error)
	ListAll(ctx context.Context, userID string) ([]*Category, error)
	Update(ctx context.Context, cat *Category) error
	DeleteBatch(ctx context.Context, ids []uuid.UUID) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool pldb.Querier
}

// NewPostgresRepository creates a new PostgreSQL category repository
func NewPostgresRepository(pool pldb.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new category
func (r *PostgresRepository) Create(ctx context.Context, cat *Category) error {
	if cat.ID == uuid.Nil {
		cat.ID = uuid.New()
	}

	query := `
		INSERT INTO categories (id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, cat.ID, cat.UserID, cat.Name).
		Scan(&cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM categories
		WHERE id = $1`

	cat := &Category{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&cat.ID, &cat.UserID, &cat.Name, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return cat, nil
}

// List retrieves a page of the user's categories with optional name search
func (r *PostgresRepository) List(ctx context.Context, userID, search string, cursor pagination.Cursor, limit int) ([]*Category, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM categories
		WHERE user_id = $1`

	args := []interface{}{userID}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	if !cursor.IsZero() {
		args = append(args, cursor.CreatedAt, cursor.ID)
		query += fmt.Sprintf(` AND (created_at, id) > ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at, id LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// ListAll retrieves every category the user owns
func (r *PostgresRepository) ListAll(ctx context.Context, userID string) ([]*Category, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// Update persists a name change to an existing category
func (r *PostgresRepository) Update(ctx context.Context, cat *Category) error {
	query := `
		UPDATE categories
		SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, cat.ID, cat.Name).Scan(&cat.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// DeleteBatch removes the given categories. Transactions that referenced
// them are left uncategorized by the ON DELETE SET NULL constraint.
func (r *PostgresRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) (int, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete categories: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func scanCategories(rows pgx.Rows) ([]*Category, error) {
	var categories []*Category
	for rows.Next() {
		cat := &Category{}
		err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.CreatedAt, &cat.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, nil
}
