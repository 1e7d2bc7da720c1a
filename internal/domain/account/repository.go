package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	pldb "github.com/pocketledger/pocketledger/pkg/db"
	"github.com/pocketledger/pocketledger/pkg/pagination"
)

// Repository is the persistence contract for accounts
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	List(ctx context.Context, userID, search string, cursor pagination.Cursor, limit int) ([]*Account, error)
	ListAll(ctx context.Context, userID string) ([]*Account, error)
	Update(ctx context.Context, acc *Account) error
	DeleteBatch(ctx context.Context, ids []uuid.UUID) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool pldb.Querier
}

// NewPostgresRepository creates a new PostgreSQL account repository
func NewPostgresRepository(pool pldb.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new account
func (r *PostgresRepository) Create(ctx context.Context, acc *Account) error {
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}

	query := `
		INSERT INTO accounts (id, user_id, name, external_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, acc.ID, acc.UserID, acc.Name, acc.ExternalID).
		Scan(&acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `
		SELECT id, user_id, name, external_id, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	acc := &Account{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&acc.ID, &acc.UserID, &acc.Name, &acc.ExternalID, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// List retrieves a page of the user's accounts, optionally filtered by a
// case-insensitive name search
func (r *PostgresRepository) List(ctx context.Context, userID, search string, cursor pagination.Cursor, limit int) ([]*Account, error) {
	query := `
		SELECT id, user_id, name, external_id, created_at, updated_at
		FROM accounts
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
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// ListAll retrieves every account the user owns
func (r *PostgresRepository) ListAll(ctx context.Context, userID string) ([]*Account, error) {
	query := `
		SELECT id, user_id, name, external_id, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// Update persists name/external id changes to an existing account
func (r *PostgresRepository) Update(ctx context.Context, acc *Account) error {
	query := `
		UPDATE accounts
		SET name = $2, external_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, acc.ID, acc.Name, acc.ExternalID).Scan(&acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// DeleteBatch removes the given accounts. Transactions referencing them are
// removed by the ON DELETE CASCADE constraint, so the cascade and the account
// deletion commit atomically.
func (r *PostgresRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) (int, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete accounts: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func scanAccounts(rows pgx.Rows) ([]*Account, error) {
	var accounts []*Account
	for rows.Next() {
		acc := &Account{}
		err := rows.Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.ExternalID, &acc.CreatedAt, &acc.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}
