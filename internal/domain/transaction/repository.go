package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	pldb "github.com/pocketledger/pocketledger/pkg/db"
)

// ListFilter narrows a transaction listing
type ListFilter struct {
	Search    string
	AccountID *uuid.UUID
	From      time.Time
	To        time.Time
}

// Repository is the persistence contract for transactions
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	CreateBatch(ctx context.Context, txs []*Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetJoinedByID(ctx context.Context, id uuid.UUID) (*Joined, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]*Joined, error)
	Update(ctx context.Context, tx *Transaction) error
	UpdateCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error
	DeleteBatch(ctx context.Context, ids []uuid.UUID) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool pldb.Querier
}

// NewPostgresRepository creates a new PostgreSQL transaction repository
func NewPostgresRepository(pool pldb.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const insertQuery = `
	INSERT INTO transactions (id, user_id, account_id, category_id, amount_milli, payee, notes, date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at, updated_at`

// Create inserts a single transaction
func (r *PostgresRepository) Create(ctx context.Context, tx *Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, insertQuery,
		tx.ID, tx.UserID, tx.AccountID, tx.CategoryID,
		tx.AmountMilli, tx.Payee, tx.Notes, tx.Date,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// CreateBatch inserts all transactions inside one SQL transaction. The batch
// is all-or-nothing: any failure rolls back every row.
func (r *PostgresRepository) CreateBatch(ctx context.Context, txs []*Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	for _, tx := range txs {
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		err := dbTx.QueryRow(ctx, insertQuery,
			tx.ID, tx.UserID, tx.AccountID, tx.CategoryID,
			tx.AmountMilli, tx.Payee, tx.Notes, tx.Date,
		).Scan(&tx.CreatedAt, &tx.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert transaction batch: %w", err)
		}
	}

	return dbTx.Commit(ctx)
}

// GetByID retrieves a transaction without joined names
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	query := `
		SELECT id, user_id, account_id, category_id, amount_milli, payee, notes, date, created_at, updated_at
		FROM transactions
		WHERE id = $1`

	tx := &Transaction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tx.ID, &tx.UserID, &tx.AccountID, &tx.CategoryID,
		&tx.AmountMilli, &tx.Payee, &tx.Notes, &tx.Date,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// GetJoinedByID retrieves a transaction with account and category names
func (r *PostgresRepository) GetJoinedByID(ctx context.Context, id uuid.UUID) (*Joined, error) {
	query := `
		SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount_milli,
		       t.payee, t.notes, t.date, t.created_at, t.updated_at,
		       a.name, c.name
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1`

	j := &Joined{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.UserID, &j.AccountID, &j.CategoryID,
		&j.AmountMilli, &j.Payee, &j.Notes, &j.Date,
		&j.CreatedAt, &j.UpdatedAt,
		&j.AccountName, &j.CategoryName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return j, nil
}

// List retrieves the user's transactions in the date window, newest first,
// with account and category names joined in
func (r *PostgresRepository) List(ctx context.Context, userID string, filter ListFilter) ([]*Joined, error) {
	query := `
		SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount_milli,
		       t.payee, t.notes, t.date, t.created_at, t.updated_at,
		       a.name, c.name
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.date >= $2 AND t.date <= $3`

	args := []interface{}{userID, filter.From, filter.To}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		query += fmt.Sprintf(` AND t.account_id = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(` AND t.payee ILIKE $%d`, len(args))
	}
	query += ` ORDER BY t.date DESC, t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var joined []*Joined
	for rows.Next() {
		j := &Joined{}
		err := rows.Scan(
			&j.ID, &j.UserID, &j.AccountID, &j.CategoryID,
			&j.AmountMilli, &j.Payee, &j.Notes, &j.Date,
			&j.CreatedAt, &j.UpdatedAt,
			&j.AccountName, &j.CategoryName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		joined = append(joined, j)
	}
	return joined, nil
}

// Update rewrites the mutable fields of a transaction
func (r *PostgresRepository) Update(ctx context.Context, tx *Transaction) error {
	query := `
		UPDATE transactions
		SET account_id = $2, category_id = $3, amount_milli = $4,
		    payee = $5, notes = $6, date = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		tx.ID, tx.AccountID, tx.CategoryID, tx.AmountMilli, tx.Payee, tx.Notes, tx.Date,
	).Scan(&tx.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// UpdateCategory sets or clears only the category reference
func (r *PostgresRepository) UpdateCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE transactions SET category_id = $2, updated_at = now() WHERE id = $1`,
		id, categoryID)
	if err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBatch removes the given transactions
func (r *PostgresRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) (int, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	return int(result.RowsAffected()), nil
}
