package summary

import (
	"context"
	"fmt"

	pldb "github.com/pocketledger/pocketledger/pkg/db"
)

// Repository is the read-side contract for summary aggregation
type Repository interface {
	PeriodTotals(ctx context.Context, filter Filter) (PeriodTotals, error)
	CategorySpend(ctx context.Context, filter Filter) ([]CategorySpend, error)
	ActiveDays(ctx context.Context, filter Filter) ([]DayActivity, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool pldb.Querier
}

// NewPostgresRepository creates a new PostgreSQL summary repository
func NewPostgresRepository(pool pldb.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// PeriodTotals aggregates income, expenses and net for one window in a
// single scan. Expenses come back negative.
func (r *PostgresRepository) PeriodTotals(ctx context.Context, filter Filter) (PeriodTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN amount_milli >= 0 THEN amount_milli ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN amount_milli < 0 THEN amount_milli ELSE 0 END), 0),
			COALESCE(SUM(amount_milli), 0)
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date <= $3`
	args := []any{filter.UserID, filter.From, filter.To}
	if filter.AccountID != nil {
		query += ` AND account_id = $4`
		args = append(args, *filter.AccountID)
	}

	var totals PeriodTotals
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&totals.IncomeMilli, &totals.ExpensesMilli, &totals.RemainingMilli)
	if err != nil {
		return PeriodTotals{}, fmt.Errorf("failed to aggregate period totals: %w", err)
	}
	return totals, nil
}

// CategorySpend groups the window's expenses by category name, largest spend
// first. Transactions whose category was cleared land under "Uncategorized".
func (r *PostgresRepository) CategorySpend(ctx context.Context, filter Filter) ([]CategorySpend, error) {
	query := `
		SELECT COALESCE(c.name, 'Uncategorized'), SUM(ABS(t.amount_milli))
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.amount_milli < 0 AND t.date >= $2 AND t.date <= $3`
	args := []any{filter.UserID, filter.From, filter.To}
	if filter.AccountID != nil {
		query += ` AND t.account_id = $4`
		args = append(args, *filter.AccountID)
	}
	query += `
		GROUP BY 1
		ORDER BY 2 DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate category spend: %w", err)
	}
	defer rows.Close()

	var spend []CategorySpend
	for rows.Next() {
		var cs CategorySpend
		if err := rows.Scan(&cs.Name, &cs.ValueMilli); err != nil {
			return nil, fmt.Errorf("failed to scan category spend: %w", err)
		}
		spend = append(spend, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read category spend: %w", err)
	}
	return spend, nil
}

// ActiveDays returns per-day income and absolute expense totals for the days
// that had at least one transaction, in ascending date order. Days are UTC
// calendar days regardless of the session time zone.
func (r *PostgresRepository) ActiveDays(ctx context.Context, filter Filter) ([]DayActivity, error) {
	query := `
		SELECT date_trunc('day', date AT TIME ZONE 'UTC'),
			SUM(CASE WHEN amount_milli >= 0 THEN amount_milli ELSE 0 END),
			SUM(CASE WHEN amount_milli < 0 THEN ABS(amount_milli) ELSE 0 END)
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date <= $3`
	args := []any{filter.UserID, filter.From, filter.To}
	if filter.AccountID != nil {
		query += ` AND account_id = $4`
		args = append(args, *filter.AccountID)
	}
	query += `
		GROUP BY 1
		ORDER BY 1 ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate active days: %w", err)
	}
	defer rows.Close()

	var days []DayActivity
	for rows.Next() {
		var day DayActivity
		if err := rows.Scan(&day.Day, &day.IncomeMilli, &day.ExpensesMilli); err != nil {
			return nil, fmt.Errorf("failed to scan day activity: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read active days: %w", err)
	}
	return days, nil
}
