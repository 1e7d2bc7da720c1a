package summary

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_ActiveDays_QueryShape(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("buckets by utc day", func(t *testing.T) {
		mock.ExpectQuery(`SELECT date_trunc\('day', date AT TIME ZONE 'UTC'\)`).
			WithArgs("owner", from, to).
			WillReturnRows(pgxmock.NewRows([]string{"day", "income", "expenses"}).
				AddRow(day, int64(2000000), int64(4500)))

		days, err := repo.ActiveDays(context.Background(), Filter{UserID: "owner", From: from, To: to})
		require.NoError(t, err)
		require.Len(t, days, 1)
		assert.Equal(t, day, days[0].Day)
		assert.Equal(t, int64(2000000), days[0].IncomeMilli)
		assert.Equal(t, int64(4500), days[0].ExpensesMilli)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account filter appended", func(t *testing.T) {
		accountID := uuid.New()
		mock.ExpectQuery(`AND account_id = \$4\s+GROUP BY 1\s+ORDER BY 1 ASC`).
			WithArgs("owner", from, to, accountID).
			WillReturnRows(pgxmock.NewRows([]string{"day", "income", "expenses"}))

		days, err := repo.ActiveDays(context.Background(), Filter{
			UserID:    "owner",
			AccountID: &accountID,
			From:      from,
			To:        to,
		})
		require.NoError(t, err)
		assert.Empty(t, days)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
