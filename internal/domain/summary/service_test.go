package summary

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketledger/pocketledger/pkg/auth"
)

type fakeRepository struct {
	totals   map[time.Time]PeriodTotals // keyed by filter.From
	spend    []CategorySpend
	active   []DayActivity
	captured []Filter
}

func (f *fakeRepository) PeriodTotals(_ context.Context, filter Filter) (PeriodTotals, error) {
	f.captured = append(f.captured, filter)
	return f.totals[filter.From], nil
}

func (f *fakeRepository) CategorySpend(_ context.Context, filter Filter) ([]CategorySpend, error) {
	f.captured = append(f.captured, filter)
	return f.spend, nil
}

func (f *fakeRepository) ActiveDays(_ context.Context, filter Filter) ([]DayActivity, error) {
	f.captured = append(f.captured, filter)
	return f.active, nil
}

func TestCalculatePercentageChange(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"from zero to something", 5000, 0, 100},
		{"from zero to negative", -5000, 0, 100},
		{"doubled", 2000, 1000, 100},
		{"halved", 500, 1000, -50},
		{"unchanged", 1000, 1000, 0},
		{"sign flip", -1000, 1000, -200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculatePercentageChange(tt.current, tt.previous), 0.0001)
		})
	}
}

func TestFillMissingDays(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("empty input stays empty regardless of range", func(t *testing.T) {
		got := FillMissingDays(nil, day(1), day(31))
		assert.Empty(t, got)
	})

	t.Run("every day present exactly once", func(t *testing.T) {
		active := []DayActivity{
			{Day: day(3), IncomeMilli: 2000000, ExpensesMilli: 4500},
			{Day: day(7), ExpensesMilli: 10000},
		}

		got := FillMissingDays(active, day(1), day(10))
		require.Len(t, got, 10)

		for i, entry := range got {
			assert.Equal(t, day(i+1), entry.Date)
		}
		assert.InDelta(t, 2000.0, got[2].Income, 0.0001)
		assert.InDelta(t, 4.5, got[2].Expenses, 0.0001)
		assert.InDelta(t, 10.0, got[6].Expenses, 0.0001)
		assert.Zero(t, got[0].Income)
		assert.Zero(t, got[0].Expenses)
	})

	t.Run("single day range", func(t *testing.T) {
		active := []DayActivity{{Day: day(5), IncomeMilli: 1000}}
		got := FillMissingDays(active, day(5), day(5))
		require.Len(t, got, 1)
		assert.InDelta(t, 1.0, got[0].Income, 0.0001)
	})
}

func TestService_Get(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	identity := auth.Identity{Subject: "user-1"}

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	prevFrom := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)

	repo := &fakeRepository{
		totals: map[time.Time]PeriodTotals{
			from:     {IncomeMilli: 2000000, ExpensesMilli: -500000, RemainingMilli: 1500000},
			prevFrom: {IncomeMilli: 1000000, ExpensesMilli: -1000000, RemainingMilli: 0},
		},
		spend: []CategorySpend{
			{Name: "Rent", ValueMilli: 900000},
			{Name: "Food", ValueMilli: 300000},
			{Name: "Transport", ValueMilli: 100000},
			{Name: "Books", ValueMilli: 50000},
			{Name: "Coffee", ValueMilli: 25000},
		},
		active: []DayActivity{
			{Day: from, IncomeMilli: 2000000, ExpensesMilli: 500000},
		},
	}
	svc := NewService(repo, logger)

	got, err := svc.Get(context.Background(), identity, Request{From: &from, To: &to})
	require.NoError(t, err)

	assert.InDelta(t, 1500.0, got.RemainingAmount, 0.0001)
	assert.InDelta(t, 100.0, got.RemainingChange, 0.0001) // prior remaining was zero
	assert.InDelta(t, 2000.0, got.IncomeAmount, 0.0001)
	assert.InDelta(t, 100.0, got.IncomeChange, 0.0001)
	assert.InDelta(t, 500.0, got.ExpensesAmount, 0.0001) // absolute
	assert.InDelta(t, -50.0, got.ExpensesChange, 0.0001)

	// top three plus the fold
	require.Len(t, got.Categories, 4)
	assert.Equal(t, "Rent", got.Categories[0].Name)
	assert.Equal(t, "Food", got.Categories[1].Name)
	assert.Equal(t, "Transport", got.Categories[2].Name)
	assert.Equal(t, "Other", got.Categories[3].Name)
	assert.InDelta(t, 75.0, got.Categories[3].Value, 0.0001)

	// ten inclusive days in the window
	assert.Len(t, got.Days, 10)

	// prior window immediately precedes the current one with equal length
	require.NotEmpty(t, repo.captured)
	assert.Equal(t, prevFrom, repo.captured[1].From)
	assert.Equal(t, "user-1", repo.captured[0].UserID)
}

func TestService_Get_NoOtherBucketForThreeCategories(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)

	repo := &fakeRepository{
		spend: []CategorySpend{
			{Name: "Rent", ValueMilli: 900000},
			{Name: "Food", ValueMilli: 300000},
		},
	}
	svc := NewService(repo, logger)

	got, err := svc.Get(context.Background(), auth.Identity{Subject: "user-1"}, Request{From: &from, To: &to})
	require.NoError(t, err)

	require.Len(t, got.Categories, 2)
	for _, c := range got.Categories {
		assert.NotEqual(t, "Other", c.Name)
	}
	assert.Empty(t, got.Days)
}
