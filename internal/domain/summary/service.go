package summary

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/money"
)

// DefaultWindowDays is the trailing window used when the caller supplies no
// date range.
const DefaultWindowDays = 30

// topCategoryCount is how many categories are listed individually before the
// remainder collapses into "Other".
const topCategoryCount = 3

// Service computes dashboard summaries. The current window is compared
// against the immediately preceding window of equal length.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new summary service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Category is one slice of the spending breakdown, in currency units
type Category struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Day is one calendar day of the gap-filled series, in currency units.
// Expenses are absolute.
type Day struct {
	Date     time.Time `json:"date"`
	Income   float64   `json:"income"`
	Expenses float64   `json:"expenses"`
}

// Summary is the full dashboard payload. Amounts are currency units and
// expenses are absolute; change fields are percentages against the prior
// window.
type Summary struct {
	RemainingAmount float64    `json:"remainingAmount"`
	RemainingChange float64    `json:"remainingChange"`
	IncomeAmount    float64    `json:"incomeAmount"`
	IncomeChange    float64    `json:"incomeChange"`
	ExpensesAmount  float64    `json:"expensesAmount"`
	ExpensesChange  float64    `json:"expensesChange"`
	Categories      []Category `json:"categories"`
	Days            []Day      `json:"days"`
}

// Request scopes a summary to an optional account and date window
type Request struct {
	AccountID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// Get computes the summary for the requested window and its prior window
func (s *Service) Get(ctx context.Context, identity auth.Identity, req Request) (*Summary, error) {
	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Second)
	if req.To != nil {
		to = req.To.UTC().Add(24*time.Hour - time.Second)
	}
	from := to.AddDate(0, 0, -DefaultWindowDays).Truncate(24 * time.Hour)
	if req.From != nil {
		from = req.From.UTC().Truncate(24 * time.Hour)
	}

	// prior window: same length, ending right where this one starts
	windowDays := int(to.Sub(from).Hours()/24) + 1
	prevFrom := from.AddDate(0, 0, -windowDays)
	prevTo := to.AddDate(0, 0, -windowDays)

	current := Filter{UserID: identity.Subject, AccountID: req.AccountID, From: from, To: to}
	prior := Filter{UserID: identity.Subject, AccountID: req.AccountID, From: prevFrom, To: prevTo}

	curTotals, err := s.repo.PeriodTotals(ctx, current)
	if err != nil {
		return nil, err
	}
	prevTotals, err := s.repo.PeriodTotals(ctx, prior)
	if err != nil {
		return nil, err
	}

	spend, err := s.repo.CategorySpend(ctx, current)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.ActiveDays(ctx, current)
	if err != nil {
		return nil, err
	}

	return &Summary{
		RemainingAmount: money.Float(curTotals.RemainingMilli),
		RemainingChange: CalculatePercentageChange(curTotals.RemainingMilli, prevTotals.RemainingMilli),
		IncomeAmount:    money.Float(curTotals.IncomeMilli),
		IncomeChange:    CalculatePercentageChange(curTotals.IncomeMilli, prevTotals.IncomeMilli),
		ExpensesAmount:  money.Float(-curTotals.ExpensesMilli),
		ExpensesChange:  CalculatePercentageChange(curTotals.ExpensesMilli, prevTotals.ExpensesMilli),
		Categories:      topCategories(spend),
		Days:            FillMissingDays(active, from, to),
	}, nil
}

// CalculatePercentageChange returns the percentage difference between two
// values. A zero previous value is special-cased so fresh accounts do not
// divide by zero: no movement reads 0, any movement reads 100.
func CalculatePercentageChange(current, previous int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return float64(current-previous) / float64(previous) * 100
}

// topCategories keeps the three largest spenders and folds the rest into a
// trailing "Other" bucket. Input must already be sorted by spend descending.
func topCategories(spend []CategorySpend) []Category {
	categories := make([]Category, 0, topCategoryCount+1)
	var otherMilli int64

	for i, cs := range spend {
		if i < topCategoryCount {
			categories = append(categories, Category{Name: cs.Name, Value: money.Float(cs.ValueMilli)})
			continue
		}
		otherMilli += cs.ValueMilli
	}
	if otherMilli > 0 {
		categories = append(categories, Category{Name: "Other", Value: money.Float(otherMilli)})
	}
	return categories
}

// FillMissingDays expands the sparse active-day series into one entry per
// calendar day between from and to, zero-filling the quiet days. An empty
// input yields an empty series rather than a window of zeros.
func FillMissingDays(active []DayActivity, from, to time.Time) []Day {
	if len(active) == 0 {
		return []Day{}
	}

	byDay := make(map[time.Time]DayActivity, len(active))
	for _, day := range active {
		byDay[day.Day.UTC().Truncate(24*time.Hour)] = day
	}

	var days []Day
	for d := from.UTC().Truncate(24 * time.Hour); !d.After(to); d = d.AddDate(0, 0, 1) {
		entry := Day{Date: d}
		if activity, ok := byDay[d]; ok {
			entry.Income = money.Float(activity.IncomeMilli)
			entry.Expenses = money.Float(activity.ExpensesMilli)
		}
		days = append(days, entry)
	}
	return days
}
