package summary

import (
	"time"

	"github.com/google/uuid"
)

// PeriodTotals are the aggregated milliunit sums for one date window.
// Expenses keep their negative sign here; the service flips them to absolute
// values at the response boundary.
type PeriodTotals struct {
	IncomeMilli    int64
	ExpensesMilli  int64
	RemainingMilli int64
}

// CategorySpend is the absolute expense total for one category name
type CategorySpend struct {
	Name       string
	ValueMilli int64
}

// DayActivity is the income/expense total for one calendar day that had at
// least one transaction. Expenses are absolute.
type DayActivity struct {
	Day           time.Time
	IncomeMilli   int64
	ExpensesMilli int64
}

// Filter scopes a summary query to one user and window, optionally to a
// single account.
type Filter struct {
	UserID    string
	AccountID *uuid.UUID
	From      time.Time
	To        time.Time
}
