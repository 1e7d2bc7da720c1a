package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound covers both a missing transaction and one owned by another
// identity; callers cannot tell the two apart.
var ErrNotFound = errors.New("transaction not found")

// Transaction is a single ledger entry. AmountMilli is signed milliunits:
// positive is income, negative is expense.
type Transaction struct {
	ID          uuid.UUID
	UserID      string
	AccountID   uuid.UUID
	CategoryID  *uuid.UUID
	AmountMilli int64
	Payee       string
	Notes       *string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Joined is a transaction with its account and category names resolved, the
// shape list and get endpoints return. Names are pointers because the
// category reference is optional and may have been cleared.
type Joined struct {
	Transaction
	AccountName  string
	CategoryName *string
}
