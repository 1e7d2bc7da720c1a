package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an account does not resolve for the caller.
// A record owned by a different identity is reported the same way, so callers
// cannot distinguish "not found" from "not yours".
var ErrNotFound = errors.New("account not found")

// DefaultName is applied when an account is created with an empty name
const DefaultName = "Unnamed Account"

// Account is a user-owned container for transactions
type Account struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"-"`
	Name       string    `json:"name"`
	ExternalID *string   `json:"externalId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
