package category

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound covers both a missing category and one owned by another
// identity; the two cases are indistinguishable to callers.
var ErrNotFound = errors.New("category not found")

// DefaultName is applied when a category is created with an empty name
const DefaultName = "Unnamed Category"

// Category labels transactions. Deleting a category clears the reference on
// its transactions instead of cascading.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
