package account

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. The password hash never leaves the
// storage layer through this type.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
