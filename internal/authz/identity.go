package authz

import (
	"github.com/google/uuid"

	"socioai/internal/model"
)

// Identity is the acting user of a request.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

// IsAdmin reports whether the identity holds the administrator role.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}
