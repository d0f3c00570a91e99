package model

const (
	// RoleUser is the default role given at registration.
	RoleUser = "user"
	// RoleAdmin bypasses ownership checks.
	RoleAdmin = "admin"
)

// Role is a named permission level.
type Role struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Description string `json:"description" gorm:"uniqueIndex;size:45;not null"`
}
