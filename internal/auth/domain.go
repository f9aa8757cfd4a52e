package auth

import (
	"time"

	"github.com/google/uuid"
)

// Admin is an association officer allowed to manage households and dues.
type Admin struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
