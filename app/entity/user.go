package entity

import (
	"time"
)

type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken tracks an outstanding refresh JWT by its JTI. A row is
// consumed on use, so a refresh token can be exchanged exactly once.
type RefreshToken struct {
	ID        uint64
	JTI       string
	UserID    uint64
	ExpiresAt time.Time
	CreatedAt time.Time
}
