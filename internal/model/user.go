package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary returns a copy safe to embed in responses about other users.
func (u *User) Summary() *User {
	return &User{ID: u.ID, FullName: u.FullName, Email: u.Email}
}
