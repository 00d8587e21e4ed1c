package models

import "github.com/google/uuid"

type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
}

// Principal returns the identity tasks created by this user are bound to.
func (u User) Principal() Principal {
	return Principal(u.ID.String())
}
