// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a registered identity. PasswordHash is a bcrypt digest and is
// never serialized.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}
