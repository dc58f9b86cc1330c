// Package domain defines the core data models for the Jotter server.
package domain

import "time"

// User represents a registered account.
// Email is stored in its canonical form (trimmed, lowercased) so the
// UNIQUE constraint in the store catches case and whitespace variants.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	CreatedAt    time.Time `json:"created_at"`
}
