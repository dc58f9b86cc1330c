package domain

import "time"

// RefreshToken is a one-time-use opaque credential for minting new token
// pairs. Only the SHA-256 digest of the secret is stored; the secret
// itself is handed to the client exactly once.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired checks if the token has passed its expiration time.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsActive reports whether the token can still be exchanged.
func (t *RefreshToken) IsActive() bool {
	return !t.Revoked && !t.IsExpired()
}
