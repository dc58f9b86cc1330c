package domain

import "time"

// Note is a user-owned note. Notes are soft-deleted: Deleted notes stay
// in the database but are invisible to every query path.
type Note struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Content   *string    `json:"content,omitempty"`
	Deleted   bool       `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Tag is a globally shared label. Name is the canonical (trimmed,
// lowercased) form and is unique across the system.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
