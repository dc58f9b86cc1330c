package store

import (
	"context"

	"github.com/jotterapp/jotter-server/internal/domain"
)

// Store is the persistence interface used by the service layer.
// Implementations return ErrNotFound / ErrAlreadyExists so services can
// translate them into domain errors without knowing the backend.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Refresh tokens.
	CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetActiveRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID string, successor *domain.RefreshToken) error

	// Notes. All note reads and writes are scoped to the owning user and
	// exclude soft-deleted rows.
	CreateNote(ctx context.Context, note *domain.Note, tagIDs []string) error
	GetNote(ctx context.Context, userID, noteID string) (*domain.Note, error)
	ListNotes(ctx context.Context, userID string) ([]*domain.Note, error)
	FilterNotesByTags(ctx context.Context, userID string, tagNames []string) ([]*domain.Note, error)
	UpdateNote(ctx context.Context, userID, noteID, title string, content *string) error
	SoftDeleteNote(ctx context.Context, userID, noteID string) error

	// Tags.
	FindOrCreateTagByName(ctx context.Context, name string) (*domain.Tag, bool, error)
	ListTagsForNotes(ctx context.Context, noteIDs []string) (map[string][]*domain.Tag, error)

	// Health.
	Ping(ctx context.Context) error

	Close() error
}
