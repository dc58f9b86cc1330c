package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jotterapp/jotter-server/internal/domain"
	"github.com/jotterapp/jotter-server/internal/store"
)

// noteColumns is the ordered list of columns selected in note queries.
// Must match the scan order in scanNote.
const noteColumns = `id, user_id, title, content, deleted, created_at, updated_at`

// scanNote scans a sql.Row (or sql.Rows via its Scan method) into a domain.Note.
func scanNote(scanner interface{ Scan(dest ...any) error }) (*domain.Note, error) {
	var n domain.Note

	var (
		content   sql.NullString
		deleted   int
		createdAt string
		updatedAt sql.NullString
	)

	err := scanner.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&content,
		&deleted,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	n.UpdatedAt, err = parseNullableTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if content.Valid {
		n.Content = &content.String
	}
	n.Deleted = deleted != 0

	return &n, nil
}

// CreateNote inserts a note and its tag associations in a single
// transaction, so a note never appears without its tags.
// Returns store.ErrAlreadyExists if the note ID already exists.
func (s *Store) CreateNote(ctx context.Context, note *domain.Note, tagIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, content, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.UserID,
		note.Title,
		nullableString(note.Content),
		boolToInt(note.Deleted),
		formatTime(note.CreatedAt),
		nullTimeString(note.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert note: %w", err)
	}

	now := formatTime(time.Now())
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO note_tags (note_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			note.ID,
			tagID,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert note_tag: %w", err)
		}
	}

	return tx.Commit()
}

// GetNote retrieves a note by ID scoped to its owner, excluding
// soft-deleted rows. A note owned by another user is indistinguishable
// from a missing one.
// Returns store.ErrNotFound if no visible note matches.
func (s *Store) GetNote(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes
		WHERE id = ? AND user_id = ? AND deleted = 0`,
		noteID, userID)

	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotes returns all visible notes for a user, newest first.
func (s *Store) ListNotes(ctx context.Context, userID string) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes
		WHERE user_id = ? AND deleted = 0
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotes(rows)
}

// FilterNotesByTags returns the user's visible notes carrying at least
// one of the given canonical tag names, newest first. Notes matching
// several names appear once.
func (s *Store) FilterNotesByTags(ctx context.Context, userID string, tagNames []string) ([]*domain.Note, error) {
	if len(tagNames) == 0 {
		return []*domain.Note{}, nil
	}

	placeholders := strings.Repeat("?,", len(tagNames))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(tagNames)+1)
	args = append(args, userID)
	for _, name := range tagNames {
		args = append(args, name)
	}

	query := `SELECT DISTINCT n.id, n.user_id, n.title, n.content, n.deleted, n.created_at, n.updated_at
		FROM notes n
		JOIN note_tags nt ON nt.note_id = n.id
		JOIN tags t ON t.id = nt.tag_id
		WHERE n.user_id = ? AND n.deleted = 0 AND t.name IN (` + placeholders + `)
		ORDER BY n.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotes(rows)
}

// collectNotes drains a result set into a slice of notes.
func collectNotes(rows *sql.Rows) ([]*domain.Note, error) {
	var notes []*domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if notes == nil {
		notes = []*domain.Note{}
	}

	return notes, nil
}

// UpdateNote updates the title and content of a visible note owned by
// the user, setting updated_at.
// Returns store.ErrNotFound if the note is missing, deleted, or owned
// by someone else.
func (s *Store) UpdateNote(ctx context.Context, userID, noteID, title string, content *string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted = 0`,
		title,
		nullableString(content),
		formatTime(time.Now()),
		noteID,
		userID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SoftDeleteNote marks a visible note as deleted and sets updated_at.
// Deleting an already-deleted note reports store.ErrNotFound, same as a
// missing one.
func (s *Store) SoftDeleteNote(ctx context.Context, userID, noteID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notes SET deleted = 1, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted = 0`,
		formatTime(time.Now()),
		noteID,
		userID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
