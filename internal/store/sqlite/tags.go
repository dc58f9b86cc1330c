package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jotterapp/jotter-server/internal/domain"
	"github.com/jotterapp/jotter-server/internal/id"
	"github.com/jotterapp/jotter-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, name, created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag
	var createdAt string

	err := scanner.Scan(
		&t.ID,
		&t.Name,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag into the database.
// Returns store.ErrAlreadyExists if the ID or name already exists.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, created_at)
		VALUES (?, ?, ?)`,
		tag.ID,
		tag.Name,
		formatTime(tag.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTagByName retrieves a tag by its canonical name.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = ?`, name)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FindOrCreateTagByName returns the tag with the given canonical name,
// creating it if it does not exist. The bool is true when a new tag was
// created. Two concurrent callers racing on the same name both get the
// same tag: the loser of the insert re-reads the winner's row.
func (s *Store) FindOrCreateTagByName(ctx context.Context, name string) (*domain.Tag, bool, error) {
	existing, err := s.GetTagByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, false, fmt.Errorf("generate tag id: %w", err)
	}

	tag := &domain.Tag{
		ID:        tagID,
		Name:      name,
		CreatedAt: time.Now(),
	}

	err = s.CreateTag(ctx, tag)
	if err == nil {
		return tag, true, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return nil, false, err
	}

	// Lost the race; someone else inserted the tag between our read
	// and write. Use theirs.
	existing, err = s.GetTagByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ListTagsForNotes returns the tags attached to each of the given notes,
// keyed by note ID and ordered by tag name. Notes without tags have no
// entry in the map.
func (s *Store) ListTagsForNotes(ctx context.Context, noteIDs []string) (map[string][]*domain.Tag, error) {
	result := make(map[string][]*domain.Tag)
	if len(noteIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(noteIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(noteIDs))
	for _, noteID := range noteIDs {
		args = append(args, noteID)
	}

	query := `SELECT nt.note_id, t.id, t.name, t.created_at
		FROM note_tags nt
		JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id IN (` + placeholders + `)
		ORDER BY t.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var noteID string
		var t domain.Tag
		var createdAt string

		if err := rows.Scan(&noteID, &t.ID, &t.Name, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}

		result[noteID] = append(result[noteID], &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
