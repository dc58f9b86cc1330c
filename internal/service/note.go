package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jotterapp/jotter-server/internal/domain"
	domainerrors "github.com/jotterapp/jotter-server/internal/errors"
	"github.com/jotterapp/jotter-server/internal/id"
	"github.com/jotterapp/jotter-server/internal/normalize"
	"github.com/jotterapp/jotter-server/internal/store"
)

// NoteService handles note CRUD and tag management. All operations are
// scoped to the calling user; a note belonging to someone else reports
// not found rather than forbidden.
type NoteService struct {
	store  store.Store
	logger *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(store store.Store, logger *slog.Logger) *NoteService {
	return &NoteService{
		store:  store,
		logger: logger,
	}
}

// NoteDetail is a note together with its tags.
type NoteDetail struct {
	Note *domain.Note
	Tags []*domain.Tag
}

// CreateNoteRequest contains the data for a new note.
type CreateNoteRequest struct {
	Title   string   `json:"title" validate:"required,max=512"`
	Content *string  `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty" validate:"max=32,dive,max=128"`
}

// UpdateNoteRequest contains replacement title and content for a note.
type UpdateNoteRequest struct {
	Title   string  `json:"title" validate:"required,max=512"`
	Content *string `json:"content,omitempty"`
}

// CreateNote creates a note for the user, resolving tag names to shared
// tags. Tag names are canonicalized; blanks and duplicates are dropped.
func (s *NoteService) CreateNote(ctx context.Context, userID string, req CreateNoteRequest) (*NoteDetail, error) {
	// Validate request
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	names := normalize.Tags(req.Tags)
	tags := make([]*domain.Tag, 0, len(names))
	tagIDs := make([]string, 0, len(names))
	for _, name := range names {
		tag, _, err := s.store.FindOrCreateTagByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		tags = append(tags, tag)
		tagIDs = append(tagIDs, tag.ID)
	}

	noteID, err := id.Generate("note")
	if err != nil {
		return nil, fmt.Errorf("generate note ID: %w", err)
	}

	note := &domain.Note{
		ID:        noteID,
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateNote(ctx, note, tagIDs); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Note created",
			"note_id", noteID,
			"user_id", userID,
			"tags", len(tags),
		)
	}

	return &NoteDetail{Note: note, Tags: tags}, nil
}

// GetNote retrieves a single note with its tags.
func (s *NoteService) GetNote(ctx context.Context, userID, noteID string) (*NoteDetail, error) {
	note, err := s.store.GetNote(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("note not found")
		}
		return nil, fmt.Errorf("get note: %w", err)
	}

	tags, err := s.store.ListTagsForNotes(ctx, []string{note.ID})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return &NoteDetail{Note: note, Tags: tags[note.ID]}, nil
}

// ListNotes returns all of the user's notes, newest first.
func (s *NoteService) ListNotes(ctx context.Context, userID string) ([]*NoteDetail, error) {
	notes, err := s.store.ListNotes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return s.attachTags(ctx, notes)
}

// FilterNotes returns the user's notes carrying at least one of the
// given tags, newest first. Names are canonicalized before matching;
// an empty list after canonicalization is a validation error.
func (s *NoteService) FilterNotes(ctx context.Context, userID string, tagNames []string) ([]*NoteDetail, error) {
	names := normalize.Tags(tagNames)
	if len(names) == 0 {
		return nil, domainerrors.Validation("at least one tag is required")
	}

	notes, err := s.store.FilterNotesByTags(ctx, userID, names)
	if err != nil {
		return nil, fmt.Errorf("filter notes: %w", err)
	}
	return s.attachTags(ctx, notes)
}

// UpdateNote replaces the title and content of a note.
func (s *NoteService) UpdateNote(ctx context.Context, userID, noteID string, req UpdateNoteRequest) error {
	// Validate request
	if err := validate.Validate(req); err != nil {
		return err
	}

	if err := s.store.UpdateNote(ctx, userID, noteID, req.Title, req.Content); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("note not found")
		}
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

// DeleteNote soft-deletes a note. Deleting it again reports not found.
func (s *NoteService) DeleteNote(ctx context.Context, userID, noteID string) error {
	if err := s.store.SoftDeleteNote(ctx, userID, noteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("note not found")
		}
		return fmt.Errorf("delete note: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Note deleted", "note_id", noteID, "user_id", userID)
	}
	return nil
}

// attachTags loads tags for a batch of notes in one query.
func (s *NoteService) attachTags(ctx context.Context, notes []*domain.Note) ([]*NoteDetail, error) {
	noteIDs := make([]string, len(notes))
	for i, n := range notes {
		noteIDs[i] = n.ID
	}

	tags, err := s.store.ListTagsForNotes(ctx, noteIDs)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	details := make([]*NoteDetail, len(notes))
	for i, n := range notes {
		details[i] = &NoteDetail{Note: n, Tags: tags[n.ID]}
	}
	return details, nil
}
