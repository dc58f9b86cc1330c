package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jotterapp/jotter-server/internal/store"
)

func TestCreateAndGetNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "notes@example.com")
	note := createTestNote(t, s, user.ID, "groceries")

	got, err := s.GetNote(ctx, user.ID, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.Title != "groceries" {
		t.Errorf("expected title %q, got %q", "groceries", got.Title)
	}
	if got.Content == nil || *got.Content != *note.Content {
		t.Errorf("content mismatch")
	}
	if got.UpdatedAt != nil {
		t.Error("fresh note should have no updated_at")
	}
}

func TestGetNoteScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "owner@example.com")
	other := createTestUser(t, s, "other@example.com")
	note := createTestNote(t, s, owner.ID, "private")

	// Someone else's note looks exactly like a missing one.
	_, err := s.GetNote(ctx, other.ID, note.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign note, got %v", err)
	}
}

func TestListNotesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "list@example.com")

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		createTestNote(t, s, user.ID, title)
		time.Sleep(2 * time.Millisecond)
	}

	notes, err := s.ListNotes(ctx, user.ID)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	if notes[0].Title != "third" || notes[2].Title != "first" {
		t.Errorf("expected newest-first order, got %q, %q, %q",
			notes[0].Title, notes[1].Title, notes[2].Title)
	}
}

func TestListNotesEmpty(t *testing.T) {
	s := newTestStore(t)

	user := createTestUser(t, s, "empty@example.com")

	notes, err := s.ListNotes(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if notes == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(notes) != 0 {
		t.Errorf("expected no notes, got %d", len(notes))
	}
}

func TestUpdateNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "update@example.com")
	note := createTestNote(t, s, user.ID, "draft")

	newContent := "revised"
	if err := s.UpdateNote(ctx, user.ID, note.ID, "final", &newContent); err != nil {
		t.Fatalf("update note: %v", err)
	}

	got, err := s.GetNote(ctx, user.ID, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.Title != "final" {
		t.Errorf("expected title %q, got %q", "final", got.Title)
	}
	if got.Content == nil || *got.Content != "revised" {
		t.Errorf("expected updated content")
	}
	if got.UpdatedAt == nil {
		t.Error("expected updated_at to be set")
	}
}

func TestUpdateNoteClearsContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "clear@example.com")
	note := createTestNote(t, s, user.ID, "keep title")

	if err := s.UpdateNote(ctx, user.ID, note.ID, "keep title", nil); err != nil {
		t.Fatalf("update note: %v", err)
	}

	got, err := s.GetNote(ctx, user.ID, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.Content != nil {
		t.Errorf("expected nil content, got %q", *got.Content)
	}
}

func TestUpdateNoteScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "upowner@example.com")
	other := createTestUser(t, s, "upother@example.com")
	note := createTestNote(t, s, owner.ID, "mine")

	err := s.UpdateNote(ctx, other.ID, note.ID, "stolen", nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign note, got %v", err)
	}

	got, err := s.GetNote(ctx, owner.ID, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.Title != "mine" {
		t.Errorf("foreign update must not touch the note, title now %q", got.Title)
	}
}

func TestSoftDeleteNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "delete@example.com")
	note := createTestNote(t, s, user.ID, "doomed")

	if err := s.SoftDeleteNote(ctx, user.ID, note.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// Deleted notes disappear from reads and listings.
	if _, err := s.GetNote(ctx, user.ID, note.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	notes, err := s.ListNotes(ctx, user.ID)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("deleted note still listed")
	}

	// And a second delete is indistinguishable from a missing note.
	if err := s.SoftDeleteNote(ctx, user.ID, note.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestUpdateDeletedNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "updel@example.com")
	note := createTestNote(t, s, user.ID, "gone")

	if err := s.SoftDeleteNote(ctx, user.ID, note.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	err := s.UpdateNote(ctx, user.ID, note.ID, "resurrected", nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating deleted note, got %v", err)
	}
}

func TestFilterNotesByTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "filter@example.com")

	work, _, err := s.FindOrCreateTagByName(ctx, "work")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	home, _, err := s.FindOrCreateTagByName(ctx, "home")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	workNote := createTestNote(t, s, user.ID, "standup", work.ID)
	bothNote := createTestNote(t, s, user.ID, "errands", work.ID, home.ID)
	createTestNote(t, s, user.ID, "untagged")

	// Single tag.
	notes, err := s.FilterNotesByTags(ctx, user.ID, []string{"home"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != bothNote.ID {
		t.Errorf("expected only the errands note, got %d notes", len(notes))
	}

	// OR semantics: a note matching both tags appears once.
	notes, err = s.FilterNotesByTags(ctx, user.ID, []string{"work", "home"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 distinct notes, got %d", len(notes))
	}
	seen := map[string]bool{}
	for _, n := range notes {
		if seen[n.ID] {
			t.Errorf("note %s returned twice", n.ID)
		}
		seen[n.ID] = true
	}
	if !seen[workNote.ID] || !seen[bothNote.ID] {
		t.Error("expected both tagged notes in the union")
	}

	// Unknown tag matches nothing.
	notes, err = s.FilterNotesByTags(ctx, user.ID, []string{"nonexistent"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("expected no notes for unknown tag, got %d", len(notes))
	}
}

func TestFilterNotesByTagsExcludesDeletedAndForeign(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "fowner@example.com")
	other := createTestUser(t, s, "fother@example.com")

	tag, _, err := s.FindOrCreateTagByName(ctx, "shared")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	kept := createTestNote(t, s, owner.ID, "kept", tag.ID)
	deleted := createTestNote(t, s, owner.ID, "deleted", tag.ID)
	createTestNote(t, s, other.ID, "foreign", tag.ID)

	if err := s.SoftDeleteNote(ctx, owner.ID, deleted.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	notes, err := s.FilterNotesByTags(ctx, owner.ID, []string{"shared"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != kept.ID {
		t.Errorf("expected only the kept note, got %d notes", len(notes))
	}
}
