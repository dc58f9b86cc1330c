package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jotterapp/jotter-server/internal/service"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createNote",
		Method:      http.MethodPost,
		Path:        "/notes",
		Summary:     "Create note",
		Description: "Creates a note for the current user. Tag names are trimmed and lowercased; unknown tags are created on the fly.",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/notes",
		Summary:     "List notes",
		Description: "Returns all of the current user's notes, newest first",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "filterNotesByTags",
		Method:      http.MethodGet,
		Path:        "/notes/filterByTags",
		Summary:     "Filter notes by tags",
		Description: "Returns notes carrying at least one of the given tags (comma separated), newest first",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFilterNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNote",
		Method:      http.MethodGet,
		Path:        "/notes/{id}",
		Summary:     "Get note",
		Description: "Returns a note by ID",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetNote)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateNote",
		Method:        http.MethodPut,
		Path:          "/notes/{id}",
		Summary:       "Update note",
		Description:   "Replaces the title and content of a note",
		Tags:          []string{"Notes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteNote",
		Method:        http.MethodDelete,
		Path:          "/notes/{id}",
		Summary:       "Delete note",
		Description:   "Soft-deletes a note. Deleted notes disappear from all reads.",
		Tags:          []string{"Notes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteNote)
}

// === DTOs ===

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string   `json:"title" validate:"required,min=1,max=512" doc:"Note title"`
	Content *string  `json:"content,omitempty" doc:"Note body"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=32" doc:"Tag names"`
}

// CreateNoteInput wraps the create note request for Huma.
type CreateNoteInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateNoteRequest
}

// CreateNoteResponse contains the ID of a created note.
type CreateNoteResponse struct {
	ID string `json:"id" doc:"Created note ID"`
}

// CreateNoteOutput wraps the create note response for Huma.
type CreateNoteOutput struct {
	Body CreateNoteResponse
}

// NoteResponse contains note data in API responses.
type NoteResponse struct {
	ID        string     `json:"id" doc:"Note ID"`
	Title     string     `json:"title" doc:"Note title"`
	Content   *string    `json:"content,omitempty" doc:"Note body"`
	Tags      []string   `json:"tags" doc:"Canonical tag names"`
	CreatedAt time.Time  `json:"created_at" doc:"Creation time"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" doc:"Last update time"`
}

// NoteOutput wraps a single note response for Huma.
type NoteOutput struct {
	Body NoteResponse
}

// ListNotesInput contains parameters for listing notes.
type ListNotesInput struct {
	Authorization string `header:"Authorization"`
}

// ListNotesResponse contains a list of notes.
type ListNotesResponse struct {
	Notes []NoteResponse `json:"notes" doc:"Notes, newest first"`
}

// ListNotesOutput wraps the list notes response for Huma.
type ListNotesOutput struct {
	Body ListNotesResponse
}

// FilterNotesInput contains parameters for filtering notes by tags.
type FilterNotesInput struct {
	Authorization string `header:"Authorization"`
	TagsParam     string `query:"tags" doc:"Comma-separated tag names"`
}

// GetNoteInput contains parameters for getting a note.
type GetNoteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Note ID"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Title   string  `json:"title" validate:"required,min=1,max=512" doc:"Note title"`
	Content *string `json:"content,omitempty" doc:"Note body"`
}

// UpdateNoteInput wraps the update note request for Huma.
type UpdateNoteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Note ID"`
	Body          UpdateNoteRequest
}

// DeleteNoteInput contains parameters for deleting a note.
type DeleteNoteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Note ID"`
}

// === Handlers ===

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*CreateNoteOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	detail, err := s.services.Note.CreateNote(ctx, userID, service.CreateNoteRequest{
		Title:   input.Body.Title,
		Content: input.Body.Content,
		Tags:    input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &CreateNoteOutput{
		Body: CreateNoteResponse{ID: detail.Note.ID},
	}, nil
}

func (s *Server) handleListNotes(ctx context.Context, input *ListNotesInput) (*ListNotesOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	details, err := s.services.Note.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListNotesOutput{
		Body: ListNotesResponse{Notes: noteResponses(details)},
	}, nil
}

func (s *Server) handleFilterNotes(ctx context.Context, input *FilterNotesInput) (*ListNotesOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	details, err := s.services.Note.FilterNotes(ctx, userID, strings.Split(input.TagsParam, ","))
	if err != nil {
		return nil, err
	}

	return &ListNotesOutput{
		Body: ListNotesResponse{Notes: noteResponses(details)},
	}, nil
}

func (s *Server) handleGetNote(ctx context.Context, input *GetNoteInput) (*NoteOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	detail, err := s.services.Note.GetNote(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: noteResponse(detail)}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	err = s.services.Note.UpdateNote(ctx, userID, input.ID, service.UpdateNoteRequest{
		Title:   input.Body.Title,
		Content: input.Body.Content,
	})
	if err != nil {
		return nil, err
	}

	return nil, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *DeleteNoteInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Note.DeleteNote(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return nil, nil
}

// === Mapping ===

func noteResponse(detail *service.NoteDetail) NoteResponse {
	tags := make([]string, len(detail.Tags))
	for i, tag := range detail.Tags {
		tags[i] = tag.Name
	}

	return NoteResponse{
		ID:        detail.Note.ID,
		Title:     detail.Note.Title,
		Content:   detail.Note.Content,
		Tags:      tags,
		CreatedAt: detail.Note.CreatedAt,
		UpdatedAt: detail.Note.UpdatedAt,
	}
}

func noteResponses(details []*service.NoteDetail) []NoteResponse {
	resp := make([]NoteResponse, len(details))
	for i, detail := range details {
		resp[i] = noteResponse(detail)
	}
	return resp
}
