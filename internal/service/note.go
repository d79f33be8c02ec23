package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

// NoteService enforces note ownership and the note field rules. Every
// method takes the caller's user id first; a note owned by someone else is
// reported exactly like a missing one.
type NoteService struct {
	notes  repository.NoteRepository
	logger *slog.Logger
}

func NewNoteService(notes repository.NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{
		notes:  notes,
		logger: logger,
	}
}

// CreateNoteInput is the body of POST /add-note.
type CreateNoteInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// UpdateNoteInput is the body of PUT /edit-note/{noteId}.
//
// Pointer fields distinguish "absent" from "empty": a present field is
// applied even when it is "" or false, so an empty tags array clears the
// tags and an empty title is rejected rather than ignored.
type UpdateNoteInput struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Tags     *[]string `json:"tags"`
	IsPinned *bool     `json:"isPinned"`
}

// SetPinnedInput is the body of PUT /update-note-pinned/{noteId}.
type SetPinnedInput struct {
	IsPinned *bool `json:"isPinned"`
}

// noteFields carries the rules every stored note must satisfy, checked on
// create and again on the merged result of an update. Lengths are in
// characters.
type noteFields struct {
	Title   string `label:"Title"   validate:"required,max=30"`
	Content string `label:"Content" validate:"required,max=200"`
}

func validateNote(n *model.Note) error {
	return validateStruct(noteFields{Title: n.Title, Content: n.Content})
}

func (s *NoteService) Create(ctx context.Context, ownerID string, in CreateNoteInput) (*model.Note, error) {
	note := &model.Note{
		UserID:  ownerID,
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
		Tags:    normalizeTags(in.Tags),
	}
	if err := validateNote(note); err != nil {
		return nil, err
	}

	if err := s.notes.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("service/note: creating note: %w", err)
	}

	s.logger.InfoContext(ctx, "note created",
		slog.String("noteID", note.ID),
		slog.String("userID", ownerID),
	)

	return note, nil
}

// Get returns one of the caller's notes.
func (s *NoteService) Get(ctx context.Context, ownerID, noteID string) (*model.Note, error) {
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return nil, apperror.NotFoundMessage("Note not found")
	}

	note, err := s.notes.GetNote(ctx, ownerID, noteID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("Note not found")
		}
		return nil, fmt.Errorf("service/note: fetching note %s: %w", noteID, err)
	}

	return note, nil
}

// Update applies the fields present in in. At least one of title, content
// or tags must be present.
func (s *NoteService) Update(ctx context.Context, ownerID, noteID string, in UpdateNoteInput) (*model.Note, error) {
	if in.Title == nil && in.Content == nil && in.Tags == nil {
		return nil, apperror.ValidationFailed("", "No changes provided")
	}

	note, err := s.Get(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		note.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		note.Content = strings.TrimSpace(*in.Content)
	}
	if in.Tags != nil {
		note.Tags = normalizeTags(*in.Tags)
	}
	if in.IsPinned != nil {
		note.IsPinned = *in.IsPinned
	}

	if err := validateNote(note); err != nil {
		return nil, err
	}

	if err := s.save(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// SetPinned pins or unpins one of the caller's notes.
func (s *NoteService) SetPinned(ctx context.Context, ownerID, noteID string, in SetPinnedInput) (*model.Note, error) {
	if in.IsPinned == nil {
		return nil, apperror.ValidationFailed("isPinned", "isPinned is required")
	}

	note, err := s.Get(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}

	note.IsPinned = *in.IsPinned

	if err := s.save(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *NoteService) save(ctx context.Context, note *model.Note) error {
	if err := s.notes.UpdateNote(ctx, note); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFoundMessage("Note not found")
		}
		return fmt.Errorf("service/note: updating note %s: %w", note.ID, err)
	}
	return nil
}

// List returns all of the caller's notes, pinned first. Within each group
// the store's creation order is kept.
func (s *NoteService) List(ctx context.Context, ownerID string) ([]model.Note, error) {
	notes, err := s.notes.ListNotes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/note: listing notes: %w", err)
	}
	return pinnedFirst(notes), nil
}

// Delete removes one of the caller's notes.
//
// The note is looked up first so a missing note is a 404. If it vanishes
// between the lookup and the delete (a concurrent delete won), the result
// is the same as ours would have been, so that counts as success.
func (s *NoteService) Delete(ctx context.Context, ownerID, noteID string) error {
	if _, err := s.Get(ctx, ownerID, noteID); err != nil {
		return err
	}

	err := s.notes.DeleteNote(ctx, ownerID, noteID)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		s.logger.DebugContext(ctx, "note already deleted", slog.String("noteID", noteID))
	default:
		return fmt.Errorf("service/note: deleting note %s: %w", noteID, err)
	}

	s.logger.InfoContext(ctx, "note deleted",
		slog.String("noteID", noteID),
		slog.String("userID", ownerID),
	)

	return nil
}

// Search returns the caller's notes whose title or content contains query,
// ignoring case. A blank query is an error, not "match everything".
func (s *NoteService) Search(ctx context.Context, ownerID, query string) ([]model.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationFailed("query", "Search query is required")
	}

	notes, err := s.notes.SearchNotes(ctx, ownerID, query)
	if err != nil {
		return nil, fmt.Errorf("service/note: searching notes: %w", err)
	}
	return notes, nil
}

// pinnedFirst is a stable partition: pinned notes in their existing order,
// then unpinned notes in theirs.
func pinnedFirst(notes []model.Note) []model.Note {
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if n.IsPinned {
			out = append(out, n)
		}
	}
	for _, n := range notes {
		if !n.IsPinned {
			out = append(out, n)
		}
	}
	return out
}

// normalizeTags trims each tag, drops blanks and keeps the first
// occurrence of each duplicate. The result is never nil.
func normalizeTags(tags []string) model.Tags {
	out := make(model.Tags, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
