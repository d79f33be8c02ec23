package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/service"
)

// NoteService is the slice of service.NoteService the note handlers need.
type NoteService interface {
	Create(ctx context.Context, ownerID string, in service.CreateNoteInput) (*model.Note, error)
	Get(ctx context.Context, ownerID, noteID string) (*model.Note, error)
	Update(ctx context.Context, ownerID, noteID string, in service.UpdateNoteInput) (*model.Note, error)
	SetPinned(ctx context.Context, ownerID, noteID string, in service.SetPinnedInput) (*model.Note, error)
	List(ctx context.Context, ownerID string) ([]model.Note, error)
	Delete(ctx context.Context, ownerID, noteID string) error
	Search(ctx context.Context, ownerID, query string) ([]model.Note, error)
}

// NoteHandler serves the note routes. Every route sits behind
// auth.RequireAuth; the owner is always the authenticated caller, never a
// value from the request body.
type NoteHandler struct {
	notes  NoteService
	logger *slog.Logger
}

func NewNoteHandler(notes NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		notes:  notes,
		logger: logger,
	}
}

type noteResponse struct {
	Error   bool        `json:"error"`
	Note    *model.Note `json:"note"`
	Message string      `json:"message"`
}

type notesResponse struct {
	Error   bool         `json:"error"`
	Notes   []model.Note `json:"notes"`
	Message string       `json:"message"`
}

type messageResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// owner returns the caller's user id. RequireAuth guarantees it, so a miss
// means the route was mounted without the gate.
func (h *NoteHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthenticated())
	}
	return userID, ok
}

// HandleAdd creates a note.
//
// HTTP: POST /add-note
// REQUEST BODY: {"title": "Groceries", "content": "milk", "tags": ["home"]}
func (h *NoteHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var in service.CreateNoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	note, err := h.notes.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, noteResponse{Note: note, Message: "Note added successfully"})
}

// HandleGet returns a single note.
//
// HTTP: GET /get-note/{noteId}
func (h *NoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r)
	if !ok {
		return
	}

	note, err := h.notes.Get(r.Context(), userID, chi.URLParam(r, "noteId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, noteResponse{Note: note, Message: "Note retrieved successfully"})
}

// HandleEdit applies a partial update.
//
// HTTP: PUT /edit-note/{noteId}
// REQUEST BODY: any of {"title", "content", "tags", "isPinned"}
func (h *NoteHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var in service.UpdateNoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	note, err := h.notes.Update(r.Context(), userID, chi.URLParam(r, "noteId"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, noteResponse{Note: note, Message: "Note updated successfully"})
}

// HandleList returns every note the caller owns, pinned first.
//
// HTTP: GET /get-all-notes
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r)
	if !ok {
		return
	}

	notes, err := h.notes.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, notesResponse{Notes: notes, Message: "All notes retrieved successfully"})
}

// HandleDelete removes a note.
//
// HTTP: DELETE /delete-note/{noteId}
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r)
	if !ok {
		return
	}

	if err := h.notes.Delete(r.Context(), userID, chi.URLParam(r, "noteId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Note deleted successfully"})
}

// HandleSetPinned pins or unpins a note.
//
// HTTP: PUT /update-note-pinned/{noteId}
// REQUEST BODY: {"isPinned": true}
func (h *NoteHandler) HandleSetPinned(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var in service.SetPinnedInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	note, err := h.notes.SetPinned(r.Context(), userID, chi.URLParam(r, "noteId"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, noteResponse{Note: note, Message: "Note updated successfully"})
}

// HandleSearch finds the caller's notes containing ?query= in the title or
// content.
//
// HTTP: GET /search-notes?query=gym
func (h *NoteHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r)
	if !ok {
		return
	}

	notes, err := h.notes.Search(r.Context(), userID, r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, notesResponse{
		Notes:   notes,
		Message: "Notes matching the search query retrieved successfully",
	})
}
