package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =========================================================================
// FAKE USER REPOSITORY
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. Setting one of
// the *Err fields simulates a store failure on that call.
type fakeUserRepo struct {
	users  map[string]*model.User // keyed by ID
	nextID int

	createErr  error
	getByEmail error
	getByIDErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperror.AlreadyExists("User")
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.CreatedOn = time.Now()
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getByEmail != nil {
		return nil, f.getByEmail
	}
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFoundMessage("User not found")
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("User", id)
	}
	out := *u
	return &out, nil
}

// =========================================================================
// FAKE NOTE REPOSITORY
// =========================================================================

// fakeNoteRepo keeps notes in insertion order, which stands in for the
// store's creation order.
type fakeNoteRepo struct {
	notes  []*model.Note
	nextID int

	createErr error
	listErr   error
	updateErr error
	deleteErr error
	searchErr error
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{}
}

func (f *fakeNoteRepo) CreateNote(_ context.Context, n *model.Note) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	n.ID = fmt.Sprintf("note-%d", f.nextID)
	n.CreatedOn = time.Now()
	stored := *n
	f.notes = append(f.notes, &stored)
	return nil
}

func (f *fakeNoteRepo) find(owner, id string) (int, bool) {
	for i, n := range f.notes {
		if n.ID == id && n.UserID == owner {
			return i, true
		}
	}
	return -1, false
}

func (f *fakeNoteRepo) GetNote(_ context.Context, owner, id string) (*model.Note, error) {
	i, ok := f.find(owner, id)
	if !ok {
		return nil, apperror.NotFoundMessage("Note not found")
	}
	out := *f.notes[i]
	return &out, nil
}

func (f *fakeNoteRepo) ListNotes(_ context.Context, owner string) ([]model.Note, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Note{}
	for _, n := range f.notes {
		if n.UserID == owner {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNoteRepo) SearchNotes(_ context.Context, owner, query string) ([]model.Note, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	q := strings.ToLower(query)
	out := []model.Note{}
	for _, n := range f.notes {
		if n.UserID != owner {
			continue
		}
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNoteRepo) UpdateNote(_ context.Context, n *model.Note) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	i, ok := f.find(n.UserID, n.ID)
	if !ok {
		return apperror.NotFoundMessage("Note not found")
	}
	stored := *n
	f.notes[i] = &stored
	return nil
}

func (f *fakeNoteRepo) DeleteNote(_ context.Context, owner, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	i, ok := f.find(owner, id)
	if !ok {
		return apperror.NotFoundMessage("Note not found")
	}
	f.notes = append(f.notes[:i], f.notes[i+1:]...)
	return nil
}
