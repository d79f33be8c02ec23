// Package repository declares the persistence contracts the services depend
// on. Implementations live in sub-packages (see sqlstore).
package repository

import (
	"context"

	"github.com/sakif/notes-api/internal/model"
)

// UserRepository is the credential store.
//
// Lookups that miss return an error wrapping apperror.ErrNotFound.
// CreateUser returns an error wrapping apperror.ErrConflict when the email
// is already taken.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// NoteRepository stores notes. Every method that takes a note id also takes
// the owner's id and matches on both; a note owned by someone else is
// reported as apperror.ErrNotFound, exactly like a missing one.
type NoteRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, ownerID, id string) (*model.Note, error)
	// ListNotes returns the owner's notes in creation order.
	ListNotes(ctx context.Context, ownerID string) ([]model.Note, error)
	// SearchNotes returns the owner's notes whose title or content contains
	// query, case-insensitively, in creation order.
	SearchNotes(ctx context.Context, ownerID, query string) ([]model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, ownerID, id string) error
}
