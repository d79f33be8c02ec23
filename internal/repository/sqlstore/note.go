package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

var _ repository.NoteRepository = (*Store)(nil)

const noteColumns = `id, user_id, title, content, tags, is_pinned, created_on`

// CreateNote inserts note, filling in ID and CreatedOn when they are unset.
func (s *Store) CreateNote(ctx context.Context, note *model.Note) error {
	if note.ID == "" {
		note.ID = xid.New().String()
	}
	if note.CreatedOn.IsZero() {
		note.CreatedOn = now()
	}
	if note.Tags == nil {
		note.Tags = model.Tags{}
	}

	q := s.db.Rebind(`INSERT INTO notes (` + noteColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		note.ID, note.UserID, note.Title, note.Content, note.Tags, note.IsPinned, note.CreatedOn,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting note: %w", err)
	}

	return nil
}

// GetNote returns the note with id if ownerID owns it.
func (s *Store) GetNote(ctx context.Context, ownerID, id string) (*model.Note, error) {
	var n model.Note
	q := s.db.Rebind(`SELECT ` + noteColumns + ` FROM notes WHERE id = ? AND user_id = ?`)
	if err := s.db.GetContext(ctx, &n, q, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("Note not found")
		}
		return nil, fmt.Errorf("sqlstore: getting note %s: %w", id, err)
	}
	return &n, nil
}

func (s *Store) ListNotes(ctx context.Context, ownerID string) ([]model.Note, error) {
	q := s.db.Rebind(`SELECT ` + noteColumns + ` FROM notes WHERE user_id = ? ORDER BY created_on, id`)
	return s.selectNotes(ctx, q, ownerID)
}

// SearchNotes matches query as a literal substring of title or content,
// ignoring case (Unicode, not just ASCII). LIKE wildcards in query have no
// special meaning.
func (s *Store) SearchNotes(ctx context.Context, ownerID, query string) ([]model.Note, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	lower := s.lowerFunc()
	q := s.db.Rebind(`SELECT ` + noteColumns + ` FROM notes
		WHERE user_id = ?
		  AND (` + lower + `(title) LIKE ? ESCAPE '\' OR ` + lower + `(content) LIKE ? ESCAPE '\')
		ORDER BY created_on, id`)
	return s.selectNotes(ctx, q, ownerID, pattern, pattern)
}

// UpdateNote overwrites the mutable fields of an existing note. The row is
// matched on both ID and UserID.
func (s *Store) UpdateNote(ctx context.Context, note *model.Note) error {
	if note.Tags == nil {
		note.Tags = model.Tags{}
	}

	q := s.db.Rebind(`UPDATE notes SET title = ?, content = ?, tags = ?, is_pinned = ?
		WHERE id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, q,
		note.Title, note.Content, note.Tags, note.IsPinned, note.ID, note.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating note %s: %w", note.ID, err)
	}

	return requireOneRow(res, note.ID)
}

func (s *Store) DeleteNote(ctx context.Context, ownerID, id string) error {
	q := s.db.Rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting note %s: %w", id, err)
	}

	return requireOneRow(res, id)
}

func (s *Store) selectNotes(ctx context.Context, q string, args ...any) ([]model.Note, error) {
	notes := []model.Note{}
	if err := s.db.SelectContext(ctx, &notes, q, args...); err != nil {
		return nil, fmt.Errorf("sqlstore: listing notes: %w", err)
	}
	return notes, nil
}

// requireOneRow turns "no row matched" into a not-found error.
func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected for %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFoundMessage("Note not found")
	}
	return nil
}
