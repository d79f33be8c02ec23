package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

var _ repository.UserRepository = (*Store)(nil)

const userColumns = `id, full_name, email, password_hash, created_on`

// CreateUser inserts user, filling in ID and CreatedOn when they are unset.
// A duplicate email comes back as apperror.AlreadyExists("User").
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	if user.CreatedOn.IsZero() {
		user.CreatedOn = now()
	}

	q := s.db.Rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		user.ID, user.FullName, user.Email, user.PasswordHash, user.CreatedOn,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("User")
		}
		return fmt.Errorf("sqlstore: inserting user: %w", err)
	}

	return nil
}

// GetUserByEmail looks up a user by their (already normalised) email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	q := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	if err := s.db.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("User not found")
		}
		return nil, fmt.Errorf("sqlstore: getting user by email: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	q := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := s.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User", id)
		}
		return nil, fmt.Errorf("sqlstore: getting user %s: %w", id, err)
	}
	return &u, nil
}

// now is the creation timestamp source. Microsecond precision is what
// PostgreSQL keeps, so both backends round-trip the same value.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
