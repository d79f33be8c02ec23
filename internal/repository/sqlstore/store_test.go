package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore opens a fresh, migrated SQLite database in a temp dir.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := "sqlite://" + filepath.Join(t.TempDir(), "notes.db")
	s, err := Open(context.Background(), url, discardLogger())
	require.NoError(t, err, "opening test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *Store, email string) *model.User {
	t.Helper()
	u := &model.User{FullName: "Test User", Email: email, PasswordHash: "$2a$04$hash"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func createTestNote(t *testing.T, s *Store, owner, title, content string, tags ...string) *model.Note {
	t.Helper()
	n := &model.Note{UserID: owner, Title: title, Content: content, Tags: tags}
	require.NoError(t, s.CreateNote(context.Background(), n))
	return n
}

// =========================================================================
// OPEN / MIGRATE
// =========================================================================

func TestParseURL(t *testing.T) {
	tests := []struct {
		url         string
		wantDriver  string
		wantDialect Dialect
		wantErr     bool
	}{
		{"postgres://u:p@localhost:5432/notes", driverPostgres, DialectPostgres, false},
		{"postgresql://localhost/notes?sslmode=disable", driverPostgres, DialectPostgres, false},
		{"sqlite://data/notes.db", driverSQLite, DialectSQLite, false},
		{"file:notes.db?cache=shared", driverSQLite, DialectSQLite, false},
		{":memory:", driverSQLite, DialectSQLite, false},
		{"data/notes.db", driverSQLite, DialectSQLite, false},
		{"", "", "", true},
		{"   ", "", "", true},
		{"sqlite://", "", "", true},
		{"mysql://localhost/notes", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, _, dialect, err := parseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDialect, dialect)
		})
	}
}

func TestParseURL_UnsupportedSchemeHidesCredentials(t *testing.T) {
	_, _, _, err := parseURL("mysql://root:hunter2@db:3306/notes")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")
	assert.Contains(t, err.Error(), "db:3306")
}

func TestSQLiteDSN_FilePathsGetPragmas(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Contains(t, sqliteDSN("notes.db"), "notes.db?_pragma=foreign_keys(1)")
	assert.Contains(t, sqliteDSN("file:notes.db?cache=shared"), "cache=shared&_pragma=")
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(context.Background(), ":memory:", discardLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, DialectSQLite, s.Dialect())
	assert.NoError(t, s.Ping(context.Background()))

	// The schema must exist on the single shared connection.
	u := createTestUser(t, s, "mem@example.com")
	got, err := s.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Migrate(context.Background()))

	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('users', 'notes', 'goose_db_version')`)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMigrate_ErrorIsWrapped(t *testing.T) {
	s := newTestStore(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running migrations")
	assert.Contains(t, err.Error(), "boom")
}

// =========================================================================
// USERS
// =========================================================================

func TestCreateUser_SetsIDAndCreatedOn(t *testing.T) {
	s := newTestStore(t)

	u := createTestUser(t, s, "alice@example.com")

	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedOn.IsZero())
}

func TestCreateUser_DuplicateEmailIsConflict(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "alice@example.com")

	err := s.CreateUser(context.Background(), &model.User{
		FullName: "Alice Again", Email: "alice@example.com", PasswordHash: "x",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
	assert.Equal(t, "User already exists", err.Error())
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	want := createTestUser(t, s, "bob@example.com")

	got, err := s.GetUserByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, "Test User", got.FullName)
	assert.Equal(t, want.PasswordHash, got.PasswordHash)
	assert.True(t, want.CreatedOn.Equal(got.CreatedOn), "CreatedOn %v != %v", want.CreatedOn, got.CreatedOn)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = s.GetUserByID(context.Background(), "does-not-exist")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// NOTES
// =========================================================================

func TestCreateNote_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "alice@example.com")

	n := createTestNote(t, s, u.ID, "Groceries", "milk, eggs", "home", "errands")

	got, err := s.GetNote(context.Background(), u.ID, n.ID)
	require.NoError(t, err)

	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, "Groceries", got.Title)
	assert.Equal(t, "milk, eggs", got.Content)
	assert.Equal(t, model.Tags{"home", "errands"}, got.Tags)
	assert.False(t, got.IsPinned)
	assert.Equal(t, u.ID, got.UserID)
	assert.False(t, got.CreatedOn.IsZero())
}

func TestCreateNote_NilTagsStoredAsEmpty(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "alice@example.com")

	n := createTestNote(t, s, u.ID, "t", "c")

	got, err := s.GetNote(context.Background(), u.ID, n.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}

func TestCreateNote_UnknownOwnerRejected(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateNote(context.Background(), &model.Note{UserID: "ghost", Title: "t", Content: "c"})
	assert.Error(t, err, "foreign key on user_id should reject unknown owners")
}

func TestGetNote_OtherOwnerIsNotFound(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")
	n := createTestNote(t, s, alice.ID, "secret", "alice only")

	_, err := s.GetNote(context.Background(), bob.ID, n.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestListNotes_CreationOrderAndOwnership(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")

	for i := range 3 {
		createTestNote(t, s, alice.ID, fmt.Sprintf("a%d", i), "x")
	}
	createTestNote(t, s, bob.ID, "b0", "x")

	notes, err := s.ListNotes(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	for i, n := range notes {
		assert.Equal(t, fmt.Sprintf("a%d", i), n.Title)
		assert.Equal(t, alice.ID, n.UserID)
	}
}

func TestListNotes_EmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "alice@example.com")

	notes, err := s.ListNotes(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestSearchNotes(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")

	createTestNote(t, s, alice.ID, "Gym plan", "legs day")
	createTestNote(t, s, alice.ID, "Groceries", "protein after GYM")
	createTestNote(t, s, alice.ID, "Books", "read more")
	createTestNote(t, s, alice.ID, "Discounts", "100% off_sale")
	createTestNote(t, s, alice.ID, "ÉTÉ plans", "beach")
	createTestNote(t, s, alice.ID, "Journal", "Журнал за ИЮНЬ")
	createTestNote(t, s, bob.ID, "gym", "bob's gym")
	createTestNote(t, s, bob.ID, "été", "bob's summer")

	tests := []struct {
		query string
		want  []string
	}{
		{"gym", []string{"Gym plan", "Groceries"}},
		{"GYM", []string{"Gym plan", "Groceries"}},
		{"read", []string{"Books"}},
		{"%", []string{"Discounts"}},
		{"_", []string{"Discounts"}},
		{"été", []string{"ÉTÉ plans"}},
		{"ÉTÉ", []string{"ÉTÉ plans"}},
		{"Été Pl", []string{"ÉTÉ plans"}},
		{"журнал", []string{"Journal"}},
		{"июнь", []string{"Journal"}},
		{"nothing-matches", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			notes, err := s.SearchNotes(context.Background(), alice.ID, tt.query)
			require.NoError(t, err)

			var titles []string
			for _, n := range notes {
				titles = append(titles, n.Title)
				assert.Equal(t, alice.ID, n.UserID)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestUnicodeLower(t *testing.T) {
	tests := []struct {
		in   driver.Value
		want driver.Value
	}{
		{"ÉTÉ", "été"},
		{"ЖУРНАЛ", "журнал"},
		{[]byte("ÜBER"), "über"},
		{"plain", "plain"},
		{nil, nil},
	}
	for _, tt := range tests {
		got, err := unicodeLower(nil, []driver.Value{tt.in})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := unicodeLower(nil, []driver.Value{int64(1)})
	assert.Error(t, err)
}

func TestUpdateNote(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "alice@example.com")
	n := createTestNote(t, s, u.ID, "old", "old content", "a")
	created := n.CreatedOn

	n.Title = "new"
	n.Content = "new content"
	n.Tags = model.Tags{"b", "c"}
	n.IsPinned = true
	require.NoError(t, s.UpdateNote(context.Background(), n))

	got, err := s.GetNote(context.Background(), u.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, "new content", got.Content)
	assert.Equal(t, model.Tags{"b", "c"}, got.Tags)
	assert.True(t, got.IsPinned)
	assert.True(t, created.Equal(got.CreatedOn), "update must not touch createdOn")
}

func TestUpdateNote_WrongOwnerIsNotFound(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")
	n := createTestNote(t, s, alice.ID, "mine", "c")

	hijack := *n
	hijack.UserID = bob.ID
	hijack.Title = "stolen"
	err := s.UpdateNote(context.Background(), &hijack)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	got, err := s.GetNote(context.Background(), alice.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
}

func TestDeleteNote(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "alice@example.com")
	n := createTestNote(t, s, u.ID, "bye", "c")

	require.NoError(t, s.DeleteNote(context.Background(), u.ID, n.ID))

	_, err := s.GetNote(context.Background(), u.ID, n.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	err = s.DeleteNote(context.Background(), u.ID, n.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "second delete should be not found")
}

func TestDeleteNote_WrongOwnerKeepsNote(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")
	n := createTestNote(t, s, alice.ID, "mine", "c")

	err := s.DeleteNote(context.Background(), bob.ID, n.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = s.GetNote(context.Background(), alice.ID, n.ID)
	assert.NoError(t, err)
}

func TestCanceledContext(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "alice@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := s.ListNotes(ctx, u.ID)
	assert.Error(t, err)
}
