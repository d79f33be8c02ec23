package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Note is a short text note owned by exactly one user.
//
// Every read, update and delete is filtered by both ID and UserID; a note
// under another owner is indistinguishable from a missing one.
type Note struct {
	ID        string    `json:"_id"       db:"id"`
	Title     string    `json:"title"     db:"title"`
	Content   string    `json:"content"   db:"content"`
	Tags      Tags      `json:"tags"      db:"tags"`
	IsPinned  bool      `json:"isPinned"  db:"is_pinned"`
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedOn time.Time `json:"createdOn" db:"created_on"`
}

// Tags is an ordered set of tag strings.
//
// It is stored as a JSON array in a single text column, which keeps the
// order intact and works the same on SQLite and PostgreSQL. A nil Tags
// marshals as [] so clients never see null.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, fmt.Errorf("model: encoding tags: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("model: cannot scan %T into Tags", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("model: decoding tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*t = out
	return nil
}

// MarshalJSON keeps an empty tag set as [] rather than null.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}
