package match

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/sparetime/internal/errors"
)

const (
	// MaxLocationChars bounds the bowling center name.
	MaxLocationChars = 200

	// MaxNotesChars bounds free-text notes.
	MaxNotesChars = 4000

	// MaxLane is the highest lane number accepted.
	MaxLane = 200
)

// Fields holds the user-editable match fields. Nil means "not provided".
type Fields struct {
	UserID     *string
	DatePlayed *int64
	Lane       *int
	Location   *string
	Notes      *string
}

// Validate checks user-editable fields and returns INVALID_REQUEST on the first
// problem. requireUser is set on create, where user_id is mandatory.
func Validate(f Fields, requireUser bool) error {
	if f.UserID != nil && strings.TrimSpace(*f.UserID) == "" {
		return errors.NewInvalidRequest("user_id must not be empty")
	}
	if requireUser && f.UserID == nil {
		return errors.NewInvalidRequest("user_id is required")
	}
	if f.DatePlayed != nil && *f.DatePlayed < 0 {
		return errors.NewInvalidRequest("date_played must be a Unix timestamp")
	}
	if f.Lane != nil && (*f.Lane < 1 || *f.Lane > MaxLane) {
		return errors.NewInvalidRequest(fmt.Sprintf("lane must be between 1 and %d", MaxLane))
	}
	if f.Location != nil && utf8.RuneCountInString(*f.Location) > MaxLocationChars {
		return errors.NewInvalidRequest(fmt.Sprintf("location exceeds %d characters", MaxLocationChars))
	}
	if f.Notes != nil && utf8.RuneCountInString(*f.Notes) > MaxNotesChars {
		return errors.NewInvalidRequest(fmt.Sprintf("notes exceed %d characters", MaxNotesChars))
	}
	return nil
}

// Apply copies provided fields onto m. Strings are trimmed and an empty
// location or notes clears the field.
func (f Fields) Apply(m *Match) {
	if f.UserID != nil {
		m.UserID = strings.TrimSpace(*f.UserID)
	}
	if f.DatePlayed != nil {
		m.DatePlayed = *f.DatePlayed
	}
	if f.Lane != nil {
		lane := *f.Lane
		m.Lane = &lane
	}
	if f.Location != nil {
		m.Location = trimmedOrNil(*f.Location)
	}
	if f.Notes != nil {
		m.Notes = trimmedOrNil(*f.Notes)
	}
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
