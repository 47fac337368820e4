package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/sparetime/internal/db"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/match"
)

// CreateMatchInput contains parameters for the CreateMatch operation.
type CreateMatchInput struct {
	UserID     string // required
	DatePlayed *int64 // default: now
	Lane       *int
	Location   *string
	Notes      *string
}

// CreateMatchOutput contains the created match.
type CreateMatchOutput struct {
	match.Match
}

// CreateMatch starts a new, empty match for a user.
func CreateMatch(ctx context.Context, database *sql.DB, input CreateMatchInput) (*CreateMatchOutput, error) {
	fields := match.Fields{
		UserID:     &input.UserID,
		DatePlayed: input.DatePlayed,
		Lane:       input.Lane,
		Location:   input.Location,
		Notes:      input.Notes,
	}
	if err := match.Validate(fields, true); err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	m := &match.Match{
		ID:         id,
		DatePlayed: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	fields.Apply(m)

	if err := db.InsertMatch(ctx, database, m); err != nil {
		return nil, err
	}
	return &CreateMatchOutput{Match: *m}, nil
}
