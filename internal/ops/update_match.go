package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/sparetime/internal/db"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/match"
)

// UpdateMatchInput contains parameters for the UpdateMatch operation.
// Nil fields are left unchanged.
type UpdateMatchInput struct {
	ID string
	match.Fields
}

// UpdateMatchOutput contains the updated match.
type UpdateMatchOutput struct {
	match.Match
}

// UpdateMatch edits the metadata of an active match. Frames and the cached
// total are untouched.
func UpdateMatch(ctx context.Context, database *sql.DB, input UpdateMatchInput) (*UpdateMatchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	f := input.Fields
	if f.UserID == nil && f.DatePlayed == nil && f.Lane == nil && f.Location == nil && f.Notes == nil {
		return nil, errors.NewInvalidRequest("at least one field to update is required")
	}
	if err := match.Validate(f, false); err != nil {
		return nil, err
	}

	unlock := matchLocks.lock(id)
	defer unlock()

	m, err := db.GetMatch(ctx, database, id, false)
	if err != nil {
		return nil, err
	}
	f.Apply(m)

	if err := db.UpdateMatch(ctx, database, m); err != nil {
		return nil, err
	}
	return &UpdateMatchOutput{Match: *m}, nil
}
