package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/sparetime/internal/db"
	"github.com/hpungsan/sparetime/internal/errors"
)

// DeleteMatchInput contains parameters for the DeleteMatch operation.
type DeleteMatchInput struct {
	ID string
	// IfEmpty deletes only when no shot has been recorded, so a match abandoned
	// before the first ball can be cancelled without touching played games.
	IfEmpty bool
}

// DeleteMatchOutput contains the result of the DeleteMatch operation.
type DeleteMatchOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// DeleteMatch soft-deletes a match.
func DeleteMatch(ctx context.Context, database *sql.DB, input DeleteMatchInput) (*DeleteMatchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	unlock := matchLocks.lock(id)
	defer unlock()

	if _, err := db.GetMatch(ctx, database, id, false); err != nil {
		return nil, err
	}

	if input.IfEmpty {
		n, err := db.CountFrames(ctx, database, id)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, errors.NewMatchNotEmpty(id, n)
		}
	}

	if err := db.SoftDeleteMatch(ctx, database, id); err != nil {
		return nil, err
	}

	return &DeleteMatchOutput{
		Deleted: true,
		ID:      id,
	}, nil
}
