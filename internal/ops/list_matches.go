package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/sparetime/internal/db"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/match"
)

// ListMatchesInput contains parameters for the ListMatches operation.
type ListMatchesInput struct {
	UserID         string // optional; empty lists every user
	Limit          int    // default: 20, max: 100
	Offset         int    // default: 0
	IncludeDeleted bool
}

// ListMatchesOutput contains a page of matches.
type ListMatchesOutput struct {
	Items      []match.Match `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// ListMatches returns matches newest game first.
func ListMatches(ctx context.Context, database *sql.DB, input ListMatchesInput) (*ListMatchesOutput, error) {
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must not be negative")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	items, total, err := db.ListMatches(ctx, database, strings.TrimSpace(input.UserID), limit, input.Offset, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []match.Match{}
	}

	return &ListMatchesOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  input.Offset,
			HasMore: input.Offset+len(items) < total,
			Total:   total,
		},
		Sort: "date_played_desc",
	}, nil
}
