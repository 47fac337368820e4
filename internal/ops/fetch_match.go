package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/sparetime/internal/db"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
	"github.com/hpungsan/sparetime/internal/match"
)

// FetchMatchInput contains parameters for the FetchMatch operation.
type FetchMatchInput struct {
	ID             string
	IncludeDeleted bool
}

// FetchMatchOutput is a match with its full ten-frame card.
type FetchMatchOutput struct {
	match.Match
	Frames     []FrameView `json:"frames"`
	FinalScore int         `json:"final_score"`
}

// FetchMatch loads a match and its frames. Frames never recorded are returned
// empty and running totals are recomputed from the stored shots.
func FetchMatch(ctx context.Context, database *sql.DB, input FetchMatchInput) (*FetchMatchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	m, err := db.GetMatch(ctx, database, id, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	scored, stored, err := loadCard(ctx, database, id)
	if err != nil {
		return nil, err
	}

	return &FetchMatchOutput{
		Match:      *m,
		Frames:     buildViews(scored, stored),
		FinalScore: frame.FinalScore(scored),
	}, nil
}

// loadCard reads the stored frames of a match and scores them as a full card.
func loadCard(ctx context.Context, q db.DBTX, matchID string) ([]frame.Scored, map[int]frame.Record, error) {
	records, err := db.ListFrames(ctx, q, matchID)
	if err != nil {
		return nil, nil, err
	}

	frames := make([]frame.Frame, len(records))
	for i, r := range records {
		frames[i] = frame.FromRecord(r)
	}
	scored, err := frame.Score(frames)
	if err != nil {
		return nil, nil, err
	}
	return scored, byNumber(records), nil
}
