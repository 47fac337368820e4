package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/sparetime/internal/config"
	"github.com/hpungsan/sparetime/internal/db"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
)

// RecordFrameInput contains parameters for the RecordFrame operation.
type RecordFrameInput struct {
	MatchID      string
	Frame        frame.Frame // shots as entered; Spare marks a pickup
	PinsStanding []int       // optional pins left after the first ball
	BallSpeed    *int        // optional
}

// RecordFrameOutput is the match card after the edit.
type RecordFrameOutput struct {
	MatchID    string      `json:"match_id"`
	Frames     []FrameView `json:"frames"`
	Changed    []int       `json:"changed"`
	TotalScore int         `json:"total_score"`
}

// RecordFrame stores one frame of a match and rescores the whole card.
//
// Every frame whose running total moved is written back together with the
// edited frame. Edits to one match are serialized: the match lock is held
// until all writes finish, so the next edit starts from this one's result.
func RecordFrame(ctx context.Context, database *sql.DB, cfg *config.Config, input RecordFrameInput) (*RecordFrameOutput, error) {
	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		return nil, errors.NewInvalidRequest("match_id is required")
	}
	if err := frame.Validate(input.Frame); err != nil {
		return nil, err
	}
	if err := frame.ValidatePinsStanding(input.Frame, input.PinsStanding); err != nil {
		return nil, err
	}
	if input.BallSpeed != nil && *input.BallSpeed < 0 {
		return nil, errors.NewInvalidFrame(input.Frame.Number, "ball speed must not be negative")
	}

	unlock := matchLocks.lock(matchID)
	defer unlock()

	if _, err := db.GetMatch(ctx, database, matchID, false); err != nil {
		return nil, err
	}
	records, err := db.ListFrames(ctx, database, matchID)
	if err != nil {
		return nil, err
	}

	return persistEdit(ctx, database, cfg, matchID, records, input.Frame, input.PinsStanding, input.BallSpeed)
}

// RecordKeyInput contains parameters for the RecordKey operation.
type RecordKeyInput struct {
	MatchID     string
	FrameNumber int
	Key         string // digit, X, /, - or < (backspace)
}

// RecordKey applies a single keypad press to a stored frame and records the
// result. Pins standing are kept only while the first ball is unchanged.
func RecordKey(ctx context.Context, database *sql.DB, cfg *config.Config, input RecordKeyInput) (*RecordFrameOutput, error) {
	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		return nil, errors.NewInvalidRequest("match_id is required")
	}
	if input.FrameNumber < 1 || input.FrameNumber > frame.NumFrames {
		return nil, errors.NewInvalidFrame(input.FrameNumber, "frame number must be between 1 and 10")
	}

	unlock := matchLocks.lock(matchID)
	defer unlock()

	if _, err := db.GetMatch(ctx, database, matchID, false); err != nil {
		return nil, err
	}
	records, err := db.ListFrames(ctx, database, matchID)
	if err != nil {
		return nil, err
	}

	current := frame.New(input.FrameNumber)
	stored, ok := byNumber(records)[input.FrameNumber]
	if ok {
		current = frame.FromRecord(stored)
	}

	edited, err := frame.ApplyKey(current, strings.ToUpper(strings.TrimSpace(input.Key)))
	if err != nil {
		return nil, err
	}
	if err := frame.Validate(edited); err != nil {
		return nil, err
	}

	var pins []int
	if sameShot(current.FirstShot, edited.FirstShot) {
		pins = stored.PinsStanding
	}
	return persistEdit(ctx, database, cfg, matchID, records, edited, pins, stored.BallSpeed)
}

// persistEdit rescores the card with edited in place and writes every frame
// whose running total changed. The caller holds the match lock.
//
// The writes are not one transaction: if one fails, stored running_total and
// total_score values may lag the shots until the next edit. FetchMatch and the
// next edit rescore from the stored shots; only ListMatches shows the cached
// total_score.
func persistEdit(
	ctx context.Context,
	database *sql.DB,
	cfg *config.Config,
	matchID string,
	records []frame.Record,
	edited frame.Frame,
	pins []int,
	ballSpeed *int,
) (*RecordFrameOutput, error) {
	log := zerolog.Ctx(ctx).With().Str("match_id", matchID).Logger()

	prev := make([]frame.Scored, len(records))
	for i, r := range records {
		prev[i] = r.Scored()
	}

	next, err := frame.Upsert(frame.Frames(prev), edited)
	if err != nil {
		return nil, err
	}
	changed := frame.ChangedTotals(prev, next)

	stored := byNumber(records)
	stored[edited.Number] = frame.Record{PinsStanding: pins, BallSpeed: ballSpeed}
	views := buildViews(next, stored)

	dirty := make(map[int]bool, len(changed)+1)
	dirty[edited.Number] = true
	for _, n := range changed {
		dirty[n] = true
	}

	limit := 1
	if cfg != nil && cfg.PersistConcurrency > 1 {
		limit = cfg.PersistConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, v := range views {
		if !dirty[v.FrameNumber] {
			continue
		}
		rec := v.Record
		g.Go(func() error {
			if err := db.UpsertFrame(gctx, database, matchID, rec); err != nil {
				log.Error().Err(err).Int("frame_number", rec.FrameNumber).Msg("persist frame failed")
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := frame.FinalScore(next)
	if err := db.SetTotalScore(ctx, database, matchID, total); err != nil {
		return nil, err
	}

	log.Debug().
		Int("frame_number", edited.Number).
		Ints("changed", changed).
		Int("total_score", total).
		Msg("frame recorded")

	if changed == nil {
		changed = []int{}
	}
	return &RecordFrameOutput{
		MatchID:    matchID,
		Frames:     views,
		Changed:    changed,
		TotalScore: total,
	}, nil
}

func sameShot(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
