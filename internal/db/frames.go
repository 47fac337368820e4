package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
	"github.com/hpungsan/sparetime/internal/match"
)

const frameColumns = `frame_number, first_shot, second_shot, third_shot, is_strike, is_spare,
	pins_standing_json, running_total, ball_speed`

// UpsertFrame inserts or replaces the stored frame at r.FrameNumber for matchID.
func UpsertFrame(ctx context.Context, q DBTX, matchID string, r frame.Record) error {
	pins, err := pinsToJSON(r.PinsStanding)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO frames (match_id, ` + frameColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id, frame_number) DO UPDATE SET
			first_shot = excluded.first_shot,
			second_shot = excluded.second_shot,
			third_shot = excluded.third_shot,
			is_strike = excluded.is_strike,
			is_spare = excluded.is_spare,
			pins_standing_json = excluded.pins_standing_json,
			running_total = excluded.running_total,
			ball_speed = excluded.ball_speed,
			updated_at = excluded.updated_at
	`
	_, err = q.ExecContext(ctx, query,
		matchID, r.FrameNumber,
		toNullInt(r.FirstShot), toNullInt(r.SecondShot), toNullInt(r.ThirdShot),
		r.IsStrike, r.IsSpare, pins,
		toNullInt(r.RunningTotal), toNullInt(r.BallSpeed),
		time.Now().Unix(),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListFrames returns the stored frames of a match ordered by frame number.
// Frames never recorded are absent; callers pad with frame.Normalize.
func ListFrames(ctx context.Context, q DBTX, matchID string) ([]frame.Record, error) {
	query := `SELECT ` + frameColumns + ` FROM frames WHERE match_id = ? ORDER BY frame_number`
	rows, err := q.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var records []frame.Record
	for rows.Next() {
		r, err := scanFrame(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return records, nil
}

// CountFrames returns how many frames of a match have at least one ball recorded.
func CountFrames(ctx context.Context, q DBTX, matchID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM frames WHERE match_id = ? AND first_shot IS NOT NULL", matchID,
	).Scan(&n)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// DeleteFrames removes every stored frame of a match.
func DeleteFrames(ctx context.Context, q DBTX, matchID string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM frames WHERE match_id = ?", matchID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// StreamForExport returns rows of matches joined with their frames, ordered so
// that all frames of one match are adjacent. A match without frames yields one
// row with NULL frame columns. Scan rows with ScanExportRow.
func StreamForExport(ctx context.Context, q DBTX, userID *string, includeDeleted bool) (*sql.Rows, error) {
	query := `
		SELECT m.id, m.user_id, m.date_played, m.total_score, m.lane, m.location, m.notes,
			m.created_at, m.updated_at, m.deleted_at,
			f.frame_number, f.first_shot, f.second_shot, f.third_shot, f.is_strike, f.is_spare,
			f.pins_standing_json, f.running_total, f.ball_speed
		FROM matches m
		LEFT JOIN frames f ON f.match_id = m.id
		WHERE 1 = 1
	`
	var args []any
	if userID != nil {
		query += " AND m.user_id = ?"
		args = append(args, *userID)
	}
	if !includeDeleted {
		query += " AND m.deleted_at IS NULL"
	}
	query += " ORDER BY m.date_played, m.id, f.frame_number"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanExportRow scans one StreamForExport row. The frame is nil when the match
// has no stored frames.
func ScanExportRow(rows *sql.Rows) (*match.Match, *frame.Record, error) {
	var (
		m            match.Match
		lane         sql.NullInt64
		location     sql.NullString
		notes        sql.NullString
		deletedAt    sql.NullInt64
		frameNumber  sql.NullInt64
		first        sql.NullInt64
		second       sql.NullInt64
		third        sql.NullInt64
		isStrike     sql.NullBool
		isSpare      sql.NullBool
		pinsJSON     sql.NullString
		runningTotal sql.NullInt64
		ballSpeed    sql.NullInt64
	)

	err := rows.Scan(
		&m.ID, &m.UserID, &m.DatePlayed, &m.TotalScore, &lane, &location, &notes,
		&m.CreatedAt, &m.UpdatedAt, &deletedAt,
		&frameNumber, &first, &second, &third, &isStrike, &isSpare,
		&pinsJSON, &runningTotal, &ballSpeed,
	)
	if err != nil {
		return nil, nil, err
	}
	m.Lane = fromNullInt(lane)
	m.Location = fromNullString(location)
	m.Notes = fromNullString(notes)
	m.DeletedAt = fromNullInt64(deletedAt)

	if !frameNumber.Valid {
		return &m, nil, nil
	}
	pins, err := pinsFromJSON(pinsJSON)
	if err != nil {
		return nil, nil, err
	}
	return &m, &frame.Record{
		FrameNumber:  int(frameNumber.Int64),
		FirstShot:    fromNullInt(first),
		SecondShot:   fromNullInt(second),
		ThirdShot:    fromNullInt(third),
		IsStrike:     isStrike.Bool,
		IsSpare:      isSpare.Bool,
		PinsStanding: pins,
		RunningTotal: fromNullInt(runningTotal),
		BallSpeed:    fromNullInt(ballSpeed),
	}, nil
}

// scanFrame scans a single frames row.
func scanFrame(row rowScanner) (*frame.Record, error) {
	var (
		r            frame.Record
		first        sql.NullInt64
		second       sql.NullInt64
		third        sql.NullInt64
		pinsJSON     sql.NullString
		runningTotal sql.NullInt64
		ballSpeed    sql.NullInt64
	)

	err := row.Scan(
		&r.FrameNumber, &first, &second, &third, &r.IsStrike, &r.IsSpare,
		&pinsJSON, &runningTotal, &ballSpeed,
	)
	if err != nil {
		return nil, err
	}

	r.FirstShot = fromNullInt(first)
	r.SecondShot = fromNullInt(second)
	r.ThirdShot = fromNullInt(third)
	r.RunningTotal = fromNullInt(runningTotal)
	r.BallSpeed = fromNullInt(ballSpeed)
	if r.PinsStanding, err = pinsFromJSON(pinsJSON); err != nil {
		return nil, err
	}
	return &r, nil
}

func pinsToJSON(pins []int) (sql.NullString, error) {
	if len(pins) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(pins)
	if err != nil {
		return sql.NullString{}, errors.NewInternal(err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func pinsFromJSON(ns sql.NullString) ([]int, error) {
	pins := []int{}
	if !ns.Valid || ns.String == "" {
		return pins, nil
	}
	if err := json.Unmarshal([]byte(ns.String), &pins); err != nil {
		return nil, err
	}
	return pins, nil
}
