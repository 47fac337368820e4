package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/match"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.AppError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

const matchColumns = `id, user_id, date_played, total_score, lane, location, notes,
	created_at, updated_at, deleted_at`

// InsertMatch stores a new match. DeletedAt is written as given so imports can
// restore soft-deleted matches.
func InsertMatch(ctx context.Context, q DBTX, m *match.Match) error {
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		m.ID, m.UserID, m.DatePlayed, m.TotalScore,
		toNullInt(m.Lane), toNullString(m.Location), toNullString(m.Notes),
		m.CreatedAt, m.UpdatedAt, toNullInt64(m.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite reports both UNIQUE and PRIMARY KEY violations this way
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetMatch retrieves a match by its ULID.
// If includeDeleted is false, soft-deleted matches are excluded.
func GetMatch(ctx context.Context, q DBTX, id string, includeDeleted bool) (*match.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	m, err := scanMatch(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return m, nil
}

// ListMatches returns a page of matches, newest game first, and the total count
// matching the filter. An empty userID lists every user.
func ListMatches(ctx context.Context, q DBTX, userID string, limit, offset int, includeDeleted bool) ([]match.Match, int, error) {
	var (
		where []string
		args  []any
	)
	if userID != "" {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	}
	if !includeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches"+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + matchColumns + ` FROM matches` + clause +
		` ORDER BY date_played DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return matches, total, nil
}

// UpdateMatch writes the user-editable fields of an active match and bumps updated_at.
// Does NOT change: id, total_score, created_at
func UpdateMatch(ctx context.Context, q DBTX, m *match.Match) error {
	now := time.Now().Unix()

	query := `
		UPDATE matches
		SET user_id = ?, date_played = ?, lane = ?, location = ?, notes = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := q.ExecContext(ctx, query,
		m.UserID, m.DatePlayed, toNullInt(m.Lane), toNullString(m.Location), toNullString(m.Notes), now,
		m.ID,
	)
	if err := requireRow(result, err, m.ID); err != nil {
		return err
	}

	m.UpdatedAt = now
	return nil
}

// ReplaceMatch overwrites every column of an existing match, including soft-delete
// state. Used by import in replace mode.
func ReplaceMatch(ctx context.Context, q DBTX, m *match.Match) error {
	query := `
		UPDATE matches
		SET user_id = ?, date_played = ?, total_score = ?, lane = ?, location = ?, notes = ?,
			created_at = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query,
		m.UserID, m.DatePlayed, m.TotalScore, toNullInt(m.Lane), toNullString(m.Location), toNullString(m.Notes),
		m.CreatedAt, m.UpdatedAt, toNullInt64(m.DeletedAt),
		m.ID,
	)
	return requireRow(result, err, m.ID)
}

// SetTotalScore caches the final resolved total of an active match.
func SetTotalScore(ctx context.Context, q DBTX, id string, total int) error {
	query := `
		UPDATE matches
		SET total_score = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := q.ExecContext(ctx, query, total, time.Now().Unix(), id)
	return requireRow(result, err, id)
}

// SoftDeleteMatch marks a match as deleted by setting deleted_at.
func SoftDeleteMatch(ctx context.Context, q DBTX, id string) error {
	query := `
		UPDATE matches
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := q.ExecContext(ctx, query, time.Now().Unix(), id)
	return requireRow(result, err, id)
}

// PurgeDeleted permanently removes soft-deleted matches and, through the foreign
// key cascade, their frames. Optional filters narrow by user and by deletion age.
func PurgeDeleted(ctx context.Context, q DBTX, userID *string, olderThanDays *int) (int, error) {
	query := "DELETE FROM matches WHERE deleted_at IS NOT NULL"
	var args []any

	if userID != nil {
		query += " AND user_id = ?"
		args = append(args, *userID)
	}
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += " AND deleted_at < ?"
		args = append(args, cutoff)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// requireRow turns an exec result into NOT_FOUND when no row matched.
func requireRow(result sql.Result, err error, id string) error {
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMatch scans a single row into a Match struct.
func scanMatch(row rowScanner) (*match.Match, error) {
	var (
		m         match.Match
		lane      sql.NullInt64
		location  sql.NullString
		notes     sql.NullString
		deletedAt sql.NullInt64
	)

	err := row.Scan(
		&m.ID, &m.UserID, &m.DatePlayed, &m.TotalScore, &lane, &location, &notes,
		&m.CreatedAt, &m.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Lane = fromNullInt(lane)
	m.Location = fromNullString(location)
	m.Notes = fromNullString(notes)
	m.DeletedAt = fromNullInt64(deletedAt)
	return &m, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toNullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func fromNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func toNullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
