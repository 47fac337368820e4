package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hpungsan/sparetime/internal/config"
	"github.com/hpungsan/sparetime/internal/db"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
	"github.com/hpungsan/sparetime/internal/match"
)

// ExportSchemaVersion is written to the header line of every export.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path           string  // optional, default: <exports dir>/<user>-<timestamp>.jsonl
	UserID         *string // optional filter by user
	IncludeDeleted bool
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	SparetimeExport bool   `json:"_sparetime_export"`
	SchemaVersion   string `json:"schema_version"`
	ExportedAt      int64  `json:"exported_at"`
}

// Export writes matches and their frames to a JSONL file, one match per line.
// The file is written under a temporary name and renamed into place, so an
// existing export survives a failed run.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()
	exportedAt := now.Unix()

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(cfg, input.UserID, now)
		if err != nil {
			return nil, err
		}
	}

	// Default paths embed the user id, so they are checked too
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := createNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)

	header := ExportHeader{
		SparetimeExport: true,
		SchemaVersion:   ExportSchemaVersion,
		ExportedAt:      exportedAt,
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	count, err := writeMatches(ctx, database, enc, input)
	if err != nil {
		return nil, err
	}

	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Windows refuses to rename an open file
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would replace a symlink's target rather than the link
	if isSymlink(exportPath) {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// On Windows the rename fails when the destination exists; the old file is kept.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	zerolog.Ctx(ctx).Info().Str("path", exportPath).Int("count", count).Msg("export written")

	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}

// writeMatches streams match/frame rows and encodes one record per match.
// Rows arrive grouped by match, so a record is flushed when the id changes.
func writeMatches(ctx context.Context, database *sql.DB, enc *json.Encoder, input ExportInput) (int, error) {
	rows, err := db.StreamForExport(ctx, database, input.UserID, input.IncludeDeleted)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var (
		current *match.Match
		frames  []frame.Record
		count   int
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		if err := enc.Encode(match.ToExportRecord(current, frames)); err != nil {
			return errors.NewInternal(err)
		}
		count++
		return nil
	}

	for rows.Next() {
		if ctx.Err() != nil {
			return 0, errors.NewCancelled("export")
		}

		m, rec, err := db.ScanExportRow(rows)
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		if current == nil || current.ID != m.ID {
			if err := flush(); err != nil {
				return 0, err
			}
			current, frames = m, nil
		}
		if rec != nil {
			frames = append(frames, *rec)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, errors.NewInternal(err)
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return count, nil
}

// defaultExportPath builds <exports dir>/<user>-<timestamp>.jsonl, or
// all-<timestamp>.jsonl without a user filter.
func defaultExportPath(cfg *config.Config, userID *string, now time.Time) (string, error) {
	dir, err := ExportsDir(cfg)
	if err != nil {
		return "", err
	}

	name := "all"
	if userID != nil && strings.TrimSpace(*userID) != "" {
		name = SanitizeForFilename(strings.TrimSpace(*userID))
	}
	filename := fmt.Sprintf("%s-%s.jsonl", name, now.Format("2006-01-02T150405"))
	return filepath.Join(dir, filename), nil
}
