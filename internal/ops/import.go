package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hpungsan/sparetime/internal/config"
	"github.com/hpungsan/sparetime/internal/db"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
	"github.com/hpungsan/sparetime/internal/match"
)

// MaxImportFileSize bounds the size of an import file.
const MaxImportFileSize int64 = 32 << 20

// maxImportLine bounds a single JSONL line; one match with ten frames is far smaller.
const maxImportLine = 1 << 20

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on any problem, nothing imported
	ImportModeReplace ImportMode = "replace" // overwrite matches with the same id
	ImportModeRename  ImportMode = "rename"  // give colliding matches a new id
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// importItem is a parsed, validated export line ready to write.
type importItem struct {
	line   int
	match  *match.Match
	frames []frame.Record
}

// Import loads matches from a JSONL export. Stored running totals and the
// cached match total are ignored and recomputed from the shots.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	switch input.Mode {
	case ImportModeError, ImportModeReplace, ImportModeRename:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, rename")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if info.Size() > MaxImportFileSize {
		return nil, errors.NewFileTooLarge(MaxImportFileSize, info.Size())
	}

	items, problems := parseImportFile(file)

	var out *ImportOutput
	switch input.Mode {
	case ImportModeError:
		if len(problems) > 0 {
			return &ImportOutput{Errors: problems}, nil
		}
		out, err = importAtomic(ctx, database, items)
	default:
		out, err = importEach(ctx, database, items, input.Mode)
		if out != nil {
			out.Errors = append(problems, out.Errors...)
			out.Skipped += len(problems)
		}
	}
	if err != nil {
		return nil, err
	}
	if out.Errors == nil {
		out.Errors = []ImportError{}
	}

	zerolog.Ctx(ctx).Info().
		Str("path", input.Path).
		Str("mode", string(input.Mode)).
		Int("imported", out.Imported).
		Int("skipped", out.Skipped).
		Msg("import finished")
	return out, nil
}

// parseImportFile decodes every line, skipping the header. Lines that do not
// parse or fail validation are reported, not returned.
func parseImportFile(r io.Reader) ([]importItem, []ImportError) {
	var (
		items    []importItem
		problems []ImportError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec match.ExportRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			problems = append(problems, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.SparetimeExport {
			continue
		}

		item, err := prepareImport(rec)
		if err != nil {
			problem := ImportError{Line: lineNum, ID: rec.ID, Code: "INVALID_RECORD", Message: err.Error()}
			if appErr, ok := errors.As(err); ok {
				problem.Code = string(appErr.Code)
				problem.Message = appErr.Message
			}
			problems = append(problems, problem)
			continue
		}
		item.line = lineNum
		items = append(items, *item)
	}

	if err := scanner.Err(); err != nil {
		problems = append(problems, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return items, problems
}

// prepareImport validates a record and rescores its frames.
func prepareImport(rec match.ExportRecord) (*importItem, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, errors.NewInvalidRequest("missing id field")
	}
	m := rec.ToMatch()
	if err := match.Validate(match.Fields{
		UserID:     &m.UserID,
		DatePlayed: &m.DatePlayed,
		Lane:       m.Lane,
		Location:   m.Location,
		Notes:      m.Notes,
	}, true); err != nil {
		return nil, err
	}

	frames := make([]frame.Frame, len(rec.Frames))
	for i, r := range rec.Frames {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		f := frame.FromRecord(r)
		if err := frame.Validate(f); err != nil {
			return nil, err
		}
		if err := frame.ValidatePinsStanding(f, r.PinsStanding); err != nil {
			return nil, err
		}
		frames[i] = f
	}
	scored, err := frame.Score(frames)
	if err != nil {
		return nil, err
	}
	m.TotalScore = frame.FinalScore(scored)

	stored := byNumber(rec.Frames)
	records := make([]frame.Record, 0, len(rec.Frames))
	for _, s := range scored {
		prev, ok := stored[s.Number]
		if !ok {
			continue
		}
		records = append(records, frame.ToRecord(s, prev.PinsStanding, prev.BallSpeed))
	}
	return &importItem{match: m, frames: records}, nil
}

// importAtomic writes every item in one transaction and aborts on the first
// id collision.
func importAtomic(ctx context.Context, database *sql.DB, items []importItem) (*ImportOutput, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, item := range items {
		exists, err := matchExists(ctx, tx, item.match.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return &ImportOutput{
				Errors: []ImportError{{
					Line:    item.line,
					ID:      item.match.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("match with id %q already exists", item.match.ID),
				}},
			}, nil
		}
		if err := insertItem(ctx, tx, item); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ImportOutput{Imported: len(items)}, nil
}

// importEach writes items one transaction at a time, resolving id collisions
// per mode. A failed item is reported and skipped.
func importEach(ctx context.Context, database *sql.DB, items []importItem, mode ImportMode) (*ImportOutput, error) {
	out := &ImportOutput{}
	for _, item := range items {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}
		if err := importOne(ctx, database, item, mode); err != nil {
			out.Errors = append(out.Errors, ImportError{
				Line:    item.line,
				ID:      item.match.ID,
				Code:    "INSERT_FAILED",
				Message: fmt.Sprintf("failed to import: %v", err),
			})
			out.Skipped++
			continue
		}
		out.Imported++
	}
	return out, nil
}

func importOne(ctx context.Context, database *sql.DB, item importItem, mode ImportMode) error {
	unlock := matchLocks.lock(item.match.ID)
	defer unlock()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	exists, err := matchExists(ctx, tx, item.match.ID)
	if err != nil {
		return err
	}

	switch {
	case exists && mode == ImportModeReplace:
		if err := db.ReplaceMatch(ctx, tx, item.match); err != nil {
			return err
		}
		if err := db.DeleteFrames(ctx, tx, item.match.ID); err != nil {
			return err
		}
		for _, r := range item.frames {
			if err := db.UpsertFrame(ctx, tx, item.match.ID, r); err != nil {
				return err
			}
		}
	case exists:
		id, err := generateULID()
		if err != nil {
			return errors.NewInternal(err)
		}
		renamed := *item.match
		renamed.ID = id
		item.match = &renamed
		fallthrough
	default:
		if err := insertItem(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func insertItem(ctx context.Context, q db.DBTX, item importItem) error {
	if err := db.InsertMatch(ctx, q, item.match); err != nil {
		return err
	}
	for _, r := range item.frames {
		if err := db.UpsertFrame(ctx, q, item.match.ID, r); err != nil {
			return err
		}
	}
	return nil
}

func matchExists(ctx context.Context, q db.DBTX, id string) (bool, error) {
	_, err := db.GetMatch(ctx, q, id, true)
	if errors.Is(err, errors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
