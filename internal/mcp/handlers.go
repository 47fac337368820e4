package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/hpungsan/sparetime/internal/config"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
	"github.com/hpungsan/sparetime/internal/match"
	"github.com/hpungsan/sparetime/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
	log zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, log zerolog.Logger) *Handlers {
	return &Handlers{db: db, cfg: cfg, log: log}
}

// Request types for each tool

// ScoreCardRequest represents the arguments for score_card.
type ScoreCardRequest struct {
	Card   string          `json:"card,omitempty"`
	Frames []ops.FrameSpec `json:"frames,omitempty"`
}

// CreateRequest represents the arguments for match_create.
type CreateRequest struct {
	UserID     string  `json:"user_id"`
	DatePlayed *int64  `json:"date_played,omitempty"`
	Lane       *int    `json:"lane,omitempty"`
	Location   *string `json:"location,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// FetchRequest represents the arguments for match_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ListRequest represents the arguments for match_list.
type ListRequest struct {
	UserID         string `json:"user_id,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// UpdateRequest represents the arguments for match_update.
type UpdateRequest struct {
	ID         string  `json:"id"`
	UserID     *string `json:"user_id,omitempty"`
	DatePlayed *int64  `json:"date_played,omitempty"`
	Lane       *int    `json:"lane,omitempty"`
	Location   *string `json:"location,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// DeleteRequest represents the arguments for match_delete.
type DeleteRequest struct {
	ID      string `json:"id"`
	IfEmpty bool   `json:"if_empty,omitempty"`
}

// PurgeRequest represents the arguments for match_purge.
type PurgeRequest struct {
	UserID        *string `json:"user_id,omitempty"`
	OlderThanDays *int    `json:"older_than_days,omitempty"`
}

// ExportRequest represents the arguments for match_export.
type ExportRequest struct {
	Path           string  `json:"path,omitempty"`
	UserID         *string `json:"user_id,omitempty"`
	IncludeDeleted bool    `json:"include_deleted,omitempty"`
}

// ImportRequest represents the arguments for match_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// RecordRequest represents the arguments for frame_record.
type RecordRequest struct {
	MatchID string `json:"match_id"`
	ops.FrameSpec
	PinsStanding []int `json:"pins_standing,omitempty"`
	BallSpeed    *int  `json:"ball_speed,omitempty"`
}

// KeyRequest represents the arguments for frame_key.
type KeyRequest struct {
	MatchID     string `json:"match_id"`
	FrameNumber int    `json:"frame_number"`
	Key         string `json:"key"`
}

// Handler implementations

// HandleScoreCard handles the score_card tool call.
func (h *Handlers) HandleScoreCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScoreCardRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var frames []frame.Frame
	for _, spec := range input.Frames {
		f, err := spec.Frame()
		if err != nil {
			return errorResult(err), nil
		}
		frames = append(frames, f)
	}

	result, err := ops.ScoreCard(ops.ScoreCardInput{Card: input.Card, Frames: frames})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCreate handles the match_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateMatch(h.log.WithContext(ctx), h.db, ops.CreateMatchInput{
		UserID:     input.UserID,
		DatePlayed: input.DatePlayed,
		Lane:       input.Lane,
		Location:   input.Location,
		Notes:      input.Notes,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the match_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FetchMatch(h.log.WithContext(ctx), h.db, ops.FetchMatchInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the match_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListMatches(h.log.WithContext(ctx), h.db, ops.ListMatchesInput{
		UserID:         input.UserID,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the match_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.UpdateMatch(h.log.WithContext(ctx), h.db, ops.UpdateMatchInput{
		ID: input.ID,
		Fields: match.Fields{
			UserID:     input.UserID,
			DatePlayed: input.DatePlayed,
			Lane:       input.Lane,
			Location:   input.Location,
			Notes:      input.Notes,
		},
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the match_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeleteMatch(h.log.WithContext(ctx), h.db, ops.DeleteMatchInput{
		ID:      input.ID,
		IfEmpty: input.IfEmpty,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the match_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(h.log.WithContext(ctx), h.db, ops.PurgeInput{
		UserID:        input.UserID,
		OlderThanDays: input.OlderThanDays,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the match_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(h.log.WithContext(ctx), h.db, h.cfg, ops.ExportInput{
		Path:           input.Path,
		UserID:         input.UserID,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the match_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(h.log.WithContext(ctx), h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRecord handles the frame_record tool call.
func (h *Handlers) HandleRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecordRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	f, err := input.FrameSpec.Frame()
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.RecordFrame(h.log.WithContext(ctx), h.db, h.cfg, ops.RecordFrameInput{
		MatchID:      input.MatchID,
		Frame:        f,
		PinsStanding: input.PinsStanding,
		BallSpeed:    input.BallSpeed,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleKey handles the frame_key tool call.
func (h *Handlers) HandleKey(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[KeyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RecordKey(h.log.WithContext(ctx), h.db, h.cfg, ops.RecordKeyInput{
		MatchID:     input.MatchID,
		FrameNumber: input.FrameNumber,
		Key:         input.Key,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if appErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
			"status":  appErr.Status,
		}
		// Internal details may carry file paths or SQL text
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
