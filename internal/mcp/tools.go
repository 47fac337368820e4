package mcp

import "github.com/mark3labs/mcp-go/mcp"

// frameOptions are the schema properties shared by tools that take one frame.
func frameOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("frame_number",
			mcp.Required(),
			mcp.Description("Frame number, 1-10"),
			mcp.Min(1),
			mcp.Max(10),
		),
		mcp.WithString("marks",
			mcp.Description(`Scorecard marks for the frame, e.g. "X", "9/", "72", "-5", "XX7". Takes precedence over shot counts.`),
		),
		mcp.WithNumber("first_shot", mcp.Description("Pins knocked down by the first ball")),
		mcp.WithNumber("second_shot", mcp.Description("Pins knocked down by the second ball; -1 marks a spare")),
		mcp.WithNumber("third_shot", mcp.Description("10th frame bonus ball; -1 marks a spare after X-n")),
	}
}

var scoreCardToolDef = mcp.NewTool("score_card",
	mcp.WithDescription("Score an ad-hoc bowling card without storing it. Returns running totals per frame (null until a frame's bonus balls are known), the final score and a Markdown scorecard."),
	mcp.WithString("card",
		mcp.Description(`Whole card in marks, frames separated by spaces, "|" or commas, e.g. "X 9/ 72 X X X 8- 9/ X XX7"`),
	),
	mcp.WithArray("frames",
		mcp.Description("Alternative to card: frame objects with frame_number and shots (-1 marks a spare)"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"frame_number": map[string]any{"type": "number"},
				"first_shot":   map[string]any{"type": "number"},
				"second_shot":  map[string]any{"type": "number"},
				"third_shot":   map[string]any{"type": "number"},
				"marks":        map[string]any{"type": "string"},
			},
			"required": []string{"frame_number"},
		}),
	),
)

var createToolDef = mcp.NewTool("match_create",
	mcp.WithDescription("Start a new, empty match (one game) for a bowler."),
	mcp.WithString("user_id", mcp.Required(), mcp.Description("Bowler identifier")),
	mcp.WithNumber("date_played", mcp.Description("Unix timestamp of the game (default: now)")),
	mcp.WithNumber("lane", mcp.Description("Lane number")),
	mcp.WithString("location", mcp.Description("Bowling center")),
	mcp.WithString("notes", mcp.Description("Free-text notes")),
)

var fetchToolDef = mcp.NewTool("match_fetch",
	mcp.WithDescription("Fetch a match with its ten frames, marks and running totals."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Match ULID")),
	mcp.WithBoolean("include_deleted", mcp.Description("Also return soft-deleted matches")),
)

var listToolDef = mcp.NewTool("match_list",
	mcp.WithDescription("List matches, newest game first."),
	mcp.WithString("user_id", mcp.Description("Only this bowler's matches")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted matches")),
)

var updateToolDef = mcp.NewTool("match_update",
	mcp.WithDescription("Edit match details. Omitted fields are unchanged; an empty location or notes clears it."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Match ULID")),
	mcp.WithString("user_id", mcp.Description("Bowler identifier")),
	mcp.WithNumber("date_played", mcp.Description("Unix timestamp of the game")),
	mcp.WithNumber("lane", mcp.Description("Lane number")),
	mcp.WithString("location", mcp.Description("Bowling center")),
	mcp.WithString("notes", mcp.Description("Free-text notes")),
)

var deleteToolDef = mcp.NewTool("match_delete",
	mcp.WithDescription("Soft-delete a match. With if_empty, only a match with no recorded balls is deleted."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Match ULID")),
	mcp.WithBoolean("if_empty", mcp.Description("Fail with MATCH_NOT_EMPTY when any ball is recorded")),
)

var purgeToolDef = mcp.NewTool("match_purge",
	mcp.WithDescription("Permanently remove soft-deleted matches and their frames."),
	mcp.WithString("user_id", mcp.Description("Only this bowler's matches")),
	mcp.WithNumber("older_than_days", mcp.Description("Only matches deleted more than N days ago")),
)

var exportToolDef = mcp.NewTool("match_export",
	mcp.WithDescription("Export matches with their frames to a JSONL file."),
	mcp.WithString("path", mcp.Description("Output .jsonl path (default: exports directory)")),
	mcp.WithString("user_id", mcp.Description("Only this bowler's matches")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted matches")),
)

var importToolDef = mcp.NewTool("match_import",
	mcp.WithDescription("Import matches from a JSONL export. Running totals are recomputed."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Input .jsonl path")),
	mcp.WithString("mode",
		mcp.Description("Collision handling: error (default, all or nothing), replace, rename"),
		mcp.Enum("error", "replace", "rename"),
	),
)

var recordToolDef = mcp.NewTool("frame_record",
	append([]mcp.ToolOption{
		mcp.WithDescription("Record or correct one frame of a match. The whole card is rescored and every frame whose running total changed is saved."),
		mcp.WithString("match_id", mcp.Required(), mcp.Description("Match ULID")),
		mcp.WithArray("pins_standing",
			mcp.Description("Pins (1-10) left standing after the first ball"),
			mcp.Items(map[string]any{"type": "number"}),
		),
		mcp.WithNumber("ball_speed", mcp.Description("Ball speed")),
	}, frameOptions()...)...,
)

var keyToolDef = mcp.NewTool("frame_key",
	mcp.WithDescription("Apply one keypad press to a stored frame: a digit, X, /, - (gutter) or < (undo last ball)."),
	mcp.WithString("match_id", mcp.Required(), mcp.Description("Match ULID")),
	mcp.WithNumber("frame_number", mcp.Required(), mcp.Description("Frame number, 1-10"), mcp.Min(1), mcp.Max(10)),
	mcp.WithString("key", mcp.Required(), mcp.Description("Key pressed")),
)
