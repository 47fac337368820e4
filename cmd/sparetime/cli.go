package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/sparetime/internal/config"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
	"github.com/hpungsan/sparetime/internal/match"
	"github.com/hpungsan/sparetime/internal/ops"
	"github.com/hpungsan/sparetime/internal/web"
)

// maxStdinBytes caps a card read from stdin.
const maxStdinBytes = 64 << 10

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "sparetime",
		Usage:   "Ten-pin bowling score keeper",
		Version: Version,
		Commands: []*cli.Command{
			scoreCmd(),
			matchCmd(db),
			frameCmd(db, cfg),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			purgeCmd(db),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// scoreCmd creates the score command.
func scoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     `Score a card without storing it, e.g. sparetime score "X 9/ 72 X X X 8- 9/ X XX7"`,
		ArgsUsage: "[card]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the Markdown scorecard instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			card := strings.Join(c.Args().Slice(), " ")
			if card == "" && stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(err)
				}
				card = text
			}
			if strings.TrimSpace(card) == "" {
				return outputError(errors.NewInvalidRequest("card is required (argument or stdin)"))
			}

			output, err := ops.ScoreCard(ops.ScoreCardInput{Card: card})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("markdown") {
				_, err := io.WriteString(c.App.Writer, output.Scorecard)
				return err
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// matchCmd groups the match subcommands.
func matchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Create, inspect and edit matches",
		Subcommands: []*cli.Command{
			matchCreateCmd(db),
			matchFetchCmd(db),
			matchListCmd(db),
			matchUpdateCmd(db),
			matchDeleteCmd(db),
		},
	}
}

// matchFieldFlags are the editable match fields shared by create and update.
func matchFieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Bowler identifier"},
		&cli.Int64Flag{Name: "date", Usage: "Unix timestamp of the game (create default: now)"},
		&cli.IntFlag{Name: "lane", Aliases: []string{"l"}, Usage: "Lane number"},
		&cli.StringFlag{Name: "location", Usage: "Bowling center"},
		&cli.StringFlag{Name: "notes", Usage: "Free-text notes"},
	}
}

// matchFields collects the match field flags that were set.
func matchFields(c *cli.Context) match.Fields {
	var f match.Fields
	if c.IsSet("user") {
		v := c.String("user")
		f.UserID = &v
	}
	if c.IsSet("date") {
		v := c.Int64("date")
		f.DatePlayed = &v
	}
	if c.IsSet("lane") {
		v := c.Int("lane")
		f.Lane = &v
	}
	if c.IsSet("location") {
		v := c.String("location")
		f.Location = &v
	}
	if c.IsSet("notes") {
		v := c.String("notes")
		f.Notes = &v
	}
	return f
}

// matchCreateCmd creates the match create command.
func matchCreateCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Start a new match",
		Flags: matchFieldFlags(),
		Action: func(c *cli.Context) error {
			f := matchFields(c)
			input := ops.CreateMatchInput{
				DatePlayed: f.DatePlayed,
				Lane:       f.Lane,
				Location:   f.Location,
				Notes:      f.Notes,
			}
			if f.UserID != nil {
				input.UserID = *f.UserID
			}

			output, err := ops.CreateMatch(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// matchFetchCmd creates the match fetch command.
func matchFetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Show a match with its frames and running totals",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted matches"},
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the Markdown scorecard instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("match id is required"))
			}

			output, err := ops.FetchMatch(c.Context, db, ops.FetchMatchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("markdown") {
				sc, err := ops.ScoreCard(ops.ScoreCardInput{Frames: viewFrames(output.Frames)})
				if err != nil {
					return outputError(err)
				}
				_, err = io.WriteString(c.App.Writer, sc.Scorecard)
				return err
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// matchListCmd creates the match list command.
func matchListCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List matches, newest game first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Only this bowler's matches"},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Maximum number of results"},
			&cli.IntFlag{Name: "offset", Usage: "Number of results to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted matches"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListMatches(c.Context, db, ops.ListMatchesInput{
				UserID:         c.String("user"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// matchUpdateCmd creates the match update command.
func matchUpdateCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Edit match details; an empty --location or --notes clears it",
		ArgsUsage: "<id>",
		Flags:     matchFieldFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("match id is required"))
			}

			output, err := ops.UpdateMatch(c.Context, db, ops.UpdateMatchInput{
				ID:     c.Args().First(),
				Fields: matchFields(c),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// matchDeleteCmd creates the match delete command.
func matchDeleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a match",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "if-empty", Usage: "Only delete when no ball has been recorded"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("match id is required"))
			}

			output, err := ops.DeleteMatch(c.Context, db, ops.DeleteMatchInput{
				ID:      c.Args().First(),
				IfEmpty: c.Bool("if-empty"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// frameCmd groups the frame subcommands.
func frameCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "frame",
		Usage: "Record frames of a match",
		Subcommands: []*cli.Command{
			frameRecordCmd(db, cfg),
			frameKeyCmd(db, cfg),
		},
	}
}

// frameRecordCmd creates the frame record command.
func frameRecordCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "record",
		Usage:     `Record or correct one frame, e.g. sparetime frame record <id> 3 "9/"`,
		ArgsUsage: "<match-id> <frame-number> [marks]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "first", Usage: "Pins knocked down by the first ball"},
			&cli.IntFlag{Name: "second", Usage: "Pins knocked down by the second ball (-1 for a spare)"},
			&cli.IntFlag{Name: "third", Usage: "10th frame bonus ball (-1 for a spare)"},
			&cli.StringFlag{Name: "pins", Usage: "Comma-separated pins left standing after the first ball"},
			&cli.IntFlag{Name: "speed", Usage: "Ball speed"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("match id and frame number are required"))
			}
			number, err := strconv.Atoi(c.Args().Get(1))
			if err != nil {
				return outputError(errors.NewInvalidRequest("frame number must be an integer"))
			}

			spec := ops.FrameSpec{Number: number}
			if c.NArg() > 2 {
				marks := c.Args().Get(2)
				spec.Marks = &marks
			}
			if c.IsSet("first") {
				v := c.Int("first")
				spec.FirstShot = &v
			}
			if c.IsSet("second") {
				v := c.Int("second")
				spec.SecondShot = &v
			}
			if c.IsSet("third") {
				v := c.Int("third")
				spec.ThirdShot = &v
			}
			f, err := spec.Frame()
			if err != nil {
				return outputError(err)
			}

			input := ops.RecordFrameInput{MatchID: c.Args().First(), Frame: f}
			if s := c.String("pins"); s != "" {
				pins, err := parseInts(s)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.PinsStanding = pins
			}
			if c.IsSet("speed") {
				v := c.Int("speed")
				input.BallSpeed = &v
			}

			output, err := ops.RecordFrame(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// frameKeyCmd creates the frame key command.
func frameKeyCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "key",
		Usage:     "Apply one keypad press (digit, X, /, -, <) to a stored frame",
		ArgsUsage: "<match-id> <frame-number> <key>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 3 {
				return outputError(errors.NewInvalidRequest("match id, frame number and key are required"))
			}
			number, err := strconv.Atoi(c.Args().Get(1))
			if err != nil {
				return outputError(errors.NewInvalidRequest("frame number must be an integer"))
			}

			output, err := ops.RecordKey(c.Context, db, cfg, ops.RecordKeyInput{
				MatchID:     c.Args().First(),
				FrameNumber: number,
				Key:         c.Args().Get(2),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export matches to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output file path (default: ~/.sparetime/exports/<user>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Only this bowler's matches"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted matches"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ExportInput{
				Path:           c.String("path"),
				IncludeDeleted: c.Bool("include-deleted"),
			}
			if user := c.String("user"); user != "" {
				input.UserID = &user
			}

			output, err := ops.Export(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import matches from a JSONL file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|rename"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("import path is required"))
			}

			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path: c.Args().First(),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted matches",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Only this bowler's matches"},
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}

			if user := c.String("user"); user != "" {
				input.UserID = &user
			}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "Listen address (default: http_addr from config)"},
		},
		Action: func(c *cli.Context) error {
			serveCfg := *cfg
			if addr := c.String("addr"); addr != "" {
				serveCfg.HTTPAddr = addr
			}

			srv := web.NewServer(c.Context, db, &serveCfg, Version)
			if err := web.Run(c.Context, srv); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("stdin exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}

// parseInts splits a comma-separated list of integers.
func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pin number: %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}

// viewFrames turns fetched frame views back into entry frames.
func viewFrames(views []ops.FrameView) []frame.Frame {
	frames := make([]frame.Frame, len(views))
	for i, v := range views {
		frames[i] = frame.FromRecord(v.Record)
	}
	return frames
}
