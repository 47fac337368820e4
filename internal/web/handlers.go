package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/sparetime/internal/config"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
	"github.com/hpungsan/sparetime/internal/match"
	"github.com/hpungsan/sparetime/internal/ops"
)

// Handlers contains HTTP route handlers for the scoring API.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// createMatchRequest is the body of POST /matches/.
type createMatchRequest struct {
	UserID     string  `json:"user_id"`
	DatePlayed *int64  `json:"date_played,omitempty"`
	Lane       *int    `json:"lane,omitempty"`
	Location   *string `json:"location,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// updateMatchRequest is the body of PUT /matches/{id}.
type updateMatchRequest struct {
	UserID     *string `json:"user_id,omitempty"`
	DatePlayed *int64  `json:"date_played,omitempty"`
	Lane       *int    `json:"lane,omitempty"`
	Location   *string `json:"location,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// recordFrameRequest is the body of PUT /frames/.
type recordFrameRequest struct {
	MatchID string `json:"match_id"`
	ops.FrameSpec
	PinsStanding []int `json:"pins_standing,omitempty"`
	BallSpeed    *int  `json:"ball_speed,omitempty"`
}

// keyRequest is the body of POST /frames/key.
type keyRequest struct {
	MatchID     string `json:"match_id"`
	FrameNumber int    `json:"frame_number"`
	Key         string `json:"key"`
}

// scoreRequest is the body of POST /score.
type scoreRequest struct {
	Card   string          `json:"card,omitempty"`
	Frames []ops.FrameSpec `json:"frames,omitempty"`
}

// HandleCreateMatch handles POST /matches/: start a match.
func (h *Handlers) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[createMatchRequest](w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.CreateMatch(r.Context(), h.db, ops.CreateMatchInput{
		UserID:     body.UserID,
		DatePlayed: body.DatePlayed,
		Lane:       body.Lane,
		Location:   body.Location,
		Notes:      body.Notes,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Location", "/matches/"+result.ID)
	renderJSON(w, http.StatusCreated, result)
}

// HandleListMatches handles GET /matches/: list matches, newest game first.
func (h *Handlers) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", ops.DefaultListLimit)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	offset, err := parseIntParam(r, "offset", 0)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.ListMatches(r.Context(), h.db, ops.ListMatchesInput{
		UserID:         r.URL.Query().Get("user_id"),
		Limit:          limit,
		Offset:         offset,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleFetchMatch handles GET /matches/{id}: a match with its scored frames.
func (h *Handlers) HandleFetchMatch(w http.ResponseWriter, r *http.Request) {
	result, err := ops.FetchMatch(r.Context(), h.db, ops.FetchMatchInput{
		ID:             chi.URLParam(r, "id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleUpdateMatch handles PUT /matches/{id}: edit match details.
func (h *Handlers) HandleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[updateMatchRequest](w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.UpdateMatch(r.Context(), h.db, ops.UpdateMatchInput{
		ID: chi.URLParam(r, "id"),
		Fields: match.Fields{
			UserID:     body.UserID,
			DatePlayed: body.DatePlayed,
			Lane:       body.Lane,
			Location:   body.Location,
			Notes:      body.Notes,
		},
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleDeleteMatch handles DELETE /matches/{id}: soft-delete a match.
// With ?if_empty=true only a match without recorded balls is deleted.
func (h *Handlers) HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	result, err := ops.DeleteMatch(r.Context(), h.db, ops.DeleteMatchInput{
		ID:      chi.URLParam(r, "id"),
		IfEmpty: parseBoolParam(r, "if_empty"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleScorecard handles GET /matches/{id}/scorecard: the card as an HTML page.
func (h *Handlers) HandleScorecard(w http.ResponseWriter, r *http.Request) {
	result, err := ops.FetchMatch(r.Context(), h.db, ops.FetchMatchInput{
		ID:             chi.URLParam(r, "id"),
		IncludeDeleted: true,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	scored := make([]frame.Scored, len(result.Frames))
	for i, v := range result.Frames {
		scored[i] = v.Record.Scored()
	}
	table, err := frame.RenderScorecardHTML(scored)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	h.renderer.renderPageStatus(w, r, http.StatusOK, "scorecard", ScorecardPageData{
		PageData: PageData{
			Title:   "Scorecard " + strconv.Itoa(result.FinalScore),
			Version: h.renderer.version,
		},
		Match:      &result.Match,
		FinalScore: result.FinalScore,
		Table:      template.HTML(table),
	})
}

// HandleRecordFrame handles PUT /frames/: record or correct one frame.
func (h *Handlers) HandleRecordFrame(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[recordFrameRequest](w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	f, err := body.FrameSpec.Frame()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.RecordFrame(r.Context(), h.db, h.cfg, ops.RecordFrameInput{
		MatchID:      body.MatchID,
		Frame:        f,
		PinsStanding: body.PinsStanding,
		BallSpeed:    body.BallSpeed,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleKey handles POST /frames/key: apply one keypad press.
func (h *Handlers) HandleKey(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[keyRequest](w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.RecordKey(r.Context(), h.db, h.cfg, ops.RecordKeyInput{
		MatchID:     body.MatchID,
		FrameNumber: body.FrameNumber,
		Key:         body.Key,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleGameFrames handles GET /frames/game/{id}: the ten frames of a match.
func (h *Handlers) HandleGameFrames(w http.ResponseWriter, r *http.Request) {
	result, err := ops.FetchMatch(r.Context(), h.db, ops.FetchMatchInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result.Frames)
}

// HandleScore handles POST /score: score an ad-hoc card.
func (h *Handlers) HandleScore(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[scoreRequest](w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var frames []frame.Frame
	for _, spec := range body.Frames {
		f, err := spec.Frame()
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		frames = append(frames, f)
	}

	result, err := ops.ScoreCard(ops.ScoreCardInput{Card: body.Card, Frames: frames})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}
