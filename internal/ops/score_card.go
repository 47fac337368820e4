package ops

import (
	"strings"

	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
)

// ScoreCardInput holds an ad-hoc card, either as marks ("X 9/ 72 ...") or as
// frames. Exactly one must be set.
type ScoreCardInput struct {
	Card   string
	Frames []frame.Frame
}

// ScoreCardOutput is the scored card.
type ScoreCardOutput struct {
	Frames     []FrameView `json:"frames"`
	FinalScore int         `json:"final_score"`
	Scorecard  string      `json:"scorecard"`
}

// ScoreCard scores a card without touching the store. Frames may be partial;
// malformed frames are left without a running total.
func ScoreCard(input ScoreCardInput) (*ScoreCardOutput, error) {
	card := strings.TrimSpace(input.Card)
	if card != "" && len(input.Frames) > 0 {
		return nil, errors.NewInvalidRequest("specify either card or frames, not both")
	}

	frames := input.Frames
	if card != "" {
		var err error
		frames, err = frame.ParseCard(card)
		if err != nil {
			return nil, err
		}
	}

	scored, err := frame.Score(frames)
	if err != nil {
		return nil, err
	}

	return &ScoreCardOutput{
		Frames:     buildViews(scored, nil),
		FinalScore: frame.FinalScore(scored),
		Scorecard:  frame.Scorecard(scored),
	}, nil
}
