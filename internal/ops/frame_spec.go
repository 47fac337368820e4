package ops

import (
	"strings"

	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
)

// FrameSpec is a frame as sent by a client: either scorecard marks ("9/",
// "XX7") or raw shot counts where -1 marks a spare. Marks win when both are set.
type FrameSpec struct {
	Number     int     `json:"frame_number"`
	Marks      *string `json:"marks,omitempty"`
	FirstShot  *int    `json:"first_shot,omitempty"`
	SecondShot *int    `json:"second_shot,omitempty"`
	ThirdShot  *int    `json:"third_shot,omitempty"`
}

// Frame converts the spec into an entry-time frame.
func (s FrameSpec) Frame() (frame.Frame, error) {
	if s.Number < 1 || s.Number > frame.NumFrames {
		return frame.Frame{}, errors.NewInvalidFrame(s.Number, "frame number must be between 1 and 10")
	}
	if s.Marks != nil {
		marks := strings.TrimSpace(*s.Marks)
		if len(marks) > 3 {
			return frame.Frame{}, errors.NewInvalidFrame(s.Number, "at most three marks per frame")
		}
		return frame.ParseMarks(s.Number, marks)
	}
	return frame.Frame{
		Number:     s.Number,
		FirstShot:  s.FirstShot,
		SecondShot: s.SecondShot,
		ThirdShot:  s.ThirdShot,
	}, nil
}
