package frame

import (
	"fmt"

	"github.com/hpungsan/sparetime/internal/errors"
)

// Scored pairs a frame with its cumulative running total.
// RunningTotal is nil until the frame and its bonus balls are known.
type Scored struct {
	Frame
	RunningTotal *int `json:"running_total"`
}

// RunningTotals computes the cumulative score after each frame.
//
// frames must hold exactly ten frames numbered 1..10 in order; anything else is
// an integration error and is rejected with INVALID_FRAME_SET. Incomplete or
// malformed shot data is not an error: the pass stops at the first frame that
// cannot be resolved and that frame and every later one stay nil.
//
// The input is never modified, so concurrent callers may share a card.
func RunningTotals(frames []Frame) ([]*int, error) {
	if err := ValidateCard(frames); err != nil {
		return nil, err
	}

	totals := make([]*int, NumFrames)
	cumulative := 0
	for i := range frames {
		score, ok := frameScore(frames, i)
		if !ok {
			break
		}
		cumulative += score
		totals[i] = Shot(cumulative)
	}
	return totals, nil
}

// frameScore returns frame i's own contribution including strike/spare bonus.
func frameScore(frames []Frame, i int) (int, bool) {
	f := frames[i]
	pins, ok := f.pinTotal()
	if !ok {
		return 0, false
	}

	// Frame 10 absorbs its own bonus balls and never looks ahead.
	if f.IsTenth() {
		return pins, true
	}

	switch {
	case f.IsStrike():
		bonus, ok := strikeBonus(frames, i)
		if !ok {
			return 0, false
		}
		return MaxPins + bonus, true
	case pins == MaxPins:
		bonus, ok := frames[i+1].resolveFirst()
		if !ok {
			return 0, false
		}
		return MaxPins + bonus, true
	default:
		return pins, true
	}
}

// strikeBonus returns the next two balls bowled after the strike in frame i.
// A strike in frames 1-8 followed by another strike takes its second ball from
// frame i+2; frame 10 always supplies both balls itself.
func strikeBonus(frames []Frame, i int) (int, bool) {
	next := frames[i+1]
	ball1, ok := next.resolveFirst()
	if !ok {
		return 0, false
	}

	var ball2 int
	if next.IsTenth() || ball1 < MaxPins {
		ball2, ok = next.ResolveSecond()
	} else {
		ball2, ok = frames[i+2].resolveFirst()
	}
	if !ok {
		return 0, false
	}
	return ball1 + ball2, true
}

// ValidateCard checks that frames is a full card: ten frames numbered 1..10 in order.
func ValidateCard(frames []Frame) error {
	if len(frames) != NumFrames {
		return errors.NewInvalidFrameSet(fmt.Sprintf("expected %d frames, got %d", NumFrames, len(frames)))
	}
	seen := make(map[int]bool, NumFrames)
	for i, f := range frames {
		if f.Number < 1 || f.Number > NumFrames {
			return errors.NewInvalidFrameSet(fmt.Sprintf("frame number %d out of range 1-%d", f.Number, NumFrames))
		}
		if seen[f.Number] {
			return errors.NewInvalidFrameSet(fmt.Sprintf("duplicate frame number %d", f.Number))
		}
		seen[f.Number] = true
		if f.Number != i+1 {
			return errors.NewInvalidFrameSet(fmt.Sprintf("frame %d found at position %d", f.Number, i+1))
		}
	}
	return nil
}

// Normalize turns a partial collection of frames into a full card.
// Frames are placed by number and missing numbers become empty frames.
// Returned frames are copies.
func Normalize(frames []Frame) ([]Frame, error) {
	if len(frames) > NumFrames {
		return nil, errors.NewInvalidFrameSet(fmt.Sprintf("expected at most %d frames, got %d", NumFrames, len(frames)))
	}
	card := NewCard()
	seen := make(map[int]bool, len(frames))
	for _, f := range frames {
		if f.Number < 1 || f.Number > NumFrames {
			return nil, errors.NewInvalidFrameSet(fmt.Sprintf("frame number %d out of range 1-%d", f.Number, NumFrames))
		}
		if seen[f.Number] {
			return nil, errors.NewInvalidFrameSet(fmt.Sprintf("duplicate frame number %d", f.Number))
		}
		seen[f.Number] = true
		card[f.Number-1] = f.Clone()
	}
	return card, nil
}

// Score normalizes frames into a full card and attaches running totals.
func Score(frames []Frame) ([]Scored, error) {
	card, err := Normalize(frames)
	if err != nil {
		return nil, err
	}
	totals, err := RunningTotals(card)
	if err != nil {
		return nil, err
	}

	scored := make([]Scored, NumFrames)
	for i, f := range card {
		scored[i] = Scored{Frame: f, RunningTotal: totals[i]}
	}
	return scored, nil
}

// Upsert replaces (or inserts) edited into frames by frame number and recomputes
// every running total from frame 1. An edit can change the bonus of frames
// before it and invalidate frames after it, so there is no incremental path.
func Upsert(frames []Frame, edited Frame) ([]Scored, error) {
	if edited.Number < 1 || edited.Number > NumFrames {
		return nil, errors.NewInvalidFrameSet(fmt.Sprintf("frame number %d out of range 1-%d", edited.Number, NumFrames))
	}
	card, err := Normalize(frames)
	if err != nil {
		return nil, err
	}
	card[edited.Number-1] = edited.Clone()
	return Score(card)
}

// Frames strips running totals, returning copies of the frames.
func Frames(scored []Scored) []Frame {
	frames := make([]Frame, len(scored))
	for i, s := range scored {
		frames[i] = s.Frame.Clone()
	}
	return frames
}

// ChangedTotals returns the numbers of frames whose running total differs
// between prev and next. Frames missing from prev count as unresolved.
func ChangedTotals(prev, next []Scored) []int {
	before := make(map[int]*int, len(prev))
	for _, s := range prev {
		before[s.Number] = s.RunningTotal
	}

	var changed []int
	for _, s := range next {
		if !equalTotal(before[s.Number], s.RunningTotal) {
			changed = append(changed, s.Number)
		}
	}
	return changed
}

// FinalScore returns the last resolved running total, or 0 when none is resolved.
func FinalScore(scored []Scored) int {
	final := 0
	for _, s := range scored {
		if s.RunningTotal == nil {
			break
		}
		final = *s.RunningTotal
	}
	return final
}

func equalTotal(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
