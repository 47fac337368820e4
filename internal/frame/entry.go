package frame

import (
	"fmt"
	"strconv"

	"github.com/hpungsan/sparetime/internal/errors"
)

// Keypad keys accepted by ApplyKey.
const (
	KeyStrike    = "X"
	KeySpare     = "/"
	KeyGutter    = "-"
	KeyBackspace = "<"
)

// Validate checks that f is a legal frame as entered so far.
//
// The scoring engine tolerates anything and simply leaves bad frames unresolved;
// Validate is the strict gate the entry layer runs before a frame is stored.
func Validate(f Frame) error {
	if f.Number < 1 || f.Number > NumFrames {
		return errors.NewInvalidFrame(f.Number, fmt.Sprintf("frame number must be between 1 and %d", NumFrames))
	}

	if f.FirstShot == nil {
		if f.SecondShot != nil || f.ThirdShot != nil {
			return errors.NewInvalidFrame(f.Number, "later ball entered before the first ball")
		}
		return nil
	}
	first := *f.FirstShot
	if first < 0 || first > MaxPins {
		return errors.NewInvalidFrame(f.Number, fmt.Sprintf("first ball must be between 0 and %d, got %d", MaxPins, first))
	}

	if f.SecondShot == nil {
		if f.ThirdShot != nil {
			return errors.NewInvalidFrame(f.Number, "third ball entered before the second ball")
		}
		return nil
	}

	if !f.IsTenth() {
		if f.ThirdShot != nil {
			return errors.NewInvalidFrame(f.Number, "only the 10th frame has a third ball")
		}
		if f.IsStrike() {
			return errors.NewInvalidFrame(f.Number, "no second ball is bowled after a strike")
		}
	}

	if _, ok := f.ResolveSecond(); !ok {
		return errors.NewInvalidFrame(f.Number, secondShotProblem(f))
	}

	if f.ThirdShot == nil {
		return nil
	}
	if !f.EarnsThirdShot() {
		return errors.NewInvalidFrame(f.Number, "third ball is only bowled after a strike or spare")
	}
	if _, ok := f.ResolveThird(); !ok {
		return errors.NewInvalidFrame(f.Number, thirdShotProblem(f))
	}
	return nil
}

func secondShotProblem(f Frame) string {
	first, second := *f.FirstShot, *f.SecondShot
	if first == MaxPins {
		if second == Spare {
			return "cannot mark a spare on a fresh rack"
		}
		return fmt.Sprintf("second ball must be between 0 and %d, got %d", MaxPins, second)
	}
	return fmt.Sprintf("second ball knocks down %d pins but only %d were standing", second, MaxPins-first)
}

func thirdShotProblem(f Frame) string {
	second, _ := f.ResolveSecond()
	third := *f.ThirdShot
	standing := MaxPins
	if f.IsStrike() && second < MaxPins {
		standing = MaxPins - second
	}
	if third == Spare {
		return "cannot mark a spare on a fresh rack"
	}
	return fmt.Sprintf("third ball knocks down %d pins but only %d were standing", third, standing)
}

// ValidatePinsStanding checks the optional list of pins left after the first ball.
// Pins are numbered 1..10; the list must match PinsRemaining.
func ValidatePinsStanding(f Frame, pins []int) error {
	if len(pins) == 0 {
		return nil
	}
	if f.FirstShot == nil {
		return errors.NewInvalidFrame(f.Number, "pins standing recorded before the first ball")
	}

	seen := make(map[int]bool, len(pins))
	for _, p := range pins {
		if p < 1 || p > MaxPins {
			return errors.NewInvalidFrame(f.Number, fmt.Sprintf("pin %d does not exist", p))
		}
		if seen[p] {
			return errors.NewInvalidFrame(f.Number, fmt.Sprintf("pin %d listed twice", p))
		}
		seen[p] = true
	}

	if want := f.PinsRemaining(); len(pins) != want {
		return errors.NewInvalidFrame(f.Number, fmt.Sprintf("%d pins marked standing, expected %d", len(pins), want))
	}
	return nil
}

// ApplyKey applies one keypad press to f and returns the updated copy.
// Digits enter a pin count, X a strike, / a spare, - a gutter ball, and < clears
// the most recent ball. Keys that are not legal for the current ball are rejected.
func ApplyKey(f Frame, key string) (Frame, error) {
	out := f.Clone()

	if key == KeyBackspace {
		switch {
		case out.ThirdShot != nil:
			out.ThirdShot = nil
		case out.SecondShot != nil:
			out.SecondShot = nil
		default:
			out.FirstShot = nil
		}
		return out, nil
	}
	if key == KeyGutter {
		key = "0"
	}

	switch {
	case out.FirstShot == nil:
		v, err := firstBallKey(out, key)
		if err != nil {
			return f, err
		}
		out.FirstShot = &v
	case out.SecondShot == nil && (out.IsTenth() || !out.IsStrike()):
		v, err := secondBallKey(out, key)
		if err != nil {
			return f, err
		}
		out.SecondShot = &v
	case out.ThirdShot == nil && out.EarnsThirdShot():
		v, err := thirdBallKey(out, key)
		if err != nil {
			return f, err
		}
		out.ThirdShot = &v
	default:
		return f, errors.NewInvalidFrame(f.Number, "frame is complete")
	}
	return out, nil
}

func firstBallKey(f Frame, key string) (int, error) {
	switch key {
	case KeyStrike:
		return MaxPins, nil
	case KeySpare:
		return 0, errors.NewInvalidFrame(f.Number, "cannot mark a spare on the first ball")
	}
	return digitKey(f, key, MaxPins-1)
}

func secondBallKey(f Frame, key string) (int, error) {
	first := *f.FirstShot
	if f.IsStrike() {
		// 10th frame only: fresh rack after the strike
		switch key {
		case KeyStrike:
			return MaxPins, nil
		case KeySpare:
			return 0, errors.NewInvalidFrame(f.Number, "cannot mark a spare on a fresh rack")
		}
		return digitKey(f, key, MaxPins-1)
	}

	switch key {
	case KeySpare:
		return Spare, nil
	case KeyStrike:
		return 0, errors.NewInvalidFrame(f.Number, "a strike is only possible on a full rack")
	}
	// Knocking down every standing pin is entered as a spare.
	return digitKey(f, key, MaxPins-first-1)
}

func thirdBallKey(f Frame, key string) (int, error) {
	second, _ := f.ResolveSecond()
	if f.IsStrike() && second < MaxPins {
		switch key {
		case KeySpare:
			return Spare, nil
		case KeyStrike:
			return 0, errors.NewInvalidFrame(f.Number, "a strike is only possible on a full rack")
		}
		return digitKey(f, key, MaxPins-second-1)
	}

	switch key {
	case KeyStrike:
		return MaxPins, nil
	case KeySpare:
		return 0, errors.NewInvalidFrame(f.Number, "cannot mark a spare on a fresh rack")
	}
	return digitKey(f, key, MaxPins-1)
}

func digitKey(f Frame, key string, max int) (int, error) {
	v, err := strconv.Atoi(key)
	if err != nil || len(key) != 1 {
		return 0, errors.NewInvalidFrame(f.Number, fmt.Sprintf("unknown key %q", key))
	}
	if v > max {
		return 0, errors.NewInvalidFrame(f.Number, fmt.Sprintf("only %d pins can fall on this ball without a mark", max))
	}
	return v, nil
}
