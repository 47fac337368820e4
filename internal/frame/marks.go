package frame

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/sparetime/internal/errors"
)

// Marks returns the scorecard boxes for f.
//
// Frames 1-9 show a strike in the second box and leave the first empty, the way
// printed scorecards do. The 10th frame has three boxes and marks X for every
// strike on a fresh rack and / for picking up the standing pins.
func Marks(f Frame) [3]string {
	var boxes [3]string
	if f.FirstShot == nil {
		return boxes
	}
	first := *f.FirstShot

	if !f.IsTenth() {
		if f.IsStrike() {
			boxes[1] = KeyStrike
			return boxes
		}
		boxes[0] = pinMark(first)
		if f.SecondShot != nil {
			boxes[1] = spareOrPins(f.IsSpare(), f.SecondShot, f.ResolveSecond)
		}
		return boxes
	}

	boxes[0] = strikeOrPins(first)
	if f.SecondShot == nil {
		return boxes
	}
	if f.IsStrike() {
		if second, ok := f.ResolveSecond(); ok {
			boxes[1] = strikeOrPins(second)
		} else {
			boxes[1] = pinMark(*f.SecondShot)
		}
	} else {
		boxes[1] = spareOrPins(f.IsSpare(), f.SecondShot, f.ResolveSecond)
	}

	if f.ThirdShot == nil {
		return boxes
	}
	third, ok := f.ResolveThird()
	if !ok {
		boxes[2] = pinMark(*f.ThirdShot)
		return boxes
	}
	second, _ := f.ResolveSecond()
	if f.IsStrike() && second < MaxPins {
		boxes[2] = spareOrPins(second+third == MaxPins, f.ThirdShot, f.ResolveThird)
	} else {
		boxes[2] = strikeOrPins(third)
	}
	return boxes
}

func pinMark(n int) string {
	if n == 0 {
		return KeyGutter
	}
	return strconv.Itoa(n)
}

func strikeOrPins(n int) string {
	if n == MaxPins {
		return KeyStrike
	}
	return pinMark(n)
}

func spareOrPins(spare bool, raw *int, resolve func() (int, bool)) string {
	if spare {
		return KeySpare
	}
	if v, ok := resolve(); ok {
		return pinMark(v)
	}
	return pinMark(*raw)
}

// ParseMarks builds frame number from compact scorecard notation such as
// "X", "9/", "72", "-5" or "XX7". Each character is applied as a keypad press,
// so the same entry rules apply.
func ParseMarks(number int, s string) (Frame, error) {
	f := New(number)
	for _, r := range strings.TrimSpace(s) {
		next, err := ApplyKey(f, strings.ToUpper(string(r)))
		if err != nil {
			return Frame{}, err
		}
		f = next
	}
	return f, nil
}

// ParseCard parses a whole game written as space or "|" separated frames,
// for example "X 9/ 72 X X X 8- 9/ X XX7". A short card leaves the remaining
// frames empty.
func ParseCard(s string) ([]Frame, error) {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ' ' || r == '\t' || r == '\n' || r == ','
	})
	if len(tokens) > NumFrames {
		return nil, errors.NewInvalidFrameSet(fmt.Sprintf("expected at most %d frames, got %d", NumFrames, len(tokens)))
	}

	card := NewCard()
	for i, tok := range tokens {
		f, err := ParseMarks(i+1, tok)
		if err != nil {
			return nil, err
		}
		card[i] = f
	}
	return card, nil
}

// Scorecard renders scored frames as a Markdown table with one column per frame.
func Scorecard(scored []Scored) string {
	var b strings.Builder

	b.WriteString("| Frame |")
	for _, s := range scored {
		fmt.Fprintf(&b, " %d |", s.Number)
	}
	b.WriteString("\n|---|")
	for range scored {
		b.WriteString(":-:|")
	}

	b.WriteString("\n| Marks |")
	for _, s := range scored {
		var boxes []string
		for _, m := range Marks(s.Frame) {
			if m != "" {
				boxes = append(boxes, m)
			}
		}
		fmt.Fprintf(&b, " %s |", strings.Join(boxes, " "))
	}

	b.WriteString("\n| Total |")
	for _, s := range scored {
		if s.RunningTotal == nil {
			b.WriteString("  |")
			continue
		}
		fmt.Fprintf(&b, " %d |", *s.RunningTotal)
	}
	b.WriteString("\n")
	return b.String()
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderScorecardHTML renders the Markdown scorecard to an HTML table.
func RenderScorecardHTML(scored []Scored) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Scorecard(scored)), &buf); err != nil {
		return "", errors.NewInternal(fmt.Errorf("render scorecard: %w", err))
	}
	return buf.String(), nil
}
