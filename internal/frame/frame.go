package frame

const (
	// NumFrames is the number of frames in a game.
	NumFrames = 10

	// MaxPins is the number of pins in a full rack.
	MaxPins = 10

	// Spare is the shot sentinel meaning "knock down every pin still standing".
	// It is never a legal raw pin count.
	Spare = -1
)

// Frame is one positional slot of a game. Shots are nil until bowled.
//
// SecondShot and ThirdShot may hold the Spare sentinel. Everything outside this
// package reads shots through ResolveSecond/ResolveThird, never the raw fields.
type Frame struct {
	// Number is the frame position, 1..10
	Number int `json:"frame_number"`

	// FirstShot is the pin count of the first ball (10 = strike)
	FirstShot *int `json:"first_shot"`

	// SecondShot is the pin count of the second ball, or Spare
	SecondShot *int `json:"second_shot"`

	// ThirdShot is the 10th frame bonus ball, or Spare (relative to the standing rack)
	ThirdShot *int `json:"third_shot"`
}

// Shot returns a pointer to n, for building frames.
func Shot(n int) *int {
	return &n
}

// New returns an empty frame with the given number.
func New(number int) Frame {
	return Frame{Number: number}
}

// NewCard returns ten empty frames numbered 1..10.
func NewCard() []Frame {
	frames := make([]Frame, NumFrames)
	for i := range frames {
		frames[i] = New(i + 1)
	}
	return frames
}

// Clone returns a deep copy of f. Shot pointers are never shared with the original.
func (f Frame) Clone() Frame {
	return Frame{
		Number:     f.Number,
		FirstShot:  clonePtr(f.FirstShot),
		SecondShot: clonePtr(f.SecondShot),
		ThirdShot:  clonePtr(f.ThirdShot),
	}
}

// IsTenth reports whether f is the final frame.
func (f Frame) IsTenth() bool {
	return f.Number == NumFrames
}

// IsEmpty reports whether no shot has been entered.
func (f Frame) IsEmpty() bool {
	return f.FirstShot == nil && f.SecondShot == nil && f.ThirdShot == nil
}

// IsStrike reports whether the first ball knocked down all ten pins.
func (f Frame) IsStrike() bool {
	return f.FirstShot != nil && *f.FirstShot == MaxPins
}

// IsSpare reports whether the first two balls cleared the rack without a strike.
func (f Frame) IsSpare() bool {
	if f.IsStrike() {
		return false
	}
	first, ok := f.resolveFirst()
	if !ok {
		return false
	}
	second, ok := f.ResolveSecond()
	if !ok {
		return false
	}
	return first+second == MaxPins
}

// EarnsThirdShot reports whether the 10th frame has earned a bonus ball.
func (f Frame) EarnsThirdShot() bool {
	if !f.IsTenth() {
		return false
	}
	if f.IsStrike() {
		return f.SecondShot != nil
	}
	return f.IsSpare()
}

// PinsRemaining is the number of pins left standing after the first ball.
// A strike or an unbowled frame leaves zero pins to pick up.
func (f Frame) PinsRemaining() int {
	first, ok := f.resolveFirst()
	if !ok || first == MaxPins {
		return 0
	}
	return MaxPins - first
}

// resolveFirst returns the first ball when it is a legal pin count.
func (f Frame) resolveFirst() (int, bool) {
	if f.FirstShot == nil {
		return 0, false
	}
	first := *f.FirstShot
	if first < 0 || first > MaxPins {
		return 0, false
	}
	return first, true
}

// ResolveSecond returns the real pin count of the second ball.
// The Spare sentinel resolves to 10 - first. Returns false when the ball is
// absent, when the first ball is absent, or when the value cannot be legal
// for the rack that was standing.
func (f Frame) ResolveSecond() (int, bool) {
	first, ok := f.resolveFirst()
	if !ok || f.SecondShot == nil {
		return 0, false
	}
	second := *f.SecondShot

	if first == MaxPins {
		// Frames 1-9 end on a strike. Frame 10 gets a fresh rack.
		if !f.IsTenth() || second == Spare {
			return 0, false
		}
		if second < 0 || second > MaxPins {
			return 0, false
		}
		return second, true
	}

	if second == Spare {
		return MaxPins - first, true
	}
	if second < 0 || first+second > MaxPins {
		return 0, false
	}
	return second, true
}

// ResolveThird returns the real pin count of the 10th frame bonus ball.
// After X followed by an open ball the sentinel picks up the 10 - second pins
// still standing; after X-X or a spare the ball is thrown at a fresh rack.
func (f Frame) ResolveThird() (int, bool) {
	if !f.IsTenth() || f.ThirdShot == nil || !f.EarnsThirdShot() {
		return 0, false
	}
	second, ok := f.ResolveSecond()
	if !ok {
		return 0, false
	}
	third := *f.ThirdShot

	standing := MaxPins
	if f.IsStrike() && second < MaxPins {
		standing = MaxPins - second
	}

	if third == Spare {
		if standing == MaxPins {
			return 0, false
		}
		return standing, true
	}
	if third < 0 || third > standing {
		return 0, false
	}
	return third, true
}

// pinTotal sums the frame's own resolved balls. It returns false when a ball the
// frame needs is missing or malformed, or when a ball is present that the frame
// never earned.
func (f Frame) pinTotal() (int, bool) {
	first, ok := f.resolveFirst()
	if !ok {
		return 0, false
	}

	if !f.IsTenth() {
		if f.ThirdShot != nil {
			return 0, false
		}
		if first == MaxPins {
			return first, f.SecondShot == nil
		}
		second, ok := f.ResolveSecond()
		if !ok {
			return 0, false
		}
		return first + second, true
	}

	second, ok := f.ResolveSecond()
	if !ok {
		return 0, false
	}
	if !f.EarnsThirdShot() {
		if f.ThirdShot != nil {
			return 0, false
		}
		return first + second, true
	}
	third, ok := f.ResolveThird()
	if !ok {
		return 0, false
	}
	return first + second + third, true
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
