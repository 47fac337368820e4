package frame

import "github.com/hpungsan/sparetime/internal/errors"

// Record is the persisted shape of a frame. Shots hold real pin counts, never the
// Spare sentinel; IsSpare and the pin arithmetic carry enough to restore it.
type Record struct {
	FrameNumber  int   `json:"frame_number"`
	FirstShot    *int  `json:"first_shot"`
	SecondShot   *int  `json:"second_shot"`
	ThirdShot    *int  `json:"third_shot"`
	IsStrike     bool  `json:"is_strike"`
	IsSpare      bool  `json:"is_spare"`
	PinsStanding []int `json:"pins_standing"`
	RunningTotal *int  `json:"running_total"`
	BallSpeed    *int  `json:"ball_speed,omitempty"`
}

// ToRecord converts a scored frame into its persisted shape.
func ToRecord(s Scored, pinsStanding []int, ballSpeed *int) Record {
	r := Record{
		FrameNumber:  s.Number,
		FirstShot:    clonePtr(s.FirstShot),
		SecondShot:   clonePtr(s.SecondShot),
		ThirdShot:    clonePtr(s.ThirdShot),
		IsStrike:     s.IsStrike(),
		IsSpare:      s.IsSpare(),
		PinsStanding: pinsStanding,
		RunningTotal: clonePtr(s.RunningTotal),
		BallSpeed:    clonePtr(ballSpeed),
	}
	if v, ok := s.ResolveSecond(); ok {
		r.SecondShot = &v
	}
	if v, ok := s.ResolveThird(); ok {
		r.ThirdShot = &v
	}
	if r.PinsStanding == nil {
		r.PinsStanding = []int{}
	}
	return r
}

// FromRecord restores the entry-time frame from a persisted record, putting the
// Spare sentinel back where a ball picked up the standing pins. The shots
// decide: an is_spare flag the pin counts do not confirm is ignored.
func FromRecord(r Record) Frame {
	f := Frame{
		Number:     r.FrameNumber,
		FirstShot:  clonePtr(r.FirstShot),
		SecondShot: clonePtr(r.SecondShot),
		ThirdShot:  clonePtr(r.ThirdShot),
	}

	if r.IsSpare && r.shotsMakeSpare() {
		f.SecondShot = Shot(Spare)
	}

	// X followed by n then the remaining 10-n pins is X n /
	if f.IsTenth() && f.IsStrike() && r.SecondShot != nil && r.ThirdShot != nil {
		second, third := *r.SecondShot, *r.ThirdShot
		if second >= 0 && second < MaxPins && second+third == MaxPins {
			f.ThirdShot = Shot(Spare)
		}
	}
	return f
}

// Validate rejects a record whose is_strike or is_spare flag contradicts its
// shot counts. Records written by ToRecord always agree.
func (r Record) Validate() error {
	strike := r.FirstShot != nil && *r.FirstShot == MaxPins
	if r.IsStrike != strike {
		return errors.NewInvalidFrame(r.FrameNumber, "is_strike does not match first_shot")
	}
	if r.IsSpare != r.shotsMakeSpare() {
		return errors.NewInvalidFrame(r.FrameNumber, "is_spare does not match first_shot and second_shot")
	}
	return nil
}

// shotsMakeSpare reports whether the first two stored balls clear the rack
// without a strike.
func (r Record) shotsMakeSpare() bool {
	if r.FirstShot == nil || r.SecondShot == nil {
		return false
	}
	first, second := *r.FirstShot, *r.SecondShot
	return first >= 0 && first < MaxPins && second >= 0 && first+second == MaxPins
}

// Scored restores a scored frame from a record, keeping the stored total.
func (r Record) Scored() Scored {
	return Scored{Frame: FromRecord(r), RunningTotal: clonePtr(r.RunningTotal)}
}
