package ops

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hpungsan/sparetime/internal/db"
	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
)

func parseFrame(t *testing.T, number int, marks string) frame.Frame {
	t.Helper()
	f, err := frame.ParseMarks(number, marks)
	if err != nil {
		t.Fatalf("ParseMarks(%d, %q) failed: %v", number, marks, err)
	}
	return f
}

// totals returns the running totals of views, -1 for unresolved.
func totals(views []FrameView) []int {
	out := make([]int, len(views))
	for i, v := range views {
		out[i] = -1
		if v.RunningTotal != nil {
			out[i] = *v.RunningTotal
		}
	}
	return out
}

func TestRecordFrame_BonusResolution(t *testing.T) {
	database, cfg := openTestDB(t)
	ctx := context.Background()
	id := createTestMatch(t, database, "alice")

	steps := []struct {
		number      int
		marks       string
		wantChanged []int
		wantTotal   int
	}{
		{1, "X", []int{}, 0},
		{2, "72", []int{1, 2}, 28},
		{3, "9/", []int{}, 28},
		{4, "5", []int{3}, 43},
		{2, "8/", []int{1, 2, 3}, 54},
	}

	for _, step := range steps {
		out, err := RecordFrame(ctx, database, cfg, RecordFrameInput{
			MatchID: id,
			Frame:   parseFrame(t, step.number, step.marks),
		})
		if err != nil {
			t.Fatalf("RecordFrame(%d %q) failed: %v", step.number, step.marks, err)
		}
		if diff := cmp.Diff(step.wantChanged, out.Changed); diff != "" {
			t.Errorf("after %d %q Changed mismatch (-want +got):\n%s", step.number, step.marks, diff)
		}
		if out.TotalScore != step.wantTotal {
			t.Errorf("after %d %q TotalScore = %d, want %d", step.number, step.marks, out.TotalScore, step.wantTotal)
		}
		if len(out.Frames) != frame.NumFrames {
			t.Fatalf("len(Frames) = %d, want 10", len(out.Frames))
		}
	}

	want := []int{20, 39, 54, -1, -1, -1, -1, -1, -1, -1}
	fetched, err := FetchMatch(ctx, database, FetchMatchInput{ID: id})
	if err != nil {
		t.Fatalf("FetchMatch failed: %v", err)
	}
	if diff := cmp.Diff(want, totals(fetched.Frames)); diff != "" {
		t.Errorf("fetched totals mismatch (-want +got):\n%s", diff)
	}
	if fetched.TotalScore != 54 || fetched.FinalScore != 54 {
		t.Errorf("TotalScore = %d, FinalScore = %d, want 54", fetched.TotalScore, fetched.FinalScore)
	}
	if fetched.Frames[1].Marks != [3]string{"8", "/", ""} {
		t.Errorf("frame 2 marks = %q", fetched.Frames[1].Marks)
	}

	// Stored totals match a fresh rescoring
	records, err := db.ListFrames(ctx, database, id)
	if err != nil {
		t.Fatalf("ListFrames failed: %v", err)
	}
	for _, r := range records {
		got := -1
		if r.RunningTotal != nil {
			got = *r.RunningTotal
		}
		if got != want[r.FrameNumber-1] {
			t.Errorf("stored frame %d total = %d, want %d", r.FrameNumber, got, want[r.FrameNumber-1])
		}
	}
}

func TestRecordFrame_ClearingInvalidatesLaterFrames(t *testing.T) {
	database, cfg := openTestDB(t)
	ctx := context.Background()
	id := createTestMatch(t, database, "alice")
	recordCard(t, database, cfg, id, "X 72 9/ 5")

	out, err := RecordFrame(ctx, database, cfg, RecordFrameInput{MatchID: id, Frame: frame.New(1)})
	if err != nil {
		t.Fatalf("RecordFrame failed: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, out.Changed); diff != "" {
		t.Errorf("Changed mismatch (-want +got):\n%s", diff)
	}
	if out.TotalScore != 0 {
		t.Errorf("TotalScore = %d, want 0", out.TotalScore)
	}
	for _, v := range out.Frames {
		if v.RunningTotal != nil {
			t.Errorf("frame %d total = %d, want nil", v.FrameNumber, *v.RunningTotal)
		}
	}

	n, err := db.CountFrames(ctx, database, id)
	if err != nil {
		t.Fatalf("CountFrames failed: %v", err)
	}
	if n != 3 {
		t.Errorf("CountFrames = %d, want 3", n)
	}
}

func TestRecordFrame_KeepsPinsAndSpeed(t *testing.T) {
	database, cfg := openTestDB(t)
	ctx := context.Background()
	id := createTestMatch(t, database, "alice")

	_, err := RecordFrame(ctx, database, cfg, RecordFrameInput{
		MatchID:      id,
		Frame:        parseFrame(t, 1, "7/"),
		PinsStanding: []int{4, 7, 10},
		BallSpeed:    intPtr(17),
	})
	if err != nil {
		t.Fatalf("RecordFrame failed: %v", err)
	}

	out, err := RecordFrame(ctx, database, cfg, RecordFrameInput{MatchID: id, Frame: parseFrame(t, 2, "X")})
	if err != nil {
		t.Fatalf("RecordFrame failed: %v", err)
	}
	if diff := cmp.Diff([]int{1}, out.Changed); diff != "" {
		t.Errorf("Changed mismatch (-want +got):\n%s", diff)
	}

	records, err := db.ListFrames(ctx, database, id)
	if err != nil {
		t.Fatalf("ListFrames failed: %v", err)
	}
	first := records[0]
	if diff := cmp.Diff([]int{4, 7, 10}, first.PinsStanding); diff != "" {
		t.Errorf("frame 1 pins mismatch (-want +got):\n%s", diff)
	}
	if first.BallSpeed == nil || *first.BallSpeed != 17 {
		t.Errorf("frame 1 ball speed = %v, want 17", first.BallSpeed)
	}
	if first.RunningTotal == nil || *first.RunningTotal != 20 {
		t.Errorf("frame 1 total = %v, want 20", first.RunningTotal)
	}
	if !first.IsSpare || *first.SecondShot != 3 {
		t.Errorf("frame 1 stored as %+v, want spare with second 3", first)
	}
}

func TestRecordFrame_Rejections(t *testing.T) {
	database, cfg := openTestDB(t)
	ctx := context.Background()
	id := createTestMatch(t, database, "alice")

	tests := []struct {
		name  string
		input RecordFrameInput
		code  errors.ErrorCode
	}{
		{"missing match id", RecordFrameInput{Frame: frame.New(1)}, errors.ErrInvalidRequest},
		{"too many pins", RecordFrameInput{MatchID: id, Frame: frame.Frame{Number: 1, FirstShot: frame.Shot(7), SecondShot: frame.Shot(5)}}, errors.ErrInvalidFrame},
		{"third ball early", RecordFrameInput{MatchID: id, Frame: frame.Frame{Number: 4, FirstShot: frame.Shot(3), SecondShot: frame.Shot(2), ThirdShot: frame.Shot(1)}}, errors.ErrInvalidFrame},
		{"frame eleven", RecordFrameInput{MatchID: id, Frame: frame.New(11)}, errors.ErrInvalidFrame},
		{"wrong pin count", RecordFrameInput{MatchID: id, Frame: frame.Frame{Number: 1, FirstShot: frame.Shot(8)}, PinsStanding: []int{7}}, errors.ErrInvalidFrame},
		{"negative speed", RecordFrameInput{MatchID: id, Frame: frame.Frame{Number: 1, FirstShot: frame.Shot(8)}, BallSpeed: intPtr(-1)}, errors.ErrInvalidFrame},
		{"unknown match", RecordFrameInput{MatchID: "01UNKNOWN", Frame: frame.New(1)}, errors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RecordFrame(ctx, database, cfg, tt.input)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}

	if n, _ := db.CountFrames(ctx, database, id); n != 0 {
		t.Errorf("rejected frames were stored: %d", n)
	}
}

func TestRecordFrame_DeletedMatch(t *testing.T) {
	database, cfg := openTestDB(t)
	ctx := context.Background()
	id := createTestMatch(t, database, "alice")
	if _, err := DeleteMatch(ctx, database, DeleteMatchInput{ID: id}); err != nil {
		t.Fatalf("DeleteMatch failed: %v", err)
	}

	_, err := RecordFrame(ctx, database, cfg, RecordFrameInput{MatchID: id, Frame: frame.Frame{Number: 1, FirstShot: frame.Shot(10)}})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestRecordFrame_ConcurrentEditsSameMatch(t *testing.T) {
	database, cfg := openTestDB(t)
	cfg.PersistConcurrency = 4
	ctx := context.Background()
	id := createTestMatch(t, database, "alice")

	var wg sync.WaitGroup
	errs := make(chan error, frame.NumFrames)
	for n := 1; n <= frame.NumFrames; n++ {
		f := frame.Frame{Number: n, FirstShot: frame.Shot(10)}
		if n == frame.NumFrames {
			f.SecondShot = frame.Shot(10)
			f.ThirdShot = frame.Shot(10)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := RecordFrame(ctx, database, cfg, RecordFrameInput{MatchID: id, Frame: f}); err != nil {
				errs <- fmt.Errorf("frame %d: %w", f.Number, err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	out, err := FetchMatch(ctx, database, FetchMatchInput{ID: id})
	if err != nil {
		t.Fatalf("FetchMatch failed: %v", err)
	}
	if out.TotalScore != 300 || out.FinalScore != 300 {
		t.Errorf("TotalScore = %d, FinalScore = %d, want 300", out.TotalScore, out.FinalScore)
	}

	records, err := db.ListFrames(ctx, database, id)
	if err != nil {
		t.Fatalf("ListFrames failed: %v", err)
	}
	for i, r := range records {
		if r.RunningTotal == nil || *r.RunningTotal != 30*(i+1) {
			t.Errorf("stored frame %d total = %v, want %d", r.FrameNumber, r.RunningTotal, 30*(i+1))
		}
	}
}

func TestRecordKey(t *testing.T) {
	database, cfg := openTestDB(t)
	ctx := context.Background()
	id := createTestMatch(t, database, "alice")

	press := func(number int, key string) *RecordFrameOutput {
		t.Helper()
		out, err := RecordKey(ctx, database, cfg, RecordKeyInput{MatchID: id, FrameNumber: number, Key: key})
		if err != nil {
			t.Fatalf("RecordKey(%d, %q) failed: %v", number, key, err)
		}
		return out
	}

	press(1, "7")
	press(1, "/")
	out := press(2, "x")
	if out.Frames[0].RunningTotal == nil || *out.Frames[0].RunningTotal != 20 {
		t.Errorf("frame 1 total = %v, want 20", out.Frames[0].RunningTotal)
	}
	if out.Frames[0].Marks != [3]string{"7", "/", ""} {
		t.Errorf("frame 1 marks = %q", out.Frames[0].Marks)
	}

	out = press(2, "<")
	if out.Frames[0].RunningTotal != nil {
		t.Errorf("frame 1 total after backspace = %d, want nil", *out.Frames[0].RunningTotal)
	}
	if diff := cmp.Diff([]int{1}, out.Changed); diff != "" {
		t.Errorf("Changed mismatch (-want +got):\n%s", diff)
	}

	_, err := RecordKey(ctx, database, cfg, RecordKeyInput{MatchID: id, FrameNumber: 1, Key: "5"})
	if !errors.Is(err, errors.ErrInvalidFrame) {
		t.Errorf("key on complete frame: err = %v, want INVALID_FRAME", err)
	}
	_, err = RecordKey(ctx, database, cfg, RecordKeyInput{MatchID: id, FrameNumber: 3, Key: "/"})
	if !errors.Is(err, errors.ErrInvalidFrame) {
		t.Errorf("spare on first ball: err = %v, want INVALID_FRAME", err)
	}
	_, err = RecordKey(ctx, database, cfg, RecordKeyInput{MatchID: id, FrameNumber: 0, Key: "5"})
	if !errors.Is(err, errors.ErrInvalidFrame) {
		t.Errorf("frame 0: err = %v, want INVALID_FRAME", err)
	}
}

func TestRecordKey_DropsPinsWhenFirstBallChanges(t *testing.T) {
	database, cfg := openTestDB(t)
	ctx := context.Background()
	id := createTestMatch(t, database, "alice")

	_, err := RecordFrame(ctx, database, cfg, RecordFrameInput{
		MatchID:      id,
		Frame:        frame.Frame{Number: 1, FirstShot: frame.Shot(8)},
		PinsStanding: []int{7, 10},
	})
	if err != nil {
		t.Fatalf("RecordFrame failed: %v", err)
	}

	out, err := RecordKey(ctx, database, cfg, RecordKeyInput{MatchID: id, FrameNumber: 1, Key: "1"})
	if err != nil {
		t.Fatalf("RecordKey failed: %v", err)
	}
	if diff := cmp.Diff([]int{7, 10}, out.Frames[0].PinsStanding); diff != "" {
		t.Errorf("pins after second ball (-want +got):\n%s", diff)
	}

	if _, err := RecordKey(ctx, database, cfg, RecordKeyInput{MatchID: id, FrameNumber: 1, Key: "<"}); err != nil {
		t.Fatalf("RecordKey failed: %v", err)
	}
	out, err = RecordKey(ctx, database, cfg, RecordKeyInput{MatchID: id, FrameNumber: 1, Key: "<"})
	if err != nil {
		t.Fatalf("RecordKey failed: %v", err)
	}
	if len(out.Frames[0].PinsStanding) != 0 {
		t.Errorf("pins after clearing first ball = %v, want none", out.Frames[0].PinsStanding)
	}
}

func TestRecordFrame_StaleStoredTotalsAreRecomputed(t *testing.T) {
	database, cfg := openTestDB(t)
	ctx := context.Background()
	id := createTestMatch(t, database, "alice")
	out := recordCard(t, database, cfg, id, "X 72")

	// Leave frame 2 and the match as a failed write would.
	stale := out.Frames[1].Record
	stale.RunningTotal = intPtr(99)
	if err := db.UpsertFrame(ctx, database, id, stale); err != nil {
		t.Fatalf("UpsertFrame failed: %v", err)
	}
	if err := db.SetTotalScore(ctx, database, id, 5); err != nil {
		t.Fatalf("SetTotalScore failed: %v", err)
	}

	fetched, err := FetchMatch(ctx, database, FetchMatchInput{ID: id})
	if err != nil {
		t.Fatalf("FetchMatch failed: %v", err)
	}
	if fetched.FinalScore != 28 || *fetched.Frames[1].RunningTotal != 28 {
		t.Errorf("fetched final=%d frame2=%d, want 28 and 28", fetched.FinalScore, *fetched.Frames[1].RunningTotal)
	}

	edit, err := RecordFrame(ctx, database, cfg, RecordFrameInput{MatchID: id, Frame: parseFrame(t, 3, "-1")})
	if err != nil {
		t.Fatalf("RecordFrame failed: %v", err)
	}
	if diff := cmp.Diff([]int{2, 3}, edit.Changed); diff != "" {
		t.Errorf("Changed mismatch (-want +got):\n%s", diff)
	}

	records, err := db.ListFrames(ctx, database, id)
	if err != nil {
		t.Fatalf("ListFrames failed: %v", err)
	}
	if *records[1].RunningTotal != 28 {
		t.Errorf("stored frame 2 total = %d, want 28", *records[1].RunningTotal)
	}
	m, err := db.GetMatch(ctx, database, id, false)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if m.TotalScore != 29 {
		t.Errorf("match total_score = %d, want 29", m.TotalScore)
	}
}
