package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/hpungsan/sparetime/internal/errors"
	"github.com/hpungsan/sparetime/internal/frame"
	"github.com/hpungsan/sparetime/internal/match"
)

func openQueriesTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestMatch(id, userID string, played int64) *match.Match {
	now := time.Now().Unix()
	return &match.Match{
		ID:         id,
		UserID:     userID,
		DatePlayed: played,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func stringPtr(s string) *string { return &s }
func intPtr(n int) *int          { return &n }

func mustInsert(t *testing.T, database *sql.DB, m *match.Match) {
	t.Helper()
	if err := InsertMatch(context.Background(), database, m); err != nil {
		t.Fatalf("InsertMatch(%s) error = %v", m.ID, err)
	}
}

func TestInsertAndGetMatch(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()

	m := newTestMatch("01TEST000000000000000000AA", "42", 1700000000)
	m.Lane = intPtr(7)
	m.Location = stringPtr("Sunset Lanes")
	mustInsert(t, database, m)

	got, err := GetMatch(ctx, database, m.ID, false)
	if err != nil {
		t.Fatalf("GetMatch() error = %v", err)
	}
	if got.UserID != "42" || got.DatePlayed != 1700000000 {
		t.Errorf("GetMatch() = %+v", got)
	}
	if got.Lane == nil || *got.Lane != 7 {
		t.Errorf("Lane = %v, want 7", got.Lane)
	}
	if got.Location == nil || *got.Location != "Sunset Lanes" {
		t.Errorf("Location = %v, want Sunset Lanes", got.Location)
	}
	if got.Notes != nil {
		t.Errorf("Notes = %q, want nil", *got.Notes)
	}
	if got.DeletedAt != nil {
		t.Errorf("DeletedAt = %d, want nil", *got.DeletedAt)
	}
}

func TestGetMatch_NotFound(t *testing.T) {
	database := openQueriesTestDB(t)

	_, err := GetMatch(context.Background(), database, "missing", false)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetMatch() error = %v, want NOT_FOUND", err)
	}
}

func TestInsertMatch_UniqueConstraint(t *testing.T) {
	database := openQueriesTestDB(t)

	m := newTestMatch("dup", "1", 1)
	mustInsert(t, database, m)

	err := InsertMatch(context.Background(), database, m)
	if err != ErrUniqueConstraint {
		t.Errorf("InsertMatch(duplicate) error = %v, want ErrUniqueConstraint", err)
	}
}

func TestListMatches_FilterAndOrder(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()

	mustInsert(t, database, newTestMatch("a", "1", 100))
	mustInsert(t, database, newTestMatch("b", "1", 300))
	mustInsert(t, database, newTestMatch("c", "1", 200))
	mustInsert(t, database, newTestMatch("d", "2", 400))

	matches, total, err := ListMatches(ctx, database, "1", 10, 0, false)
	if err != nil {
		t.Fatalf("ListMatches() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	want := []string{"b", "c", "a"}
	if len(matches) != len(want) {
		t.Fatalf("len = %d, want %d", len(matches), len(want))
	}
	for i, id := range want {
		if matches[i].ID != id {
			t.Errorf("matches[%d].ID = %q, want %q", i, matches[i].ID, id)
		}
	}

	all, total, err := ListMatches(ctx, database, "", 10, 0, false)
	if err != nil {
		t.Fatalf("ListMatches(all) error = %v", err)
	}
	if total != 4 || all[0].ID != "d" {
		t.Errorf("ListMatches(all) total = %d first = %q, want 4 and d", total, all[0].ID)
	}
}

func TestListMatches_Pagination(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d", "e"} {
		mustInsert(t, database, newTestMatch(id, "1", int64(100+i)))
	}

	page, total, err := ListMatches(ctx, database, "1", 2, 2, false)
	if err != nil {
		t.Fatalf("ListMatches() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 || page[0].ID != "c" || page[1].ID != "b" {
		t.Errorf("page = %v, want [c b]", page)
	}
}

func TestListMatches_IncludeDeleted(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()

	mustInsert(t, database, newTestMatch("a", "1", 100))
	mustInsert(t, database, newTestMatch("b", "1", 200))
	if err := SoftDeleteMatch(ctx, database, "b"); err != nil {
		t.Fatalf("SoftDeleteMatch() error = %v", err)
	}

	_, total, err := ListMatches(ctx, database, "1", 10, 0, false)
	if err != nil {
		t.Fatalf("ListMatches() error = %v", err)
	}
	if total != 1 {
		t.Errorf("active total = %d, want 1", total)
	}

	_, total, err = ListMatches(ctx, database, "1", 10, 0, true)
	if err != nil {
		t.Fatalf("ListMatches(includeDeleted) error = %v", err)
	}
	if total != 2 {
		t.Errorf("total with deleted = %d, want 2", total)
	}
}

func TestUpdateMatch(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()

	m := newTestMatch("a", "1", 100)
	m.UpdatedAt = 1
	mustInsert(t, database, m)

	m.Notes = stringPtr("new ball")
	m.Lane = intPtr(12)
	if err := UpdateMatch(ctx, database, m); err != nil {
		t.Fatalf("UpdateMatch() error = %v", err)
	}
	if m.UpdatedAt <= 1 {
		t.Errorf("UpdatedAt = %d, want bumped", m.UpdatedAt)
	}

	got, err := GetMatch(ctx, database, "a", false)
	if err != nil {
		t.Fatalf("GetMatch() error = %v", err)
	}
	if got.Notes == nil || *got.Notes != "new ball" || got.Lane == nil || *got.Lane != 12 {
		t.Errorf("GetMatch() after update = %+v", got)
	}
}

func TestUpdateMatch_NotFound(t *testing.T) {
	database := openQueriesTestDB(t)

	err := UpdateMatch(context.Background(), database, newTestMatch("missing", "1", 1))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("UpdateMatch() error = %v, want NOT_FOUND", err)
	}
}

func TestSetTotalScore(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()
	mustInsert(t, database, newTestMatch("a", "1", 100))

	if err := SetTotalScore(ctx, database, "a", 187); err != nil {
		t.Fatalf("SetTotalScore() error = %v", err)
	}
	got, err := GetMatch(ctx, database, "a", false)
	if err != nil {
		t.Fatalf("GetMatch() error = %v", err)
	}
	if got.TotalScore != 187 {
		t.Errorf("TotalScore = %d, want 187", got.TotalScore)
	}
}

func TestSoftDeleteMatch(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()
	mustInsert(t, database, newTestMatch("a", "1", 100))

	if err := SoftDeleteMatch(ctx, database, "a"); err != nil {
		t.Fatalf("SoftDeleteMatch() error = %v", err)
	}
	if _, err := GetMatch(ctx, database, "a", false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetMatch(active) error = %v, want NOT_FOUND", err)
	}
	got, err := GetMatch(ctx, database, "a", true)
	if err != nil {
		t.Fatalf("GetMatch(includeDeleted) error = %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt = nil, want set")
	}

	if err := SoftDeleteMatch(ctx, database, "a"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second SoftDeleteMatch() error = %v, want NOT_FOUND", err)
	}
}

func TestUpsertFrame_InsertThenUpdate(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()
	mustInsert(t, database, newTestMatch("a", "1", 100))

	rec := frame.Record{
		FrameNumber:  1,
		FirstShot:    intPtr(7),
		PinsStanding: []int{7, 10, 4},
		BallSpeed:    intPtr(16),
	}
	if err := UpsertFrame(ctx, database, "a", rec); err != nil {
		t.Fatalf("UpsertFrame(insert) error = %v", err)
	}

	rec.SecondShot = intPtr(3)
	rec.IsSpare = true
	rec.RunningTotal = intPtr(19)
	if err := UpsertFrame(ctx, database, "a", rec); err != nil {
		t.Fatalf("UpsertFrame(update) error = %v", err)
	}

	frames, err := ListFrames(ctx, database, "a")
	if err != nil {
		t.Fatalf("ListFrames() error = %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("len = %d, want 1", len(frames))
	}
	got := frames[0]
	if *got.SecondShot != 3 || !got.IsSpare || got.IsStrike {
		t.Errorf("frame = %+v", got)
	}
	if *got.RunningTotal != 19 || *got.BallSpeed != 16 {
		t.Errorf("total/speed = %v/%v", got.RunningTotal, got.BallSpeed)
	}
	if len(got.PinsStanding) != 3 || got.PinsStanding[2] != 4 {
		t.Errorf("PinsStanding = %v, want [7 10 4]", got.PinsStanding)
	}
}

func TestUpsertFrame_RequiresMatch(t *testing.T) {
	database := openQueriesTestDB(t)

	err := UpsertFrame(context.Background(), database, "missing", frame.Record{FrameNumber: 1})
	if !errors.Is(err, errors.ErrInternal) {
		t.Errorf("UpsertFrame() error = %v, want INTERNAL from foreign key", err)
	}
}

func TestListFrames_OrderedAndEmptyPins(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()
	mustInsert(t, database, newTestMatch("a", "1", 100))

	for _, n := range []int{3, 1, 2} {
		if err := UpsertFrame(ctx, database, "a", frame.Record{FrameNumber: n, FirstShot: intPtr(n)}); err != nil {
			t.Fatalf("UpsertFrame(%d) error = %v", n, err)
		}
	}

	frames, err := ListFrames(ctx, database, "a")
	if err != nil {
		t.Fatalf("ListFrames() error = %v", err)
	}
	for i, f := range frames {
		if f.FrameNumber != i+1 {
			t.Errorf("frames[%d].FrameNumber = %d, want %d", i, f.FrameNumber, i+1)
		}
		if f.PinsStanding == nil || len(f.PinsStanding) != 0 {
			t.Errorf("frames[%d].PinsStanding = %v, want []", i, f.PinsStanding)
		}
	}
}

func TestCountFrames_IgnoresClearedFrames(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()
	mustInsert(t, database, newTestMatch("a", "1", 100))

	if err := UpsertFrame(ctx, database, "a", frame.Record{FrameNumber: 1, FirstShot: intPtr(10), IsStrike: true}); err != nil {
		t.Fatalf("UpsertFrame() error = %v", err)
	}
	if err := UpsertFrame(ctx, database, "a", frame.Record{FrameNumber: 2}); err != nil {
		t.Fatalf("UpsertFrame() error = %v", err)
	}

	n, err := CountFrames(ctx, database, "a")
	if err != nil {
		t.Fatalf("CountFrames() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountFrames() = %d, want 1", n)
	}
}

func TestPurgeDeleted_CascadesFrames(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()
	mustInsert(t, database, newTestMatch("a", "1", 100))
	mustInsert(t, database, newTestMatch("b", "2", 100))
	mustInsert(t, database, newTestMatch("c", "1", 100))

	if err := UpsertFrame(ctx, database, "a", frame.Record{FrameNumber: 1, FirstShot: intPtr(4)}); err != nil {
		t.Fatalf("UpsertFrame() error = %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if err := SoftDeleteMatch(ctx, database, id); err != nil {
			t.Fatalf("SoftDeleteMatch(%s) error = %v", id, err)
		}
	}

	n, err := PurgeDeleted(ctx, database, stringPtr("1"), nil)
	if err != nil {
		t.Fatalf("PurgeDeleted() error = %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}

	var frames int
	if err := database.QueryRow("SELECT COUNT(*) FROM frames WHERE match_id = 'a'").Scan(&frames); err != nil {
		t.Fatalf("count frames: %v", err)
	}
	if frames != 0 {
		t.Errorf("frames left for purged match = %d, want 0", frames)
	}

	// b is deleted but belongs to another user; c is active
	if _, err := GetMatch(ctx, database, "b", true); err != nil {
		t.Errorf("GetMatch(b) error = %v, want still present", err)
	}
	if _, err := GetMatch(ctx, database, "c", false); err != nil {
		t.Errorf("GetMatch(c) error = %v, want still present", err)
	}
}

func TestPurgeDeleted_OlderThan(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()

	old := newTestMatch("old", "1", 100)
	oldDeleted := time.Now().Add(-10 * 24 * time.Hour).Unix()
	old.DeletedAt = &oldDeleted
	mustInsert(t, database, old)

	mustInsert(t, database, newTestMatch("recent", "1", 100))
	if err := SoftDeleteMatch(ctx, database, "recent"); err != nil {
		t.Fatalf("SoftDeleteMatch() error = %v", err)
	}

	n, err := PurgeDeleted(ctx, database, nil, intPtr(7))
	if err != nil {
		t.Fatalf("PurgeDeleted() error = %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if _, err := GetMatch(ctx, database, "recent", true); err != nil {
		t.Errorf("recent match purged too early: %v", err)
	}
}

func TestStreamForExport_GroupsFrames(t *testing.T) {
	database := openQueriesTestDB(t)
	ctx := context.Background()
	mustInsert(t, database, newTestMatch("a", "1", 100))
	mustInsert(t, database, newTestMatch("b", "1", 200))
	for _, n := range []int{2, 1} {
		if err := UpsertFrame(ctx, database, "a", frame.Record{FrameNumber: n, FirstShot: intPtr(5)}); err != nil {
			t.Fatalf("UpsertFrame() error = %v", err)
		}
	}

	rows, err := StreamForExport(ctx, database, nil, false)
	if err != nil {
		t.Fatalf("StreamForExport() error = %v", err)
	}
	defer rows.Close()

	type seen struct {
		id    string
		frame int
	}
	var got []seen
	for rows.Next() {
		m, rec, err := ScanExportRow(rows)
		if err != nil {
			t.Fatalf("ScanExportRow() error = %v", err)
		}
		n := 0
		if rec != nil {
			n = rec.FrameNumber
		}
		got = append(got, seen{m.ID, n})
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows.Err() = %v", err)
	}

	want := []seen{{"a", 1}, {"a", 2}, {"b", 0}}
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}
