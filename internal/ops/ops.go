package ops

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/sparetime/internal/frame"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// FrameView is a stored frame as callers see it: the persisted record plus the
// three scorecard marks.
type FrameView struct {
	frame.Record
	Marks [3]string `json:"marks"`
}

// buildViews turns a scored card into views, carrying stored pins and ball speed
// forward from records keyed by frame number.
func buildViews(scored []frame.Scored, stored map[int]frame.Record) []FrameView {
	views := make([]FrameView, len(scored))
	for i, s := range scored {
		prev := stored[s.Number]
		views[i] = FrameView{
			Record: frame.ToRecord(s, prev.PinsStanding, prev.BallSpeed),
			Marks:  frame.Marks(s.Frame),
		}
	}
	return views
}

// byNumber indexes records by frame number.
func byNumber(records []frame.Record) map[int]frame.Record {
	m := make(map[int]frame.Record, len(records))
	for _, r := range records {
		m[r.FrameNumber] = r
	}
	return m
}

// matchLocks serializes edits per match. Entries are reference counted and
// removed when the last holder releases.
var matchLocks = &keyedMutex{locks: make(map[string]*lockEntry)}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
