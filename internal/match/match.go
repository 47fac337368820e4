package match

// Match is one game bowled by a user. Frames live in their own table and are
// scored on read; TotalScore caches the final resolved total after each edit.
type Match struct {
	// ID is a ULID that uniquely identifies this match
	ID string `json:"id"`

	// UserID identifies the bowler
	UserID string `json:"user_id"`

	// DatePlayed is the Unix timestamp of the game
	DatePlayed int64 `json:"date_played"`

	// TotalScore is the last resolved running total, 0 until frame 1 resolves
	TotalScore int `json:"total_score"`

	// Lane is the lane number, if recorded
	Lane *int `json:"lane,omitempty"`

	// Location is the bowling center, if recorded
	Location *string `json:"location,omitempty"`

	// Notes is free text
	Notes *string `json:"notes,omitempty"`

	// CreatedAt is the Unix timestamp when the match was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the match or one of its frames last changed
	UpdatedAt int64 `json:"updated_at"`

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the match has been soft-deleted.
func (m *Match) IsDeleted() bool {
	return m.DeletedAt != nil
}
