package match

import "github.com/hpungsan/sparetime/internal/frame"

// ExportRecord is one line of a JSONL export: either the header or a match with
// its frames.
type ExportRecord struct {
	// Header detection field - true only for header line
	SparetimeExport bool `json:"_sparetime_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	DatePlayed int64          `json:"date_played"`
	TotalScore int            `json:"total_score"` // IGNORED on import, recomputed
	Lane       *int           `json:"lane"`
	Location   *string        `json:"location"`
	Notes      *string        `json:"notes"`
	Frames     []frame.Record `json:"frames"`
	CreatedAt  int64          `json:"created_at"`
	UpdatedAt  int64          `json:"updated_at"`
	DeletedAt  *int64         `json:"deleted_at"`
}

// ToMatch converts an ExportRecord to a Match. TotalScore is left for the
// importer to recompute from the frames.
func (r *ExportRecord) ToMatch() *Match {
	return &Match{
		ID:         r.ID,
		UserID:     r.UserID,
		DatePlayed: r.DatePlayed,
		Lane:       r.Lane,
		Location:   r.Location,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		DeletedAt:  r.DeletedAt,
	}
}

// ToExportRecord converts a match and its stored frames for export.
func ToExportRecord(m *Match, frames []frame.Record) *ExportRecord {
	if frames == nil {
		frames = []frame.Record{}
	}
	return &ExportRecord{
		ID:         m.ID,
		UserID:     m.UserID,
		DatePlayed: m.DatePlayed,
		TotalScore: m.TotalScore,
		Lane:       m.Lane,
		Location:   m.Location,
		Notes:      m.Notes,
		Frames:     frames,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		DeletedAt:  m.DeletedAt,
	}
}
