package types

import "time"

// Snapshot is one stored copy of the reference content fragment.
type Snapshot struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	ContentHash string    `json:"content_hash"`
	Size        int       `json:"size"`
	HTML        string    `json:"html,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Run records one generation against a snapshot.
type Run struct {
	ID              int64     `json:"id"`
	SnapshotID      string    `json:"snapshot_id"`
	Catalogue       string    `json:"catalogue"`
	Format          string    `json:"format"`
	Status          string    `json:"status"`
	TypeCount       int       `json:"type_count"`
	MethodCount     int       `json:"method_count"`
	DiagnosticCount int       `json:"diagnostic_count"`
	CreatedAt       time.Time `json:"created_at"`
}
