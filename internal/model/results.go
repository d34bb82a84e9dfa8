package model

import "time"

// EventRecord is a raw (filtered but not deduplicated) observation labelled
// with the independent event it belongs to. EventID is nil when no
// independent event of the same (deployment, tag) exists at or before the
// record's time.
type EventRecord struct {
	Observation
	EventID *int `json:"event_id"`
}

// CountRow is one row of an aggregated count table. Deployment is empty in
// the global per-tag summary.
type CountRow struct {
	Deployment string `json:"deployment,omitempty"`
	Tag        string `json:"tag"`
	Count      int    `json:"count"`
}

// ExportResult represents the outcome of writing one output artifact.
type ExportResult struct {
	Type        string    `json:"type"` // "file" or "database"
	Path        string    `json:"path"` // file path or table name
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ExportedAt  time.Time `json:"exported_at"`
}

// AnalysisResult bundles everything one pipeline run produces.
type AnalysisResult struct {
	Independent       []Observation  `json:"independent"`
	Events            []EventRecord  `json:"events,omitempty"`
	CountByDeployment []CountRow     `json:"count_by_deployment"`
	CountAll          []CountRow     `json:"count_all,omitempty"`
	Exports           []ExportResult `json:"exports,omitempty"`
}
