package model

import (
	"sync"
	"time"
)

// AnalysisMetrics represents overall metrics for one analysis run.
type AnalysisMetrics struct {
	TotalRecords       int64                   `json:"total_records"`
	FilteredRecords    int64                   `json:"filtered_records"`
	IndependentRecords int64                   `json:"independent_records"`
	ErrorCount         int64                   `json:"error_count"`
	ProcessingTime     time.Duration           `json:"processing_time"`
	ThroughputRPS      float64                 `json:"throughput_rps"`
	StageMetrics       map[string]StageMetrics `json:"stage_metrics"`
}

// StageMetrics represents metrics for a specific pipeline stage.
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	ErrorCount       int64         `json:"error_count"`
}

// ErrorDetail represents a detailed error with context.
type ErrorDetail struct {
	Stage     string    `json:"stage"`
	ErrorType string    `json:"error_type"`
	Message   string    `json:"message"`
	SourceURL string    `json:"source_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalysisTracker tracks execution of one analysis job.
type AnalysisTracker struct {
	JobID        string                  `json:"job_id"`
	Job          AnalysisJobSpec         `json:"job"`
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	Status       string                  `json:"status"`
	StageMetrics map[string]StageMetrics `json:"stage_metrics"`
	Errors       []ErrorDetail           `json:"errors"`
	Mutex        sync.RWMutex            `json:"-"`
}
