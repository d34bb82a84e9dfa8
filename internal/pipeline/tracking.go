package pipeline

import (
	"time"

	"camtrap-pipeline/internal/model"
)

// NewAnalysisTracker creates the in-memory tracker for one analysis run.
func NewAnalysisTracker(jobID string, job model.AnalysisJobSpec) *model.AnalysisTracker {
	return &model.AnalysisTracker{
		JobID:        jobID,
		Job:          job,
		StartTime:    time.Now(),
		Status:       "running",
		StageMetrics: make(map[string]model.StageMetrics),
	}
}

// StartStage records the beginning of a pipeline stage.
func StartStage(t *model.AnalysisTracker, stage string) {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	t.StageMetrics[stage] = model.StageMetrics{
		StageName: stage,
		StartTime: time.Now(),
	}
}

// EndStage records the completion of a pipeline stage and the number of
// records it processed.
func EndStage(t *model.AnalysisTracker, stage string, recordsProcessed int64) {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	m, ok := t.StageMetrics[stage]
	if !ok {
		m = model.StageMetrics{StageName: stage, StartTime: time.Now()}
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.RecordsProcessed = recordsProcessed
	t.StageMetrics[stage] = m
}

// RecordError appends an error detail and bumps the stage error counter.
func RecordError(t *model.AnalysisTracker, stage, errorType, message, sourceURL string) {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	t.Errors = append(t.Errors, model.ErrorDetail{
		Stage:     stage,
		ErrorType: errorType,
		Message:   message,
		SourceURL: sourceURL,
		Timestamp: time.Now(),
	})
	if m, ok := t.StageMetrics[stage]; ok {
		m.ErrorCount++
		t.StageMetrics[stage] = m
	}
}

// Complete marks the run finished.
func Complete(t *model.AnalysisTracker, status string) {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	t.EndTime = time.Now()
	t.Status = status
}

// Metrics builds the overall metrics snapshot for the API.
func Metrics(t *model.AnalysisTracker) model.AnalysisMetrics {
	t.Mutex.RLock()
	defer t.Mutex.RUnlock()

	metrics := model.AnalysisMetrics{
		StageMetrics: make(map[string]model.StageMetrics, len(t.StageMetrics)),
		ErrorCount:   int64(len(t.Errors)),
	}
	for name, m := range t.StageMetrics {
		metrics.StageMetrics[name] = m
	}
	if m, ok := t.StageMetrics["ingestion"]; ok {
		metrics.TotalRecords = m.RecordsProcessed
	}
	if m, ok := t.StageMetrics["filtering"]; ok {
		metrics.FilteredRecords = m.RecordsProcessed
	}
	if m, ok := t.StageMetrics["classification"]; ok {
		metrics.IndependentRecords = m.RecordsProcessed
	}

	end := t.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	metrics.ProcessingTime = end.Sub(t.StartTime)
	if secs := metrics.ProcessingTime.Seconds(); secs > 0 {
		metrics.ThroughputRPS = float64(metrics.TotalRecords) / secs
	}
	return metrics
}
