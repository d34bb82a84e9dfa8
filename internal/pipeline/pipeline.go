package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"camtrap-pipeline/internal/model"
	"camtrap-pipeline/internal/store"
	"camtrap-pipeline/pkg/utils"
)

// trackers holds the in-memory tracker of every run this process started,
// so the API can serve live metrics and progress.
var (
	trackersMu sync.RWMutex
	trackers   = make(map[string]*model.AnalysisTracker)
)

// GetTracker returns the tracker for a job, if this process ran it.
func GetTracker(jobID string) (*model.AnalysisTracker, bool) {
	trackersMu.RLock()
	defer trackersMu.RUnlock()
	t, ok := trackers[jobID]
	return t, ok
}

// ------------------- Pipeline Runner -------------------

// Run executes one temporal independence analysis end to end:
// ingest → filter → dedupe/sort → classify → (events) → aggregate → export.
// All parameters are validated before any stage runs; validation failures
// write no output files.
func Run(ctx context.Context, jobID string, job model.AnalysisJobSpec) (result *model.AnalysisResult, err error) {
	start := time.Now()
	fmt.Printf("🚀 Starting analysis for job: %s\n", jobID)

	tracker := NewAnalysisTracker(jobID, job)
	trackersMu.Lock()
	trackers[jobID] = tracker
	trackersMu.Unlock()

	store.UpdateJobStatus(jobID, "running")
	defer func() {
		if err != nil {
			store.UpdateJobStatus(jobID, "failed")
			store.SaveJobError(jobID, err)
			Complete(tracker, "failed")
		} else {
			store.UpdateJobStatus(jobID, "completed")
			Complete(tracker, "completed")
			fmt.Printf("🏁 Analysis completed for job: %s in %v\n", jobID, time.Since(start))
		}
	}()

	// Parameter validation happens before any stage runs.
	if err := job.Validate(); err != nil {
		return nil, err
	}
	policy, target, _ := job.Analysis.Validate()
	if job.Analysis.MinDeltaTime > model.OneWeekMinutes {
		fmt.Printf("Note: %d minutes is unusually large (> 1 week)\n", job.Analysis.MinDeltaTime)
	}
	minDelta := model.MinutesToDuration(job.Analysis.MinDeltaTime)

	timeout := utils.ParseDuration(job.Concurrency.JobTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// --- INGESTION STAGE ---
	store.UpdateJobStatus(jobID, "ingesting")
	StartStage(tracker, "ingestion")
	ingestStart := time.Now()
	store.SaveStageProgress(jobID, "ingestion", "started", &ingestStart, nil, 0, 0)
	store.SavePipelineLog(jobID, "ingestion", "info", "Starting ingestion stage", map[string]interface{}{
		"sources_count": len(job.Sources),
	})

	raw, err := IngestSources(ctx, job.Sources, job.Concurrency.ChannelBufferSize, job.Concurrency.APIRetry)
	if err != nil {
		RecordError(tracker, "ingestion", "ingestion_error", err.Error(), "")
		store.SavePipelineLog(jobID, "ingestion", "error", err.Error(), nil)
		return nil, err
	}
	ingestEnd := time.Now()
	EndStage(tracker, "ingestion", int64(len(raw)))
	store.SaveStageProgress(jobID, "ingestion", "completed", &ingestStart, &ingestEnd, len(raw), 0)

	observations := BuildObservations(raw, target, job.Analysis.DeployPathIndex)

	// --- FILTERING STAGE ---
	store.UpdateJobStatus(jobID, "filtering")
	StartStage(tracker, "filtering")
	filtered := FilterObservations(observations, job.Analysis.ExcludeSet(), job.Analysis.NoExclude)
	EndStage(tracker, "filtering", int64(len(filtered)))
	store.SavePipelineLog(jobID, "filtering", "info", "Filtering stage completed", map[string]interface{}{
		"records_in":  len(observations),
		"records_out": len(filtered),
	})

	// --- DEDUP & SORT STAGE ---
	StartStage(tracker, "sorting")
	prepared, err := PrepareObservations(filtered)
	if err != nil {
		RecordError(tracker, "sorting", "empty_input", err.Error(), "")
		store.SavePipelineLog(jobID, "sorting", "error", err.Error(), nil)
		return nil, err
	}
	EndStage(tracker, "sorting", int64(len(prepared)))

	// --- CLASSIFICATION STAGE ---
	store.UpdateJobStatus(jobID, "classifying")
	StartStage(tracker, "classification")
	independent, err := ClassifyIndependence(prepared, policy, minDelta)
	if err != nil {
		RecordError(tracker, "classification", "classification_error", err.Error(), "")
		return nil, err
	}
	EndStage(tracker, "classification", int64(len(independent)))
	store.SavePipelineLog(jobID, "classification", "info", "Classification stage completed", map[string]interface{}{
		"policy":      string(policy),
		"min_delta":   job.Analysis.MinDeltaTime,
		"independent": len(independent),
	})
	fmt.Printf("🔬 Classification: %d of %d records independent (%s, %dm)\n",
		len(independent), len(prepared), policy.Abbrev(), job.Analysis.MinDeltaTime)

	result = &model.AnalysisResult{Independent: independent}

	// --- EVENT ASSIGNMENT ---
	if job.Analysis.Event {
		StartStage(tracker, "events")
		result.Events = AssignEvents(filtered, independent)
		EndStage(tracker, "events", int64(len(result.Events)))
	}

	// --- AGGREGATION STAGE ---
	store.UpdateJobStatus(jobID, "aggregating")
	StartStage(tracker, "aggregation")
	result.CountByDeployment, result.CountAll = Aggregate(independent, target)
	EndStage(tracker, "aggregation", int64(len(result.CountByDeployment)))

	// --- EXPORT STAGE ---
	store.UpdateJobStatus(jobID, "exporting")
	StartStage(tracker, "export")
	baseDir := "exports"
	if job.Export != nil && job.Export.Dir != "" {
		baseDir = job.Export.Dir
	}
	outputDir, err := utils.NewOutputManager(baseDir).CreateJobOutputDir(jobID)
	if err != nil {
		return nil, err
	}
	em := &ExportManager{JobID: jobID, OutputDir: outputDir, ExportSpec: job.Export}
	result.Exports = em.ExportAnalysis(result, target, job.Analysis.MinDeltaTime, policy)
	exported := 0
	for _, exp := range result.Exports {
		if !exp.Success {
			RecordError(tracker, "export", "export_error", exp.Error, "")
			return nil, fmt.Errorf("export to %s failed: %s", exp.Path, exp.Error)
		}
		exported += exp.RecordCount
	}
	EndStage(tracker, "export", int64(exported))
	store.SavePipelineLog(jobID, "export", "info", "Export stage completed", map[string]interface{}{
		"output_dir": outputDir,
		"files":      len(result.Exports),
	})

	return result, nil
}
