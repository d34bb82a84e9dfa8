package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"camtrap-pipeline/internal/model"
	"camtrap-pipeline/internal/pipeline"
	"camtrap-pipeline/internal/store"
	"camtrap-pipeline/pkg/utils"

	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func baseOutputDir(spec *model.AnalysisJobSpec) string {
	if spec != nil && spec.Export != nil && spec.Export.Dir != "" {
		return spec.Export.Dir
	}
	return "exports"
}

func jobSpec(jobID string) (*model.AnalysisJobSpec, error) {
	job, err := store.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	spec, ok := job["spec"].(model.AnalysisJobSpec)
	if !ok {
		return nil, fmt.Errorf("job %s has no spec", jobID)
	}
	return &spec, nil
}

// CreateAnalysis creates a new temporal independence analysis job
// @Summary Create a new analysis
// @Description Submit an observation analysis job; it runs asynchronously
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis body model.AnalysisJobSpec true "Analysis job configuration"
// @Success 200 {object} map[string]interface{} "Analysis created successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses [post]
func CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var job model.AnalysisJobSpec
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	// Reject bad parameters before the job exists; nothing is written for
	// invalid submissions.
	if err := job.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobID := uuid.New().String()
	if err := store.SaveJob(jobID, job); err != nil {
		http.Error(w, "Failed to save job", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.ParseDuration(job.Concurrency.JobTimeout))
	go func() {
		defer cancel()
		// Run records its own failure status and error rows.
		pipeline.Run(ctx, jobID, job)
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Analysis created successfully!",
		"jobID":     jobID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	})
}

// ListAnalyses retrieves all analysis jobs
// @Summary List all analyses
// @Description Get a list of all analysis jobs with their current status
// @Tags analyses
// @Produce json
// @Success 200 {array} map[string]interface{} "List of analyses"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses [get]
func ListAnalyses(w http.ResponseWriter, r *http.Request) {
	jobs, err := store.ListJobs()
	if err != nil {
		http.Error(w, "Failed to fetch analyses", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GetAnalysis retrieves a specific analysis job
// @Summary Get analysis
// @Description Retrieve spec and status of a specific analysis job
// @Tags analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} map[string]interface{} "Analysis details"
// @Failure 404 {object} map[string]interface{} "Analysis not found"
// @Router /analyses/{id} [get]
func GetAnalysis(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, err := store.GetJob(jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Analysis not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch analysis", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GetAnalysisErrors retrieves errors recorded for an analysis job
// @Summary Get analysis errors
// @Tags analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {array} map[string]interface{} "Error rows"
// @Router /analyses/{id}/errors [get]
func GetAnalysisErrors(w http.ResponseWriter, r *http.Request) {
	errorRows, err := store.GetJobErrors(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Failed to fetch errors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, errorRows)
}

// GetAnalysisResults retrieves persisted count results of an analysis job
// @Summary Get analysis results
// @Description Count tables persisted to the store when database export was requested
// @Tags analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} map[string][]model.CountRow "Count tables"
// @Router /analyses/{id}/results [get]
func GetAnalysisResults(w http.ResponseWriter, r *http.Request) {
	results, err := store.GetCountResults(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// GetAnalysisLogs retrieves pipeline log rows of an analysis job
// @Summary Get analysis logs
// @Tags analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {array} map[string]interface{} "Log rows"
// @Router /analyses/{id}/logs [get]
func GetAnalysisLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := store.GetPipelineLogs(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Failed to fetch logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// GetAnalysisProgress retrieves stage progress of an analysis job
// @Summary Get analysis progress
// @Tags analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {array} map[string]interface{} "Stage progress rows"
// @Router /analyses/{id}/progress [get]
func GetAnalysisProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := store.GetStageProgress(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Failed to fetch progress", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// GetAnalysisMetrics retrieves live metrics of an analysis run
// @Summary Get analysis metrics
// @Description In-memory stage metrics; only available in the process that ran the job
// @Tags analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} model.AnalysisMetrics "Metrics"
// @Failure 404 {object} map[string]interface{} "No tracker for this job"
// @Router /analyses/{id}/metrics [get]
func GetAnalysisMetrics(w http.ResponseWriter, r *http.Request) {
	tracker, ok := pipeline.GetTracker(r.PathValue("id"))
	if !ok {
		http.Error(w, "No metrics for this analysis", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, pipeline.Metrics(tracker))
}

// GetAnalysisFiles lists result files of an analysis job
// @Summary List result files
// @Tags analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {array} map[string]interface{} "Result files with download URLs"
// @Router /analyses/{id}/files [get]
func GetAnalysisFiles(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	spec, err := jobSpec(jobID)
	if err != nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	om := utils.NewOutputManager(baseOutputDir(spec))
	entries, err := om.ListJobFiles(jobID)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, []map[string]interface{}{})
			return
		}
		http.Error(w, "Failed to list files", http.StatusInternalServerError)
		return
	}

	files := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, map[string]interface{}{
			"name":        entry.Name(),
			"size":        info.Size(),
			"downloadURL": om.GetDownloadURL(jobID, entry.Name()),
		})
	}
	writeJSON(w, http.StatusOK, files)
}

// DownloadFile streams one result CSV of an analysis job
// @Summary Download a result file
// @Tags analyses
// @Produce text/csv
// @Param id path string true "Analysis ID"
// @Param file path string true "Result file name"
// @Success 200 {file} file "Result file"
// @Failure 404 {object} map[string]interface{} "File not found"
// @Router /download/{id}/{file} [get]
func DownloadFile(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	fileName := filepath.Base(r.PathValue("file"))

	spec, err := jobSpec(jobID)
	if err != nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(baseOutputDir(spec), jobID, fileName)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	http.ServeFile(w, r, path)
}

// DeleteAnalysis removes an analysis job record
// @Summary Delete analysis
// @Description Delete a job and its stored rows; running jobs are refused
// @Tags analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} map[string]interface{} "Deleted"
// @Failure 409 {object} map[string]interface{} "Analysis still running"
// @Router /analyses/{id} [delete]
func DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, err := store.GetJob(jobID)
	if err != nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}
	if status, _ := job["status"].(string); status != "completed" && status != "failed" && status != "pending" {
		http.Error(w, "Analysis is still running", http.StatusConflict)
		return
	}
	if err := store.DeleteJob(jobID); err != nil {
		http.Error(w, "Failed to delete analysis", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Analysis deleted", "jobID": jobID})
}
