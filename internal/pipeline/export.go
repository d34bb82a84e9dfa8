package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"camtrap-pipeline/internal/model"
	"camtrap-pipeline/internal/store"
)

// utf8BOM is prepended to every output file so spreadsheet tools detect the
// encoding of species names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// OutputSuffix builds the parameter-carrying filename suffix, e.g.
// "_species_30m_LIR.csv".
func OutputSuffix(target model.Target, minDeltaTime int, policy model.Policy) string {
	return fmt.Sprintf("_%s_%dm_%s.csv", target, minDeltaTime, policy.Abbrev())
}

// ExportManager writes the result tables of one analysis run.
type ExportManager struct {
	JobID      string
	OutputDir  string
	ExportSpec *model.Export
	Results    []model.ExportResult
}

// ExportAnalysis writes all requested outputs for a finished run: the
// independence table, the optional event table, the per-deployment counts
// and, for species analyses, the global counts. When the job's export spec
// names a database, count rows are persisted there as well.
func (em *ExportManager) ExportAnalysis(result *model.AnalysisResult, target model.Target, minDeltaTime int, policy model.Policy) []model.ExportResult {
	suffix := OutputSuffix(target, minDeltaTime, policy)

	em.record(em.writeObservationCSV("temporal-independence"+suffix, result.Independent))
	if result.Events != nil {
		em.record(em.writeEventCSV("events"+suffix, result.Events))
	}
	em.record(em.writeCountCSV("count_by_deployment.csv", result.CountByDeployment, true))
	if result.CountAll != nil {
		em.record(em.writeCountCSV("count_all.csv", result.CountAll, false))
	}

	if em.ExportSpec != nil && em.ExportSpec.DB != "" {
		em.record(em.exportCountsToDatabase(result.CountByDeployment, result.CountAll))
	}
	return em.Results
}

func (em *ExportManager) record(result model.ExportResult) {
	if result.Success {
		fmt.Printf("💾 Saved %d records to %s\n", result.RecordCount, result.Path)
	} else {
		fmt.Printf("❌ Export to %s failed: %s\n", result.Path, result.Error)
	}
	em.Results = append(em.Results, result)
}

func (em *ExportManager) createOutputFile(name string) (*os.File, string, error) {
	if err := os.MkdirAll(em.OutputDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(em.OutputDir, name)
	file, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, "", fmt.Errorf("failed to write BOM: %w", err)
	}
	return file, path, nil
}

func (em *ExportManager) writeObservationCSV(name string, rows []model.Observation) model.ExportResult {
	return em.writeCSV(name, len(rows), []string{"path", "deployment", "time", "tag"}, func(w *csv.Writer) error {
		for _, o := range rows {
			if err := w.Write([]string{o.Path, o.Deployment, o.Time.Format(model.TimeLayout), o.Tag}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (em *ExportManager) writeEventCSV(name string, rows []model.EventRecord) model.ExportResult {
	return em.writeCSV(name, len(rows), []string{"path", "deployment", "time", "tag", "event_id"}, func(w *csv.Writer) error {
		for _, r := range rows {
			eventID := ""
			if r.EventID != nil {
				eventID = strconv.Itoa(*r.EventID)
			}
			if err := w.Write([]string{r.Path, r.Deployment, r.Time.Format(model.TimeLayout), r.Tag, eventID}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (em *ExportManager) writeCountCSV(name string, rows []model.CountRow, withDeployment bool) model.ExportResult {
	header := []string{"tag", "count"}
	if withDeployment {
		header = []string{"deployment", "tag", "count"}
	}
	return em.writeCSV(name, len(rows), header, func(w *csv.Writer) error {
		for _, r := range rows {
			row := []string{r.Tag, strconv.Itoa(r.Count)}
			if withDeployment {
				row = []string{r.Deployment, r.Tag, strconv.Itoa(r.Count)}
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (em *ExportManager) writeCSV(name string, recordCount int, header []string, body func(*csv.Writer) error) model.ExportResult {
	result := model.ExportResult{Type: "file", RecordCount: recordCount, ExportedAt: time.Now()}

	file, path, err := em.createOutputFile(name)
	if err != nil {
		result.Path = filepath.Join(em.OutputDir, name)
		result.Error = err.Error()
		return result
	}
	defer file.Close()
	result.Path = path

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err == nil {
		err = body(writer)
		writer.Flush()
		if err == nil {
			err = writer.Error()
		}
	} else {
		writer.Flush()
	}
	if err != nil {
		result.Error = fmt.Sprintf("failed to write rows: %v", err)
		return result
	}
	result.Success = true
	return result
}

// exportCountsToDatabase stores count rows in the job store so the API can
// serve them without re-reading result files.
func (em *ExportManager) exportCountsToDatabase(byDeployment, all []model.CountRow) model.ExportResult {
	result := model.ExportResult{Type: "database", Path: "count_results", ExportedAt: time.Now()}

	var lastErr error
	for _, row := range byDeployment {
		if err := store.SaveCountResult(em.JobID, "count_by_deployment", row); err != nil {
			lastErr = err
			continue
		}
		result.RecordCount++
	}
	for _, row := range all {
		if err := store.SaveCountResult(em.JobID, "count_all", row); err != nil {
			lastErr = err
			continue
		}
		result.RecordCount++
	}

	if lastErr != nil {
		result.Error = lastErr.Error()
		return result
	}
	result.Success = true
	return result
}
