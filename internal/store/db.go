package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"camtrap-pipeline/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

// InitDB opens the sqlite job store and creates the schema.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			spec TEXT,
			status TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS job_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT,
			error_message TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS stage_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT,
			stage TEXT,
			status TEXT,
			started_at DATETIME,
			ended_at DATETIME,
			records_processed INTEGER,
			error_count INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS pipeline_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT,
			stage TEXT,
			level TEXT,
			message TEXT,
			fields TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS count_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT,
			table_name TEXT,
			deployment TEXT,
			tag TEXT,
			count INTEGER,
			created_at DATETIME
		);`,
	}
	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

// CloseDB closes the store connection.
func CloseDB() error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// SaveJob stores a new analysis job.
func SaveJob(jobID string, spec model.AnalysisJobSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO jobs (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		jobID, specJSON, "pending", now, now)
	return err
}

// SaveJobError records an error for a job.
func SaveJobError(jobID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO job_errors (job_id, error_message, created_at) VALUES (?, ?, ?)`,
		jobID, err.Error(), now)
	return e
}

// GetJobErrors returns the recorded errors of a job, newest first.
func GetJobErrors(jobID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT error_message, created_at FROM job_errors WHERE job_id = ? ORDER BY created_at DESC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errorRows []map[string]interface{}
	for rows.Next() {
		var message string
		var createdAt time.Time
		if err := rows.Scan(&message, &createdAt); err != nil {
			return nil, err
		}
		errorRows = append(errorRows, map[string]interface{}{
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return errorRows, rows.Err()
}

// ListJobs returns all jobs with basic info.
func ListJobs() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return jobs, rows.Err()
}

// GetJob fetches full job spec and status.
func GetJob(jobID string) (map[string]interface{}, error) {
	var specJSON string
	var status string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT spec, status, created_at, updated_at FROM jobs WHERE id = ?`, jobID).
		Scan(&specJSON, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var spec model.AnalysisJobSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        jobID,
		"spec":      spec,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}, nil
}

// UpdateJobStatus updates job status.
func UpdateJobStatus(jobID string, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`, status, now, jobID)
	return err
}

// DeleteJob removes a job and its dependent rows.
func DeleteJob(jobID string) error {
	for _, stmt := range []string{
		`DELETE FROM count_results WHERE job_id = ?`,
		`DELETE FROM pipeline_logs WHERE job_id = ?`,
		`DELETE FROM stage_progress WHERE job_id = ?`,
		`DELETE FROM job_errors WHERE job_id = ?`,
		`DELETE FROM jobs WHERE id = ?`,
	} {
		if _, err := db.Exec(stmt, jobID); err != nil {
			return err
		}
	}
	return nil
}

// SaveStageProgress records a stage transition for a job.
func SaveStageProgress(jobID, stage, status string, startedAt, endedAt *time.Time, recordsProcessed, errorCount int) error {
	_, err := db.Exec(`INSERT INTO stage_progress (job_id, stage, status, started_at, ended_at, records_processed, error_count) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		jobID, stage, status, startedAt, endedAt, recordsProcessed, errorCount)
	return err
}

// GetStageProgress returns stage progress rows of a job in insertion order.
func GetStageProgress(jobID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT stage, status, started_at, ended_at, records_processed, error_count FROM stage_progress WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []map[string]interface{}
	for rows.Next() {
		var stage, status string
		var startedAt, endedAt sql.NullTime
		var recordsProcessed, errorCount int
		if err := rows.Scan(&stage, &status, &startedAt, &endedAt, &recordsProcessed, &errorCount); err != nil {
			return nil, err
		}
		row := map[string]interface{}{
			"stage":            stage,
			"status":           status,
			"recordsProcessed": recordsProcessed,
			"errorCount":       errorCount,
		}
		if startedAt.Valid {
			row["startedAt"] = startedAt.Time
		}
		if endedAt.Valid {
			row["endedAt"] = endedAt.Time
		}
		progress = append(progress, row)
	}
	return progress, rows.Err()
}

// SavePipelineLog records one structured log row for a job stage.
func SavePipelineLog(jobID, stage, level, message string, fields map[string]interface{}) error {
	fieldsJSON := []byte("{}")
	if fields != nil {
		var err error
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO pipeline_logs (job_id, stage, level, message, fields, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, stage, level, message, fieldsJSON, now)
	return err
}

// GetPipelineLogs returns log rows of a job in insertion order.
func GetPipelineLogs(jobID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT stage, level, message, fields, created_at FROM pipeline_logs WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []map[string]interface{}
	for rows.Next() {
		var stage, level, message, fieldsJSON string
		var createdAt time.Time
		if err := rows.Scan(&stage, &level, &message, &fieldsJSON, &createdAt); err != nil {
			return nil, err
		}
		var fields map[string]interface{}
		if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
			fields = nil
		}
		logs = append(logs, map[string]interface{}{
			"stage":     stage,
			"level":     level,
			"message":   message,
			"fields":    fields,
			"createdAt": createdAt,
		})
	}
	return logs, rows.Err()
}

// SaveCountResult persists one aggregated count row for a job.
func SaveCountResult(jobID, tableName string, row model.CountRow) error {
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO count_results (job_id, table_name, deployment, tag, count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, tableName, row.Deployment, row.Tag, row.Count, now)
	return err
}

// GetCountResults returns persisted count rows of a job, grouped by table.
func GetCountResults(jobID string) (map[string][]model.CountRow, error) {
	rows, err := db.Query(`SELECT table_name, deployment, tag, count FROM count_results WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make(map[string][]model.CountRow)
	for rows.Next() {
		var tableName string
		var row model.CountRow
		if err := rows.Scan(&tableName, &row.Deployment, &row.Tag, &row.Count); err != nil {
			return nil, err
		}
		results[tableName] = append(results[tableName], row)
	}
	return results, rows.Err()
}
