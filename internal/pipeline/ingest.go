package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"camtrap-pipeline/internal/model"
)

// RawRecord is one row of an observation table before deployment derivation
// and target-column selection. Time is zero when the datetime cell was
// empty; such rows are dropped later by the filter stage.
type RawRecord struct {
	Path       string
	Time       time.Time
	Species    string
	Individual string
	SourceURL  string
}

// ------------------- Ingestion -------------------

// IngestSources reads all observation sources in parallel and returns them
// as a single batch. Any malformed source — a missing required column or an
// unparseable datetime cell — fails the whole ingestion; the independence
// engine never receives half-parsed data.
func IngestSources(ctx context.Context, sources []model.Source, bufferSize, retry int) ([]RawRecord, error) {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	out := make(chan RawRecord, bufferSize)
	errCh := make(chan error, len(sources))

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(s model.Source) {
			defer wg.Done()
			fmt.Printf("➡️ Starting ingestion for source: %s (%s)\n", s.URL, s.Type)
			if err := ingestSource(ctx, s, out, retry); err != nil {
				errCh <- fmt.Errorf("source %s: %w", s.URL, err)
				return
			}
			fmt.Printf("✅ Finished ingestion for source: %s (%s)\n", s.URL, s.Type)
		}(src)
	}

	go func() {
		wg.Wait()
		close(out)
		close(errCh)
	}()

	var batch []RawRecord
	for rec := range out {
		batch = append(batch, rec)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return batch, nil
}

func ingestSource(ctx context.Context, source model.Source, out chan<- RawRecord, retry int) error {
	switch strings.ToLower(source.Type) {
	case "", "csv":
		return ingestCSV(ctx, source.URL, out, retry)
	case "json", "api":
		return ingestJSON(ctx, source.URL, out, retry)
	default:
		return fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// ------------------- CSV Ingestion -------------------

func ingestCSV(ctx context.Context, pathOrURL string, out chan<- RawRecord, retry int) error {
	var reader io.Reader
	if strings.HasPrefix(pathOrURL, "http") {
		resp, err := httpGetWithRetry(pathOrURL, retry)
		if err != nil {
			return fmt.Errorf("failed to GET CSV: %w", err)
		}
		defer resp.Body.Close()
		reader = resp.Body
	} else {
		file, err := os.Open(pathOrURL)
		if err != nil {
			return fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()
		reader = file
	}
	return ReadObservationCSV(ctx, reader, pathOrURL, out)
}

// ReadObservationCSV parses one observation table. The path column is
// required; the timestamp may live in "datetime" or the older
// "datetime_original"; "species" and "individual" are optional and default
// to empty.
func ReadObservationCSV(ctx context.Context, reader io.Reader, sourceURL string, out chan<- RawRecord) error {
	csvReader := csv.NewReader(reader)
	csvReader.LazyQuotes = true
	headers, err := csvReader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(headers))
	for i, h := range headers {
		clean := strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		clean = strings.ReplaceAll(clean, `"`, "")
		columns[strings.ToLower(clean)] = i
	}

	pathIdx, ok := columns["path"]
	if !ok {
		return fmt.Errorf("missing required column %q", "path")
	}
	timeIdx, ok := columns["datetime"]
	if !ok {
		// Older tables use datetime_original.
		if timeIdx, ok = columns["datetime_original"]; !ok {
			return fmt.Errorf("missing required column %q (or %q)", "datetime", "datetime_original")
		}
	}
	speciesIdx, hasSpecies := columns["species"]
	individualIdx, hasIndividual := columns["individual"]

	cell := func(row []string, idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	recordCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		row, err := csvReader.Read()
		if err == io.EOF {
			fmt.Printf("📄 CSV ingestion done: %d records read from %s\n", recordCount, sourceURL)
			return nil
		} else if err != nil {
			return fmt.Errorf("CSV read error: %w", err)
		}

		rec := RawRecord{Path: cell(row, pathIdx), SourceURL: sourceURL}
		if hasSpecies {
			rec.Species = cell(row, speciesIdx)
		}
		if hasIndividual {
			rec.Individual = cell(row, individualIdx)
		}
		if raw := cell(row, timeIdx); raw != "" {
			rec.Time, err = time.Parse(model.TimeLayout, raw)
			if err != nil {
				return fmt.Errorf("datetime column parsing failed on %q: ensure the datetime format matches the pattern 'yyyy-MM-dd HH:mm:ss'", raw)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- rec:
			recordCount++
		}
	}
}

// ------------------- JSON / API Ingestion -------------------

func ingestJSON(ctx context.Context, url string, out chan<- RawRecord, retry int) error {
	resp, err := httpGetWithRetry(url, retry)
	if err != nil {
		return fmt.Errorf("failed to GET JSON: %w", err)
	}
	defer resp.Body.Close()

	var rows []struct {
		Path       string `json:"path"`
		Datetime   string `json:"datetime"`
		Species    string `json:"species"`
		Individual string `json:"individual"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, row := range rows {
		rec := RawRecord{Path: row.Path, Species: row.Species, Individual: row.Individual, SourceURL: url}
		if raw := strings.TrimSpace(row.Datetime); raw != "" {
			rec.Time, err = time.Parse(model.TimeLayout, raw)
			if err != nil {
				return fmt.Errorf("datetime field parsing failed on %q: ensure the datetime format matches the pattern 'yyyy-MM-dd HH:mm:ss'", raw)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- rec:
		}
	}
	fmt.Printf("🌐 JSON ingestion done: %d records read from %s\n", len(rows), url)
	return nil
}

// httpGetWithRetry retries transient fetch failures; everything past
// ingestion is deterministic and never retried.
func httpGetWithRetry(url string, attempts int) (*http.Response, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * time.Second)
		}
		resp, err := http.Get(url)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned %s", resp.Status)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// ------------------- Observation assembly -------------------

// PathLevels splits a resource path into its segments, normalizing Windows
// separators. Used to let the user pick which level names the deployment.
func PathLevels(path string) []string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	var levels []string
	for _, seg := range strings.Split(normalized, "/") {
		if seg != "" {
			levels = append(levels, seg)
		}
	}
	return levels
}

// BuildObservations derives the flat analysis table from raw rows: the
// deployment is the configured path segment, the tag is the configured
// target column. Rows ending up with empty key fields survive here and are
// dropped by the filter stage.
func BuildObservations(records []RawRecord, target model.Target, deployPathIndex int) []model.Observation {
	obs := make([]model.Observation, 0, len(records))
	for _, rec := range records {
		levels := PathLevels(rec.Path)
		deployment := ""
		if deployPathIndex < len(levels) {
			deployment = levels[deployPathIndex]
		}
		tag := rec.Species
		if target == model.TargetIndividual {
			tag = rec.Individual
		}
		obs = append(obs, model.Observation{
			Path:       rec.Path,
			Deployment: deployment,
			Tag:        tag,
			Time:       rec.Time,
		})
	}
	return obs
}
