package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"camtrap-pipeline/internal/model"
	"camtrap-pipeline/internal/pipeline"
	"camtrap-pipeline/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// captureCommand runs a temporal independence analysis over one or more
// observation tables.
func captureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture [tags.csv ...]",
		Short: "Derive temporally independent detection events",
		Long: `Analyze observation tables for temporal independence: sequential
detections of the same tag at the same deployment within the minimum time
difference collapse into one event. Writes the independence table, the
optional event table and the count summaries.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCapture,
	}

	cmd.Flags().IntP("min-delta-time", "m", 30, "minimum time difference in minutes for records to count as independent")
	cmd.Flags().StringP("policy", "p", string(model.PolicyLastIndependentRecord), "comparison policy: LastIndependentRecord or LastRecord")
	cmd.Flags().StringP("target", "t", string(model.TargetSpecies), "tag column to analyze: species or individual")
	cmd.Flags().Bool("no-exclude", false, "keep administrative tags (Blank, Human, ...) in the analysis")
	cmd.Flags().BoolP("event", "e", false, "also assign event IDs to all raw records")
	cmd.Flags().IntP("deployment-index", "d", -1, "0-based path segment holding the deployment name")
	cmd.Flags().StringP("output", "o", "exports", "base output directory")

	for _, key := range []string{"min-delta-time", "policy", "target", "no-exclude", "event", "deployment-index", "output"} {
		viper.BindPFlag(key, cmd.Flags().Lookup(key))
	}
	return cmd
}

func runCapture(cmd *cobra.Command, args []string) error {
	deployIndex := viper.GetInt("deployment-index")
	if deployIndex < 0 {
		// No deployment level chosen yet: show the user what the path
		// segments of their table look like, then bail.
		if err := printPathLevels(args[0]); err != nil {
			return err
		}
		return fmt.Errorf("choose a deployment level and re-run with --deployment-index")
	}

	sources := make([]model.Source, 0, len(args))
	for _, path := range args {
		typ := "csv"
		if strings.HasPrefix(path, "http") && strings.HasSuffix(path, ".json") {
			typ = "json"
		}
		sources = append(sources, model.Source{Type: typ, URL: path})
	}

	job := model.AnalysisJobSpec{
		Sources: sources,
		Analysis: model.AnalysisConfig{
			MinDeltaTime:    viper.GetInt("min-delta-time"),
			Policy:          viper.GetString("policy"),
			Target:          viper.GetString("target"),
			NoExclude:       viper.GetBool("no-exclude"),
			Event:           viper.GetBool("event"),
			ExcludeTags:     viper.GetStringSlice("excludeTags"),
			DeployPathIndex: deployIndex,
		},
		Export: &model.Export{Dir: viper.GetString("output")},
	}
	if err := job.Validate(); err != nil {
		return err
	}

	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = "camtrap.db"
	}
	if err := store.InitDB(dbPath); err != nil {
		return fmt.Errorf("failed to open job store: %w", err)
	}
	defer store.CloseDB()

	jobID := uuid.New().String()
	if err := store.SaveJob(jobID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	result, err := pipeline.Run(cmd.Context(), jobID, job)
	if err != nil {
		return err
	}

	for _, exp := range result.Exports {
		fmt.Printf("Saved to %s\n", exp.Path)
	}
	return nil
}

// printPathLevels reads the first data row of an observation table and
// enumerates its path segments so the user can pick the deployment level.
func printPathLevels(csvPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	pathIdx := -1
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")), "path") {
			pathIdx = i
			break
		}
	}
	if pathIdx < 0 {
		return fmt.Errorf("missing required column %q", "path")
	}
	row, err := reader.Read()
	if err != nil {
		return fmt.Errorf("no records to analyze: the table has no data rows")
	}

	sample := row[pathIdx]
	fmt.Printf("Here is a sample of the file path (%s)\n", sample)
	for i, level := range pipeline.PathLevels(sample) {
		fmt.Printf("%d): %s\n", i, level)
	}
	return nil
}
