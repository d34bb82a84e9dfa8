package pipeline

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"camtrap-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputSuffix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "_species_30m_LIR.csv",
		OutputSuffix(model.TargetSpecies, 30, model.PolicyLastIndependentRecord))
	assert.Equal(t, "_individual_1440m_LR.csv",
		OutputSuffix(model.TargetIndividual, 1440, model.PolicyLastRecord))
}

func readExport(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "output must start with a UTF-8 BOM")

	rows, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportAnalysisFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	id := 1
	result := &model.AnalysisResult{
		Independent: []model.Observation{obs(t, "site1", "Chevreuil", "2024-05-01 10:00:00")},
		Events: []model.EventRecord{
			{Observation: obs(t, "site1", "Chevreuil", "2024-05-01 10:00:00"), EventID: &id},
			{Observation: obs(t, "site1", "Chevreuil", "2024-05-01 10:05:00"), EventID: &id},
			{Observation: obs(t, "site2", "Boar", "2024-05-01 09:00:00")},
		},
		CountByDeployment: []model.CountRow{{Deployment: "site1", Tag: "Chevreuil", Count: 1}},
		CountAll:          []model.CountRow{{Tag: "Chevreuil", Count: 1}},
	}

	em := &ExportManager{JobID: "job-1", OutputDir: dir}
	exports := em.ExportAnalysis(result, model.TargetSpecies, 30, model.PolicyLastIndependentRecord)
	require.Len(t, exports, 4)
	for _, ex := range exports {
		assert.True(t, ex.Success, "export %s: %s", ex.Path, ex.Error)
	}

	indep := readExport(t, filepath.Join(dir, "temporal-independence_species_30m_LIR.csv"))
	require.Len(t, indep, 2)
	assert.Equal(t, []string{"path", "deployment", "time", "tag"}, indep[0])
	assert.Equal(t, []string{"project/site1/IMG_0001.jpg", "site1", "2024-05-01 10:00:00", "Chevreuil"}, indep[1])

	events := readExport(t, filepath.Join(dir, "events_species_30m_LIR.csv"))
	require.Len(t, events, 4)
	assert.Equal(t, []string{"path", "deployment", "time", "tag", "event_id"}, events[0])
	assert.Equal(t, "1", events[1][4])
	assert.Equal(t, "1", events[2][4])
	assert.Equal(t, "", events[3][4], "unmatched records leave the event cell empty")

	byDep := readExport(t, filepath.Join(dir, "count_by_deployment.csv"))
	require.Len(t, byDep, 2)
	assert.Equal(t, []string{"deployment", "tag", "count"}, byDep[0])
	assert.Equal(t, []string{"site1", "Chevreuil", "1"}, byDep[1])

	all := readExport(t, filepath.Join(dir, "count_all.csv"))
	require.Len(t, all, 2)
	assert.Equal(t, []string{"tag", "count"}, all[0])
	assert.Equal(t, []string{"Chevreuil", "1"}, all[1])
}

func TestExportAnalysisSkipsOptionalTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	result := &model.AnalysisResult{
		Independent:       []model.Observation{obs(t, "site1", "ind-07", "2024-05-01 10:00:00")},
		CountByDeployment: []model.CountRow{{Deployment: "site1", Tag: "ind-07", Count: 1}},
	}

	em := &ExportManager{JobID: "job-2", OutputDir: dir}
	exports := em.ExportAnalysis(result, model.TargetIndividual, 60, model.PolicyLastRecord)
	require.Len(t, exports, 2)

	_, err := os.Stat(filepath.Join(dir, "events_individual_60m_LR.csv"))
	assert.True(t, os.IsNotExist(err), "no event table without event assignment")
	_, err = os.Stat(filepath.Join(dir, "count_all.csv"))
	assert.True(t, os.IsNotExist(err), "no global totals for individual analyses")
}

func TestExportCreatesOutputDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "exports", "job-3")
	em := &ExportManager{JobID: "job-3", OutputDir: dir}
	result := &model.AnalysisResult{
		Independent:       []model.Observation{obs(t, "site1", "Fox", "2024-05-01 10:00:00")},
		CountByDeployment: []model.CountRow{{Deployment: "site1", Tag: "Fox", Count: 1}},
	}

	exports := em.ExportAnalysis(result, model.TargetSpecies, 30, model.PolicyLastIndependentRecord)
	for _, ex := range exports {
		assert.True(t, ex.Success, "export %s: %s", ex.Path, ex.Error)
	}
}
