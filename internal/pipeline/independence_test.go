package pipeline

import (
	"testing"
	"time"

	"camtrap-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(model.TimeLayout, value)
	require.NoError(t, err)
	return ts
}

func obs(t *testing.T, deployment, tag, timestamp string) model.Observation {
	t.Helper()
	return model.Observation{
		Path:       "project/" + deployment + "/IMG_0001.jpg",
		Deployment: deployment,
		Tag:        tag,
		Time:       mustTime(t, timestamp),
	}
}

func times(records []model.Observation) []string {
	out := make([]string, 0, len(records))
	for _, o := range records {
		out = append(out, o.Time.Format(model.TimeLayout))
	}
	return out
}

func TestClassifyLastIndependentRecord(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:15:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:50:00"),
	}

	got, err := ClassifyIndependence(input, model.PolicyLastIndependentRecord, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01 10:00:00", "2024-05-01 10:50:00"}, times(got))
}

func TestClassifyLastRecordWindow(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:15:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:50:00"),
	}

	// 10:00 has no prior record; 10:15 sees 10:00 inside (09:45, 10:15];
	// 10:50 sees nothing inside (10:20, 10:50].
	got, err := ClassifyIndependence(input, model.PolicyLastRecord, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01 10:00:00", "2024-05-01 10:50:00"}, times(got))
}

// The two policies disagree on a chain of detections 20 minutes apart: the
// stateful scan measures from the last independent record, the window test
// from the immediate predecessor.
func TestPoliciesDivergeOnChains(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:20:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:40:00"),
	}

	lir, err := ClassifyIndependence(input, model.PolicyLastIndependentRecord, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01 10:00:00", "2024-05-01 10:40:00"}, times(lir))

	lr, err := ClassifyIndependence(input, model.PolicyLastRecord, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01 10:00:00"}, times(lr))
}

// A gap of exactly the minimum time difference is not independent under the
// stateful scan (strict greater-than) but is independent under the window
// test (the window is left-open, so the predecessor sits just outside it).
func TestBoundaryConventionsDiffer(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:30:00"),
	}

	lir, err := ClassifyIndependence(input, model.PolicyLastIndependentRecord, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01 10:00:00"}, times(lir))

	lr, err := ClassifyIndependence(input, model.PolicyLastRecord, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01 10:00:00", "2024-05-01 10:30:00"}, times(lr))
}

func TestGroupChangesResetTheScan(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Deer", "2024-05-01 10:05:00"),
		obs(t, "site2", "Fox", "2024-05-01 10:10:00"),
	}

	for _, policy := range []model.Policy{model.PolicyLastIndependentRecord, model.PolicyLastRecord} {
		got, err := ClassifyIndependence(input, policy, 30*time.Minute)
		require.NoError(t, err)
		assert.Len(t, got, 3, "each (deployment, tag) group starts independent under %s", policy)
	}
}

func TestClassifierSortsItsInput(t *testing.T) {
	t.Parallel()

	// Deliberately out of order; the canonical sort is a precondition the
	// classifier enforces itself.
	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:50:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:15:00"),
	}

	got, err := ClassifyIndependence(input, model.PolicyLastIndependentRecord, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01 10:00:00", "2024-05-01 10:50:00"}, times(got))
}

func TestClassifyValidation(t *testing.T) {
	t.Parallel()

	input := []model.Observation{obs(t, "site1", "Fox", "2024-05-01 10:00:00")}

	_, err := ClassifyIndependence(input, model.PolicyLastIndependentRecord, 0)
	assert.Error(t, err)

	_, err = ClassifyIndependence(nil, model.PolicyLastIndependentRecord, 30*time.Minute)
	assert.ErrorIs(t, err, ErrNoRecords)

	_, err = ClassifyIndependence(input, model.Policy("Nearest"), 30*time.Minute)
	assert.Error(t, err)
}

// Property check from the window definition: no independent record under
// LastRecord has another record of its group inside its trailing window.
func TestLastRecordWindowProperty(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 08:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 08:10:00"),
		obs(t, "site1", "Fox", "2024-05-01 08:45:00"),
		obs(t, "site1", "Fox", "2024-05-01 09:30:00"),
		obs(t, "site2", "Fox", "2024-05-01 08:05:00"),
	}
	minDelta := 30 * time.Minute

	got, err := ClassifyIndependence(input, model.PolicyLastRecord, minDelta)
	require.NoError(t, err)

	for _, indep := range got {
		for _, other := range input {
			if other == indep || other.GroupKey() != indep.GroupKey() {
				continue
			}
			inWindow := other.Time.After(indep.Time.Add(-minDelta)) && !other.Time.After(indep.Time)
			assert.False(t, inWindow, "record %v sits inside the window of %v", other.Time, indep.Time)
		}
	}
}

// Property check from the gap definition: consecutive independent records of
// the same group under LastIndependentRecord are strictly more than the
// minimum time difference apart.
func TestLastIndependentGapProperty(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 08:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 08:29:00"),
		obs(t, "site1", "Fox", "2024-05-01 08:31:00"),
		obs(t, "site1", "Fox", "2024-05-01 09:05:00"),
		obs(t, "site1", "Fox", "2024-05-01 09:36:00"),
	}
	minDelta := 30 * time.Minute

	got, err := ClassifyIndependence(input, model.PolicyLastIndependentRecord, minDelta)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for i := 1; i < len(got); i++ {
		if got[i].GroupKey() != got[i-1].GroupKey() {
			continue
		}
		assert.Greater(t, got[i].Time.Sub(got[i-1].Time), minDelta)
	}
}
