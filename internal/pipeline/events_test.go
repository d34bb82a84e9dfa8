package pipeline

import (
	"testing"
	"time"

	"camtrap-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignEventsSequentialIDs(t *testing.T) {
	t.Parallel()

	raw := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:15:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:50:00"),
		obs(t, "site2", "Deer", "2024-05-01 09:00:00"),
	}
	independent, err := ClassifyIndependence(raw, model.PolicyLastIndependentRecord, 30*time.Minute)
	require.NoError(t, err)

	got := AssignEvents(raw, independent)
	require.Len(t, got, 4)

	// IDs are 1-based positions in the sorted independent set, one global
	// counter: site1's events take 1 and 2, site2's takes 3.
	byTime := map[string]*int{}
	for _, rec := range got {
		byTime[rec.Deployment+"/"+rec.Time.Format(model.TimeLayout)] = rec.EventID
	}
	require.NotNil(t, byTime["site1/2024-05-01 10:00:00"])
	require.NotNil(t, byTime["site1/2024-05-01 10:15:00"])
	require.NotNil(t, byTime["site1/2024-05-01 10:50:00"])
	require.NotNil(t, byTime["site2/2024-05-01 09:00:00"])

	assert.Equal(t, 1, *byTime["site1/2024-05-01 10:00:00"])
	assert.Equal(t, 1, *byTime["site1/2024-05-01 10:15:00"], "absorbed record joins its predecessor's event")
	assert.Equal(t, 2, *byTime["site1/2024-05-01 10:50:00"])
	assert.Equal(t, 3, *byTime["site2/2024-05-01 09:00:00"])
}

func TestAssignEventsNoPredecessor(t *testing.T) {
	t.Parallel()

	// The raw set carries a record from a group with no independent events,
	// which can happen when the independent set is computed on a subset.
	raw := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site3", "Boar", "2024-05-01 08:00:00"),
	}
	independent := []model.Observation{obs(t, "site1", "Fox", "2024-05-01 10:00:00")}

	got := AssignEvents(raw, independent)
	require.Len(t, got, 2)
	for _, rec := range got {
		if rec.Deployment == "site3" {
			assert.Nil(t, rec.EventID)
		} else {
			require.NotNil(t, rec.EventID)
			assert.Equal(t, 1, *rec.EventID)
		}
	}
}

func TestAssignEventsBackwardAsOf(t *testing.T) {
	t.Parallel()

	// A raw record exactly at an independent record's time matches it; a raw
	// record before the first independent record of its group matches nothing.
	independent := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 11:00:00"),
	}
	raw := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 09:55:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:59:00"),
		obs(t, "site1", "Fox", "2024-05-01 11:30:00"),
	}

	got := AssignEvents(raw, independent)
	require.Len(t, got, 4)

	want := []*int{nil, intPtr(1), intPtr(1), intPtr(2)}
	for i, rec := range got {
		if want[i] == nil {
			assert.Nil(t, rec.EventID, "record %d", i)
		} else {
			require.NotNil(t, rec.EventID, "record %d", i)
			assert.Equal(t, *want[i], *rec.EventID, "record %d", i)
		}
	}
}

func TestAssignEventsOutputIsSorted(t *testing.T) {
	t.Parallel()

	raw := []model.Observation{
		obs(t, "site2", "Deer", "2024-05-01 09:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:15:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
	}
	independent, err := ClassifyIndependence(raw, model.PolicyLastIndependentRecord, 30*time.Minute)
	require.NoError(t, err)

	got := AssignEvents(raw, independent)
	require.Len(t, got, 3)
	assert.Equal(t, "site1", got[0].Deployment)
	assert.Equal(t, "2024-05-01 10:00:00", got[0].Time.Format(model.TimeLayout))
	assert.Equal(t, "site2", got[2].Deployment)
}

func intPtr(v int) *int { return &v }
