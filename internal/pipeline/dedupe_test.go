package pipeline

import (
	"testing"

	"camtrap-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicateCollapsesEqualTriples(t *testing.T) {
	t.Parallel()

	first := obs(t, "site1", "Fox", "2024-05-01 10:00:00")
	duplicate := first
	duplicate.Path = "project/site1/IMG_0001.jpg.xmp" // path is not part of the key

	got := DeduplicateObservations([]model.Observation{first, duplicate})
	require.Len(t, got, 1)
	assert.Equal(t, first.Path, got[0].Path, "first occurrence wins")
}

func TestDeduplicateKeepsDistinctTriples(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site2", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Deer", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:01:00"),
	}
	assert.Len(t, DeduplicateObservations(input), 4)
}

func TestSortCanonicalOrder(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site2", "Deer", "2024-05-01 08:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Deer", "2024-05-01 11:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 09:00:00"),
		obs(t, "site1", "Deer", "2024-05-01 07:00:00"),
	}

	SortCanonical(input)

	// Deployment is the primary key, tag secondary, time tertiary.
	want := []string{
		"site1/Deer/2024-05-01 07:00:00",
		"site1/Deer/2024-05-01 11:00:00",
		"site1/Fox/2024-05-01 09:00:00",
		"site1/Fox/2024-05-01 10:00:00",
		"site2/Deer/2024-05-01 08:00:00",
	}
	got := make([]string, len(input))
	for i, o := range input {
		got[i] = o.Deployment + "/" + o.Tag + "/" + o.Time.Format(model.TimeLayout)
	}
	assert.Equal(t, want, got)
}

func TestSortPreconditionWithinGroups(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:30:00"),
		obs(t, "site2", "Fox", "2024-05-01 09:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Deer", "2024-05-01 12:00:00"),
	}

	SortCanonical(input)

	for i := 1; i < len(input); i++ {
		if input[i].GroupKey() != input[i-1].GroupKey() {
			continue
		}
		assert.False(t, input[i].Time.Before(input[i-1].Time),
			"records sharing (deployment, tag) must ascend by time")
	}
}

func TestPrepareObservationsRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := PrepareObservations(nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestPrepareObservations(t *testing.T) {
	t.Parallel()

	input := []model.Observation{
		obs(t, "site1", "Fox", "2024-05-01 10:30:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:00:00"),
		obs(t, "site1", "Fox", "2024-05-01 10:30:00"),
	}

	got, err := PrepareObservations(input)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-05-01 10:00:00", got[0].Time.Format(model.TimeLayout))
}
