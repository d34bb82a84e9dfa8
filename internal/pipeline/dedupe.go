package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"camtrap-pipeline/internal/model"
)

// ErrNoRecords is returned when nothing is left to analyze after filtering.
var ErrNoRecords = errors.New("no records to analyze: the table is empty after filtering")

// DeduplicateObservations removes rows whose (deployment, time, tag) triple
// already appeared, keeping the first occurrence. Duplicate triples carry
// equivalent data for the analysis; the path is not part of the key.
func DeduplicateObservations(obs []model.Observation) []model.Observation {
	seen := make(map[string]bool, len(obs))
	out := make([]model.Observation, 0, len(obs))
	for _, o := range obs {
		key := fmt.Sprintf("%s\x00%s\x00%d", o.Deployment, o.Tag, o.Time.UnixNano())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	return out
}

// SortCanonical establishes the ordering the classifier depends on: rows
// grouped by deployment, then by tag, ordered ascending by time within each
// group. The sort is stable so equal keys keep their relative order.
func SortCanonical(obs []model.Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].Deployment != obs[j].Deployment {
			return obs[i].Deployment < obs[j].Deployment
		}
		if obs[i].Tag != obs[j].Tag {
			return obs[i].Tag < obs[j].Tag
		}
		return obs[i].Time.Before(obs[j].Time)
	})
}

// PrepareObservations runs deduplication and the canonical sort, failing on
// an empty input so later stages never index into nothing.
func PrepareObservations(obs []model.Observation) ([]model.Observation, error) {
	if len(obs) == 0 {
		return nil, ErrNoRecords
	}
	deduped := DeduplicateObservations(obs)
	SortCanonical(deduped)
	return deduped, nil
}
