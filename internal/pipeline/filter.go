package pipeline

import (
	"fmt"

	"camtrap-pipeline/internal/model"
)

// FilterObservations removes records unusable for independence analysis.
// Records with an empty deployment, tag or time are always dropped; records
// whose tag is in the exclusion set are dropped unless noExclude is set.
// Filtering is total: an empty result is valid and handled downstream.
func FilterObservations(obs []model.Observation, excludeTags []string, noExclude bool) []model.Observation {
	excluded := make(map[string]bool, len(excludeTags))
	for _, tag := range excludeTags {
		excluded[tag] = true
	}

	out := make([]model.Observation, 0, len(obs))
	droppedNull := 0
	droppedExcluded := 0
	for _, o := range obs {
		if !o.HasKeyFields() {
			droppedNull++
			continue
		}
		if !noExclude && excluded[o.Tag] {
			droppedExcluded++
			continue
		}
		out = append(out, o)
	}

	if droppedNull > 0 || droppedExcluded > 0 {
		fmt.Printf("🔍 Filter Summary: %d kept, %d dropped (empty fields), %d dropped (excluded tags)\n",
			len(out), droppedNull, droppedExcluded)
	}
	return out
}
