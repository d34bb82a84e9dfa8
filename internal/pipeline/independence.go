package pipeline

import (
	"fmt"
	"time"

	"camtrap-pipeline/internal/model"
)

// ClassifyIndependence runs the selected policy over canonically sorted,
// deduplicated observations and returns the subset considered independent,
// preserving the sort order. minDelta must be positive; the sort order is
// re-established internally so group boundaries are never trusted from the
// caller.
func ClassifyIndependence(obs []model.Observation, policy model.Policy, minDelta time.Duration) ([]model.Observation, error) {
	if minDelta <= 0 {
		return nil, fmt.Errorf("invalid minimum time difference %v: must be greater than 0", minDelta)
	}
	if len(obs) == 0 {
		return nil, ErrNoRecords
	}

	// The classifier's correctness hangs on the canonical order, so it is a
	// precondition enforced here, not an assumption about the input.
	sorted := make([]model.Observation, len(obs))
	copy(sorted, obs)
	SortCanonical(sorted)

	switch policy {
	case model.PolicyLastRecord:
		return classifyLastRecord(sorted, minDelta), nil
	case model.PolicyLastIndependentRecord:
		return classifyLastIndependent(sorted, minDelta), nil
	default:
		return nil, fmt.Errorf("invalid policy %q", policy)
	}
}

// classifyLastRecord applies the windowed comparison: a record is
// independent iff it is the only record of its (deployment, tag) group in
// the trailing window (t-minDelta, t]. The window is right-closed, so a
// predecessor exactly minDelta before the record falls outside it. The test
// is memoryless: classifications of earlier records do not matter.
func classifyLastRecord(sorted []model.Observation, minDelta time.Duration) []model.Observation {
	var out []model.Observation
	for i, o := range sorted {
		// Records of the same group precede o contiguously; only the
		// immediate predecessor can fall inside the trailing window.
		alone := true
		if i > 0 {
			prev := sorted[i-1]
			if prev.GroupKey() == o.GroupKey() && prev.Time.After(o.Time.Add(-minDelta)) {
				alone = false
			}
		}
		if alone {
			out = append(out, o)
		}
	}
	return out
}

// lastIndependent is the per-partition cursor of the stateful scan.
type lastIndependent struct {
	time time.Time
}

// classifyLastIndependent applies the stateful streaming scan: the first
// record of each (deployment, tag) partition is independent, and a later
// record is independent only when strictly more than minDelta has elapsed
// since the partition's last independent record. The cursor resets on every
// independent record, so a chain of closely spaced detections collapses to
// its first member. Partitions are tracked explicitly rather than through
// global last-seen variables, so the scan does not lean on the sort order
// for group detection.
func classifyLastIndependent(sorted []model.Observation, minDelta time.Duration) []model.Observation {
	cursors := make(map[string]*lastIndependent)
	var out []model.Observation
	for _, o := range sorted {
		key := o.GroupKey()
		cursor, seen := cursors[key]
		// Strict greater-than: a gap of exactly minDelta is not independent.
		if !seen || o.Time.Sub(cursor.time) > minDelta {
			out = append(out, o)
			cursors[key] = &lastIndependent{time: o.Time}
		}
	}
	return out
}
