package pipeline

import (
	"sort"
	"time"

	"camtrap-pipeline/internal/model"
)

// AssignEvents labels every raw (filtered but not deduplicated) observation
// with the independent event it belongs to. Independent records receive
// 1-based sequential event IDs in their sorted order — one global counter,
// not one per group — and each raw record is matched backward as-of: it
// gets the event ID of the most recent independent record of the same
// (deployment, tag) whose time is at or before its own. A raw record with
// no qualifying predecessor keeps a nil event ID.
func AssignEvents(raw, independent []model.Observation) []model.EventRecord {
	// Index independent events per partition; within a partition their
	// times are ascending because the independent set keeps canonical order.
	type event struct {
		time time.Time
		id   int
	}
	byGroup := make(map[string][]event)
	for i, o := range independent {
		key := o.GroupKey()
		byGroup[key] = append(byGroup[key], event{time: o.Time, id: i + 1})
	}

	sortedRaw := make([]model.Observation, len(raw))
	copy(sortedRaw, raw)
	SortCanonical(sortedRaw)

	out := make([]model.EventRecord, 0, len(sortedRaw))
	for _, o := range sortedRaw {
		rec := model.EventRecord{Observation: o}
		events := byGroup[o.GroupKey()]
		// First event strictly after o.Time; its predecessor is the match.
		idx := sort.Search(len(events), func(i int) bool {
			return events[i].time.After(o.Time)
		})
		if idx > 0 {
			id := events[idx-1].id
			rec.EventID = &id
		}
		out = append(out, rec)
	}
	return out
}
