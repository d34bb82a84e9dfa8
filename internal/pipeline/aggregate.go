package pipeline

import (
	"fmt"

	"camtrap-pipeline/internal/model"
)

// CountByDeployment reduces the independence result to one row per
// (deployment, tag) with the number of independent events. Groups appear in
// first-seen order; the grouping is stable, not sorted by count.
func CountByDeployment(independent []model.Observation) []model.CountRow {
	index := make(map[string]int, len(independent))
	var rows []model.CountRow
	for _, o := range independent {
		key := o.GroupKey()
		if i, ok := index[key]; ok {
			rows[i].Count++
			continue
		}
		index[key] = len(rows)
		rows = append(rows, model.CountRow{Deployment: o.Deployment, Tag: o.Tag, Count: 1})
	}
	return rows
}

// CountAll reduces the independence result to one row per tag, across all
// deployments, in first-seen order. Used for global species totals.
func CountAll(independent []model.Observation) []model.CountRow {
	index := make(map[string]int, len(independent))
	var rows []model.CountRow
	for _, o := range independent {
		if i, ok := index[o.Tag]; ok {
			rows[i].Count++
			continue
		}
		index[o.Tag] = len(rows)
		rows = append(rows, model.CountRow{Tag: o.Tag, Count: 1})
	}
	return rows
}

// Aggregate produces the summary tables for one run. The per-tag summary is
// only computed when the analysis target is species.
func Aggregate(independent []model.Observation, target model.Target) (byDeployment, all []model.CountRow) {
	byDeployment = CountByDeployment(independent)
	if target == model.TargetSpecies {
		all = CountAll(independent)
	}
	fmt.Printf("📊 Aggregation Summary: %d (deployment, tag) groups from %d independent records\n",
		len(byDeployment), len(independent))
	return byDeployment, all
}
