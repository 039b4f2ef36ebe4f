package metrics

import (
	"fmt"

	"github.com/perimetric/riskweaver/pkg/models"
)

// groupOrder fixes the group keys present in every aggregate, available or not.
var groupOrder = []string{"A", "B", "C", "D", "E", "F"}

// Aggregate rolls the complete metric battery into per-group means and one
// overall equal-weight mean. Groups with zero available metrics report a nil
// score; zero available metrics overall yields a nil overall score, never a
// division fault.
func Aggregate(results []models.MetricResult) models.AggregateScore {
	agg := models.AggregateScore{
		Components: make(map[string]float64),
		Groups:     make(map[string]*float64, len(groupOrder)),
	}
	groupTotals := make(map[string]float64)
	groupCounts := make(map[string]int)

	total := 0.0
	for _, res := range results {
		if !res.OK() {
			if res.Reason != "" {
				agg.Notes = append(agg.Notes, fmt.Sprintf("%s unavailable: %s", res.ID, res.Reason))
			}
			continue
		}
		agg.Components[res.ID] = *res.Score
		agg.Available++
		total += *res.Score
		groupTotals[res.Group] += *res.Score
		groupCounts[res.Group]++
	}

	for _, group := range groupOrder {
		if groupCounts[group] == 0 {
			agg.Groups[group] = nil
			continue
		}
		mean := groupTotals[group] / float64(groupCounts[group])
		agg.Groups[group] = &mean
	}

	if agg.Available > 0 {
		overall := total / float64(agg.Available)
		agg.Score = &overall
	}
	return agg
}
