package metrics

import (
	"testing"

	"github.com/perimetric/riskweaver/pkg/models"
)

func okResult(id, group string, score float64) models.MetricResult {
	return models.MetricResult{
		ID: id, Group: group,
		Status: models.StatusOK,
		Score:  &score,
	}
}

func TestAggregateEqualWeightMean(t *testing.T) {
	agg := Aggregate([]models.MetricResult{
		okResult("A1", "A", 0.2),
		okResult("A2", "A", 0.4),
		okResult("B1", "B", 0.9),
		{ID: "E1", Group: "E", Status: models.StatusUnavailable, Reason: "dependency analysis disabled"},
	})

	if agg.Available != 3 {
		t.Errorf("Available = %d, want 3", agg.Available)
	}
	if agg.Score == nil || !almostEqual(*agg.Score, 0.5) {
		t.Fatalf("Overall = %v, want 0.5", agg.Score)
	}
	if got := agg.Groups["A"]; got == nil || !almostEqual(*got, 0.3) {
		t.Errorf("Group A = %v, want 0.3", got)
	}
	if got := agg.Groups["B"]; got == nil || *got != 0.9 {
		t.Errorf("Group B = %v, want 0.9", got)
	}
	if len(agg.Notes) != 1 || agg.Notes[0] != "E1 unavailable: dependency analysis disabled" {
		t.Errorf("Notes = %v", agg.Notes)
	}
}

func TestAggregateAllGroupKeysPresent(t *testing.T) {
	agg := Aggregate([]models.MetricResult{okResult("A1", "A", 0.5)})
	if len(agg.Groups) != len(groupOrder) {
		t.Fatalf("Expected %d group keys, got %d", len(groupOrder), len(agg.Groups))
	}
	for _, group := range groupOrder[1:] {
		ptr, present := agg.Groups[group]
		if !present {
			t.Errorf("Group %s key missing", group)
		}
		if ptr != nil {
			t.Errorf("Empty group %s should be nil, got %f", group, *ptr)
		}
	}
}

func TestAggregateNoAvailableMetrics(t *testing.T) {
	agg := Aggregate([]models.MetricResult{
		{ID: "A1", Group: "A", Status: models.StatusUnavailable, Reason: "no entrypoints discovered"},
	})
	if agg.Score != nil {
		t.Errorf("Overall must be nil with zero available metrics, got %f", *agg.Score)
	}
	if agg.Available != 0 {
		t.Errorf("Available = %d, want 0", agg.Available)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
