package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbvhgo/lbvh/pkg/model"
)

func newCompletedRun() *model.BuildRun {
	run := model.NewBuildRun("run-uuid", "datasets/scene.json", model.BuildParams{
		Dim:                3,
		LeafThreshold:      8,
		MaxAllowedLeafSize: 16,
	})
	run.Status = model.BuildStatusCompleted
	run.PrimitiveCount = 1000
	run.NodeCount = 200
	run.PhaseDurations = model.PhaseDurations{
		"sort":     500,
		"finalize": 100,
		"refit":    100,
	}
	return run
}

func TestNewAdvisor(t *testing.T) {
	advisor := NewAdvisor()

	assert.NotNil(t, advisor)
	assert.NotEmpty(t, advisor.rules)
}

func TestNewAdvisorWithRules(t *testing.T) {
	rules := []Rule{
		{Name: "test_rule"},
	}

	advisor := NewAdvisorWithRules(rules)

	assert.Len(t, advisor.rules, 1)
	assert.Equal(t, "test_rule", advisor.rules[0].Name)
}

func TestNewRuleContext(t *testing.T) {
	run := newCompletedRun()
	ctx := NewRuleContext(run)

	assert.Equal(t, 5.0, ctx.Metrics["avg_prims_per_node"])
	assert.Equal(t, 700.0, ctx.Metrics["total_duration_ms"])
	assert.InDelta(t, 71.42, ctx.Metrics["sort_duration_pct"], 0.1)
}

func TestAdvisor_Advise_SortPhaseDominant(t *testing.T) {
	advisor := NewAdvisor()
	run := newCompletedRun()
	ctx := NewRuleContext(run)

	suggestions := advisor.Advise(ctx)

	var found bool
	for _, s := range suggestions {
		if s.Metric == "sort_duration_pct" {
			found = true
			assert.Contains(t, s.Suggestion, "sort phase")
		}
	}
	assert.True(t, found, "should find sort-phase-dominant suggestion")
}

func TestAdvisor_Advise_EmptyBuild(t *testing.T) {
	advisor := NewAdvisor()
	run := newCompletedRun()
	run.NodeCount = 0
	ctx := NewRuleContext(run)

	suggestions := advisor.Advise(ctx)

	var found bool
	for _, s := range suggestions {
		if s.Metric == "node_count" {
			found = true
		}
	}
	assert.True(t, found, "should find empty-build suggestion")
}

func TestAdvisor_Advise_EmptyBuild_NotTriggeredWhilePending(t *testing.T) {
	advisor := NewAdvisor()
	run := model.NewBuildRun("run-uuid", "datasets/scene.json", model.BuildParams{})
	ctx := NewRuleContext(run)

	suggestions := advisor.Advise(ctx)

	for _, s := range suggestions {
		assert.NotEqual(t, "node_count", s.Metric)
	}
}

func TestAdvisor_Advise_LeafThresholdTooSmall(t *testing.T) {
	advisor := NewAdvisor()
	run := newCompletedRun()
	run.Params.LeafThreshold = 1000
	run.PrimitiveCount = 1000
	run.NodeCount = 1000 // avg = 1.0, well under threshold/4 = 250
	ctx := NewRuleContext(run)

	suggestions := advisor.Advise(ctx)

	var found bool
	for _, s := range suggestions {
		if s.Metric == "avg_prims_per_node" {
			found = true
		}
	}
	assert.True(t, found, "should find leaf-threshold-too-small suggestion")
}

func TestAdvisor_Advise_LeafThresholdTooLarge(t *testing.T) {
	advisor := NewAdvisor()
	run := newCompletedRun()
	run.Params.LeafThreshold = 32
	run.Params.MaxAllowedLeafSize = 16
	ctx := NewRuleContext(run)

	suggestions := advisor.Advise(ctx)

	var found bool
	for _, s := range suggestions {
		if s.Metric == "leaf_threshold" {
			found = true
		}
	}
	assert.True(t, found, "should find leaf-threshold-too-large suggestion")
}

func TestAdvisor_Advise_NoSuggestions(t *testing.T) {
	advisor := NewAdvisor()
	run := newCompletedRun()
	run.Params.LeafThreshold = 4
	run.PrimitiveCount = 20
	run.NodeCount = 4 // avg = 5, not far below threshold
	run.PhaseDurations = model.PhaseDurations{"sort": 10, "finalize": 10}

	suggestions := advisor.Advise(NewRuleContext(run))

	assert.Empty(t, suggestions)
}

func TestAdvisor_AdviseWithDBRules(t *testing.T) {
	advisor := NewAdvisorWithRules(nil)
	run := newCompletedRun()
	ctx := NewRuleContext(run)

	rules := []model.TuningRule{
		{
			Metric:            "avg_prims_per_node",
			Operation:         "gt",
			Threshold:         1.0,
			Severity:          "warning",
			SuggestionContent: "too many primitives packed per node",
		},
		{
			Metric:            "avg_prims_per_node",
			Operation:         "gt",
			Threshold:         1000.0,
			Severity:          "warning",
			SuggestionContent: "never triggers",
		},
	}

	suggestions := advisor.AdviseWithDBRules(ctx, rules)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "too many primitives packed per node", suggestions[0].Suggestion)
	assert.Equal(t, "run-uuid", suggestions[0].RunUUID)
}

func TestAdvisor_AdviseWithDBRules_UnknownMetricSkipped(t *testing.T) {
	advisor := NewAdvisorWithRules(nil)
	run := newCompletedRun()
	ctx := NewRuleContext(run)

	rules := []model.TuningRule{
		{Metric: "nonexistent_metric", Operation: "gt", Threshold: 0},
	}

	suggestions := advisor.AdviseWithDBRules(ctx, rules)
	assert.Empty(t, suggestions)
}

func TestCheckSortPhaseDominant_BelowThreshold(t *testing.T) {
	run := newCompletedRun()
	run.PhaseDurations = model.PhaseDurations{"sort": 10, "finalize": 90}
	ctx := NewRuleContext(run)

	suggestions := checkSortPhaseDominant(ctx)
	assert.Empty(t, suggestions)
}
