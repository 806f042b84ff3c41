// Package advisor inspects a finished BuildRun's statistics and emits
// tuning suggestions.
package advisor

import (
	"fmt"

	"github.com/lbvhgo/lbvh/pkg/model"
)

// Advisor generates tuning suggestions based on a BuildRun's statistics.
type Advisor struct {
	rules []Rule
}

// Rule represents a built-in suggestion rule.
type Rule struct {
	Name        string
	Description string
	Check       RuleCheckFunc
}

// RuleCheckFunc inspects a RuleContext and returns any suggestions it triggers.
type RuleCheckFunc func(ctx *RuleContext) []model.TuningSuggestion

// RuleContext carries a finished BuildRun plus its derived metrics.
type RuleContext struct {
	Run     *model.BuildRun
	Metrics map[string]float64
}

// NewRuleContext builds a RuleContext from a finished BuildRun, deriving
// the metrics the default and database rules evaluate against.
func NewRuleContext(run *model.BuildRun) *RuleContext {
	metrics := map[string]float64{
		"avg_prims_per_node": run.AvgPrimsPerNode(),
		"primitive_count":    float64(run.PrimitiveCount),
		"node_count":         float64(run.NodeCount),
	}

	var total int64
	for _, d := range run.PhaseDurations {
		total += d
	}
	metrics["total_duration_ms"] = float64(total)

	for phase, d := range run.PhaseDurations {
		metrics[phase+"_duration_ms"] = float64(d)
		if total > 0 {
			metrics[phase+"_duration_pct"] = float64(d) / float64(total) * 100
		}
	}

	return &RuleContext{Run: run, Metrics: metrics}
}

// NewAdvisor creates a new Advisor with the default built-in rules.
func NewAdvisor() *Advisor {
	return &Advisor{rules: defaultRules()}
}

// NewAdvisorWithRules creates a new Advisor with a custom rule set.
func NewAdvisorWithRules(rules []Rule) *Advisor {
	return &Advisor{rules: rules}
}

// Advise runs the built-in rules against ctx and returns the triggered suggestions.
func (a *Advisor) Advise(ctx *RuleContext) []model.TuningSuggestion {
	suggestions := make([]model.TuningSuggestion, 0)

	for _, rule := range a.rules {
		if rule.Check != nil {
			suggestions = append(suggestions, rule.Check(ctx)...)
		}
	}

	return suggestions
}

// AdviseWithDBRules evaluates a set of database-configured TuningRules
// against ctx, in addition to whatever the Advisor's built-in rules produce.
func (a *Advisor) AdviseWithDBRules(ctx *RuleContext, rules []model.TuningRule) []model.TuningSuggestion {
	suggestions := a.Advise(ctx)

	for _, rule := range rules {
		value, ok := ctx.Metrics[rule.Metric]
		if !ok {
			continue
		}

		if rule.Evaluate(value) {
			suggestions = append(suggestions, model.NewTuningSuggestionBuilder().
				WithRunUUID(ctx.Run.RunUUID).
				WithMetric(rule.Metric).
				WithSeverity(rule.Severity).
				WithSuggestion(rule.SuggestionContent).
				Build())
		}
	}

	return suggestions
}

// defaultRules returns the built-in set of tuning rules.
func defaultRules() []Rule {
	return []Rule{
		{
			Name:        "leaf_threshold_too_small",
			Description: "Check for a leaf threshold producing far too many tiny leaves",
			Check:       checkLeafThresholdTooSmall,
		},
		{
			Name:        "leaf_threshold_too_large",
			Description: "Check for a leaf threshold packing too many primitives per leaf",
			Check:       checkLeafThresholdTooLarge,
		},
		{
			Name:        "sort_phase_dominant",
			Description: "Check whether the sort phase dominates total build time",
			Check:       checkSortPhaseDominant,
		},
		{
			Name:        "empty_build",
			Description: "Check for a run that produced no nodes at all",
			Check:       checkEmptyBuild,
		},
	}
}

// checkLeafThresholdTooSmall flags runs whose average primitives per
// node is under a quarter of the configured leaf threshold, which means the tree is
// deeper than it needs to be for its primitive count.
func checkLeafThresholdTooSmall(ctx *RuleContext) []model.TuningSuggestion {
	threshold := ctx.Run.Params.LeafThreshold
	if threshold <= 0 {
		return nil
	}

	avg := ctx.Metrics["avg_prims_per_node"]
	if avg > 0 && avg < float64(threshold)/4 {
		return []model.TuningSuggestion{
			model.NewTuningSuggestionBuilder().
				WithRunUUID(ctx.Run.RunUUID).
				WithMetric("avg_prims_per_node").
				WithSeverity("info").
				WithSuggestion(fmt.Sprintf(
					"average primitives per node (%.1f) is far below the leaf threshold (%d); "+
						"raising the leaf threshold would shrink the tree without hurting traversal",
					avg, threshold)).
				Build(),
		}
	}

	return nil
}

// checkLeafThresholdTooLarge flags runs whose leaf threshold lets leaves
// grow so large that traversal degenerates toward a linear scan.
func checkLeafThresholdTooLarge(ctx *RuleContext) []model.TuningSuggestion {
	threshold := ctx.Run.Params.LeafThreshold
	maxAllowed := ctx.Run.Params.MaxAllowedLeafSize
	if threshold <= 0 || maxAllowed <= 0 {
		return nil
	}

	if threshold > maxAllowed {
		return []model.TuningSuggestion{
			model.NewTuningSuggestionBuilder().
				WithRunUUID(ctx.Run.RunUUID).
				WithMetric("leaf_threshold").
				WithSeverity("warning").
				WithSuggestion(fmt.Sprintf(
					"leaf threshold (%d) exceeds the configured maximum leaf size (%d) and was clamped; "+
						"lower leaf_threshold or raise max_allowed_leaf_size",
					threshold, maxAllowed)).
				Build(),
		}
	}

	return nil
}

// checkSortPhaseDominant flags runs where the key-sort phase eats most
// of the total build time, a signal the sorter or block width needs
// tuning for this primitive count.
func checkSortPhaseDominant(ctx *RuleContext) []model.TuningSuggestion {
	pct, ok := ctx.Metrics["sort_duration_pct"]
	if !ok || pct < 60 {
		return nil
	}

	return []model.TuningSuggestion{
		model.NewTuningSuggestionBuilder().
			WithRunUUID(ctx.Run.RunUUID).
			WithMetric("sort_duration_pct").
			WithSeverity("warning").
			WithSuggestion(fmt.Sprintf(
				"the sort phase took %.0f%% of total build time; consider a wider radix pass or a larger block width",
				pct)).
			Build(),
	}
}

// checkEmptyBuild flags a completed run that produced no nodes, which
// usually means the dataset reference resolved to zero primitives.
func checkEmptyBuild(ctx *RuleContext) []model.TuningSuggestion {
	if ctx.Run.Status != model.BuildStatusCompleted {
		return nil
	}

	if ctx.Run.NodeCount == 0 {
		return []model.TuningSuggestion{
			model.NewTuningSuggestionBuilder().
				WithRunUUID(ctx.Run.RunUUID).
				WithMetric("node_count").
				WithSeverity("warning").
				WithSuggestion("build completed with zero nodes; check the dataset reference resolved to any primitives").
				Build(),
		}
	}

	return nil
}
