package model

import "time"

// BuildReport is the scalar-statistics summary of one BuildRun, in the
// shape written out by pkg/writer and displayed by cmd/lbvhctl. It
// never carries the tree itself — only counts and timings.
type BuildReport struct {
	RunUUID        string             `json:"run_uuid"`
	Version        string             `json:"version"`
	Dim            int                `json:"dim"`
	Status         string             `json:"status"`
	PrimitiveCount int64              `json:"primitive_count"`
	NodeCount      int64              `json:"node_count"`
	PhaseDurations PhaseDurations     `json:"phase_durations"`
	TotalDuration  int64              `json:"total_duration_ms"`
	Suggestions    []TuningSuggestion `json:"suggestions,omitempty"`
	CompletedAt    time.Time          `json:"completed_at"`
}

// NewBuildReport builds a BuildReport from a finished BuildRun and the
// suggestions its advisor emitted.
func NewBuildReport(run *BuildRun, version string, suggestions []TuningSuggestion) *BuildReport {
	completedAt := run.CreateTime
	if run.EndTime != nil {
		completedAt = *run.EndTime
	}
	return &BuildReport{
		RunUUID:        run.RunUUID,
		Version:        version,
		Dim:            run.Params.Dim,
		Status:         run.Status.String(),
		PrimitiveCount: run.PrimitiveCount,
		NodeCount:      run.NodeCount,
		PhaseDurations: run.PhaseDurations,
		TotalDuration:  run.Duration().Milliseconds(),
		Suggestions:    suggestions,
		CompletedAt:    completedAt,
	}
}

// BenchSummary aggregates timing percentiles across a `bench` run of N
// repeated builds over the same dataset.
type BenchSummary struct {
	Runs        int            `json:"runs"`
	PrimCount   int64          `json:"primitive_count"`
	MinDuration int64          `json:"min_duration_ms"`
	MaxDuration int64          `json:"max_duration_ms"`
	P50         int64          `json:"p50_ms"`
	P90         int64          `json:"p90_ms"`
	P99         int64          `json:"p99_ms"`
	MeanPhase   PhaseDurations `json:"mean_phase_durations_ms"`
}
