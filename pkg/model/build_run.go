package model

import (
	"encoding/json"
	"time"
)

// BuildStatus represents the lifecycle state of a BuildRun.
type BuildStatus int

const (
	BuildStatusPending   BuildStatus = 0 // queued, dataset not yet loaded
	BuildStatusRunning   BuildStatus = 1 // core Build in progress
	BuildStatusCompleted BuildStatus = 2 // finished, stats recorded
	BuildStatusFailed    BuildStatus = 3 // aborted with an error
)

// String returns the string representation of BuildStatus.
func (s BuildStatus) String() string {
	switch s {
	case BuildStatusPending:
		return "pending"
	case BuildStatusRunning:
		return "running"
	case BuildStatusCompleted:
		return "completed"
	case BuildStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BuildParams holds the tuning parameters a BuildRun was configured with.
type BuildParams struct {
	Dim                int `json:"dim,omitempty"`
	LeafThreshold      int `json:"leaf_threshold,omitempty"`
	MaxAllowedLeafSize int `json:"max_allowed_leaf_size,omitempty"`
	BlockWidth         int `json:"block_width,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler for BuildParams.
func (p *BuildParams) UnmarshalJSON(data []byte) error {
	type Alias BuildParams
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(p),
	}
	return json.Unmarshal(data, aux)
}

// BuildRun represents a single invocation of the core builder: its
// dataset reference, the parameters it ran with, and (once finished)
// its resulting counts and per-phase durations.
type BuildRun struct {
	ID             int64          `json:"id" db:"id"`
	RunUUID        string         `json:"run_uuid" db:"run_uuid"`
	DatasetRef     string         `json:"dataset_ref" db:"dataset_ref"`
	Status         BuildStatus    `json:"status" db:"status"`
	StatusInfo     string         `json:"status_info" db:"status_info"`
	UserName       string         `json:"user_name" db:"user_name"`
	Params         BuildParams    `json:"params" db:"params"`
	PrimitiveCount int64          `json:"primitive_count" db:"primitive_count"`
	NodeCount      int64          `json:"node_count" db:"node_count"`
	PhaseDurations PhaseDurations `json:"phase_durations" db:"phase_durations"`
	CreateTime     time.Time      `json:"create_time" db:"create_time"`
	BeginTime      *time.Time     `json:"begin_time" db:"begin_time"`
	EndTime        *time.Time     `json:"end_time" db:"end_time"`
}

// PhaseDurations maps a build phase name (e.g. "key-production",
// "bfs-expand") to how long it took, in milliseconds. Stored as a JSON
// object so the column stays backend-agnostic across sqlite/postgres/mysql.
type PhaseDurations map[string]int64

// NewBuildRun creates a new pending BuildRun instance.
func NewBuildRun(runUUID, datasetRef string, params BuildParams) *BuildRun {
	return &BuildRun{
		RunUUID:    runUUID,
		DatasetRef: datasetRef,
		Status:     BuildStatusPending,
		Params:     params,
		CreateTime: time.Now(),
	}
}

// Duration returns the wall-clock time the run took, or zero if it
// hasn't finished (or started) yet.
func (r *BuildRun) Duration() time.Duration {
	if r.BeginTime == nil || r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(*r.BeginTime)
}

// IsTerminal returns true once the run has reached a final status.
func (r *BuildRun) IsTerminal() bool {
	return r.Status == BuildStatusCompleted || r.Status == BuildStatusFailed
}

// AvgPrimsPerNode returns the average number of primitives referenced
// per output node, or 0 if the run produced no nodes.
func (r *BuildRun) AvgPrimsPerNode() float64 {
	if r.NodeCount == 0 {
		return 0
	}
	return float64(r.PrimitiveCount) / float64(r.NodeCount)
}
