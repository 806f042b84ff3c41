// Package repository provides database abstraction for the build
// history store.
package repository

import (
	"context"

	"github.com/lbvhgo/lbvh/pkg/model"
)

// BuildRunRepository defines the interface for BuildRun database operations.
type BuildRunRepository interface {
	// GetPendingRuns retrieves runs that are queued to be built.
	GetPendingRuns(ctx context.Context, limit int) ([]*model.BuildRun, error)

	// GetRunByID retrieves a run by its numeric ID.
	GetRunByID(ctx context.Context, id int64) (*model.BuildRun, error)

	// GetRunByUUID retrieves a run by its UUID.
	GetRunByUUID(ctx context.Context, uuid string) (*model.BuildRun, error)

	// SaveRun inserts a new BuildRun.
	SaveRun(ctx context.Context, run *model.BuildRun) error

	// ListRuns lists the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*model.BuildRun, error)

	// UpdateStatus updates the status of a run.
	UpdateStatus(ctx context.Context, id int64, status model.BuildStatus) error

	// UpdateStatusWithInfo updates the status with additional info.
	UpdateStatusWithInfo(ctx context.Context, id int64, status model.BuildStatus, info string) error

	// CompleteRun records a finished run's counts, phase durations, and end time.
	CompleteRun(ctx context.Context, id int64, run *model.BuildRun) error

	// LockRunForBuild attempts to lock a pending run for building (prevents
	// concurrent processing by two scheduler workers).
	LockRunForBuild(ctx context.Context, id int64) (bool, error)
}

// SuggestionRepository defines the interface for tuning-suggestion operations.
type SuggestionRepository interface {
	// SaveSuggestions saves multiple suggestions for a run.
	SaveSuggestions(ctx context.Context, suggestions []model.TuningSuggestion) error

	// GetSuggestionsByRunUUID retrieves suggestions for a run.
	GetSuggestionsByRunUUID(ctx context.Context, runUUID string) ([]model.TuningSuggestion, error)

	// GetAdvisorRules retrieves all active advisor rules.
	GetAdvisorRules(ctx context.Context) ([]model.TuningRule, error)
}
