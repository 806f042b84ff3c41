package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lbvhgo/lbvh/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBuildRunRepository implements BuildRunRepository using GORM.
type GormBuildRunRepository struct {
	db *gorm.DB
}

// NewGormBuildRunRepository creates a new GormBuildRunRepository.
func NewGormBuildRunRepository(db *gorm.DB) *GormBuildRunRepository {
	return &GormBuildRunRepository{db: db}
}

// GetPendingRuns retrieves runs that are queued to be built.
func (r *GormBuildRunRepository) GetPendingRuns(ctx context.Context, limit int) ([]*model.BuildRun, error) {
	var rows []BuildRunRow

	err := r.db.WithContext(ctx).
		Where("status = ?", model.BuildStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query pending runs: %w", err)
	}

	result := make([]*model.BuildRun, len(rows))
	for i, row := range rows {
		result[i] = row.ToModel()
	}

	return result, nil
}

// GetRunByID retrieves a run by its numeric ID.
func (r *GormBuildRunRepository) GetRunByID(ctx context.Context, id int64) (*model.BuildRun, error) {
	var row BuildRunRow

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("build run not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get build run: %w", err)
	}

	return row.ToModel(), nil
}

// GetRunByUUID retrieves a run by its UUID.
func (r *GormBuildRunRepository) GetRunByUUID(ctx context.Context, uuid string) (*model.BuildRun, error) {
	var row BuildRunRow

	err := r.db.WithContext(ctx).Where("run_uuid = ?", uuid).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("build run not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get build run: %w", err)
	}

	return row.ToModel(), nil
}

// SaveRun inserts a new BuildRun.
func (r *GormBuildRunRepository) SaveRun(ctx context.Context, run *model.BuildRun) error {
	row, err := FromModel(run)
	if err != nil {
		return fmt.Errorf("failed to marshal build run: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to save build run: %w", err)
	}

	run.ID = row.ID
	return nil
}

// ListRuns lists the most recent runs, newest first.
func (r *GormBuildRunRepository) ListRuns(ctx context.Context, limit int) ([]*model.BuildRun, error) {
	var rows []BuildRunRow

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list build runs: %w", err)
	}

	result := make([]*model.BuildRun, len(rows))
	for i, row := range rows {
		result[i] = row.ToModel()
	}

	return result, nil
}

// UpdateStatus updates the status of a run.
func (r *GormBuildRunRepository) UpdateStatus(ctx context.Context, id int64, status model.BuildStatus) error {
	result := r.db.WithContext(ctx).
		Model(&BuildRunRow{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("build run not found: %d", id)
	}

	return nil
}

// UpdateStatusWithInfo updates the status with additional info.
func (r *GormBuildRunRepository) UpdateStatusWithInfo(ctx context.Context, id int64, status model.BuildStatus, info string) error {
	result := r.db.WithContext(ctx).
		Model(&BuildRunRow{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"status_info": info,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("build run not found: %d", id)
	}

	return nil
}

// CompleteRun records a finished run's counts, phase durations, and end time.
func (r *GormBuildRunRepository) CompleteRun(ctx context.Context, id int64, run *model.BuildRun) error {
	row, err := FromModel(run)
	if err != nil {
		return fmt.Errorf("failed to marshal build run: %w", err)
	}

	endTime := run.EndTime
	if endTime == nil {
		now := time.Now()
		endTime = &now
	}

	result := r.db.WithContext(ctx).
		Model(&BuildRunRow{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          run.Status,
			"primitive_count": run.PrimitiveCount,
			"node_count":      run.NodeCount,
			"phase_durations": row.PhaseDurations,
			"end_time":        endTime,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to complete build run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("build run not found: %d", id)
	}

	return nil
}

// LockRunForBuild attempts to lock a pending run for building using FOR UPDATE.
func (r *GormBuildRunRepository) LockRunForBuild(ctx context.Context, id int64) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row BuildRunRow

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", id, model.BuildStatusPending).
			First(&row).Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		now := time.Now()
		return tx.Model(&BuildRunRow{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     model.BuildStatusRunning,
				"begin_time": now,
			}).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock build run: %w", err)
	}

	return true, nil
}

// GormSuggestionRepository implements SuggestionRepository using GORM.
type GormSuggestionRepository struct {
	db *gorm.DB
}

// NewGormSuggestionRepository creates a new GormSuggestionRepository.
func NewGormSuggestionRepository(db *gorm.DB) *GormSuggestionRepository {
	return &GormSuggestionRepository{db: db}
}

// SaveSuggestions saves multiple suggestions to the database.
func (r *GormSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []model.TuningSuggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		for _, sug := range suggestions {
			if sug.Suggestion == "" {
				continue
			}

			record := &TuningSuggestionRow{
				RunUUID:    sug.RunUUID,
				Metric:     sug.Metric,
				Severity:   sug.Severity,
				Suggestion: sug.Suggestion,
				CreatedAt:  now,
				UpdatedAt:  now,
			}

			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to insert suggestion: %w", err)
			}
		}

		return nil
	})
}

// GetSuggestionsByRunUUID retrieves suggestions for a run.
func (r *GormSuggestionRepository) GetSuggestionsByRunUUID(ctx context.Context, runUUID string) ([]model.TuningSuggestion, error) {
	var records []TuningSuggestionRow

	err := r.db.WithContext(ctx).Where("run_uuid = ?", runUUID).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}

	suggestions := make([]model.TuningSuggestion, len(records))
	for i, rec := range records {
		suggestions[i] = rec.ToModel()
	}

	return suggestions, nil
}

// GetAdvisorRules retrieves all active advisor rules.
func (r *GormSuggestionRepository) GetAdvisorRules(ctx context.Context) ([]model.TuningRule, error) {
	var records []TuningRuleRow

	err := r.db.WithContext(ctx).Where("deleted IS NULL").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}

	rules := make([]model.TuningRule, len(records))
	for i, rec := range records {
		rules[i] = rec.ToModel()
	}

	return rules, nil
}
