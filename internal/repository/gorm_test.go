package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lbvhgo/lbvh/pkg/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&BuildRunRow{},
		&TuningSuggestionRow{},
		&TuningRuleRow{},
	)
	require.NoError(t, err)

	return db
}

func TestGormBuildRunRepository_GetPendingRuns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBuildRunRepository(db)
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		runs, err := repo.GetPendingRuns(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("WithData", func(t *testing.T) {
		run := model.NewBuildRun("run-uuid-1", "datasets/scene.json", model.BuildParams{Dim: 3})
		require.NoError(t, repo.SaveRun(ctx, run))

		runs, err := repo.GetPendingRuns(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "run-uuid-1", runs[0].RunUUID)
	})
}

func TestGormBuildRunRepository_GetRunByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBuildRunRepository(db)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		run, err := repo.GetRunByID(ctx, 999)
		assert.Error(t, err)
		assert.Nil(t, run)
		assert.Contains(t, err.Error(), "build run not found")
	})

	t.Run("Success", func(t *testing.T) {
		run := model.NewBuildRun("run-uuid-2", "datasets/scene.json", model.BuildParams{Dim: 3})
		require.NoError(t, repo.SaveRun(ctx, run))

		result, err := repo.GetRunByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, "run-uuid-2", result.RunUUID)
	})
}

func TestGormBuildRunRepository_GetRunByUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBuildRunRepository(db)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		run, err := repo.GetRunByUUID(ctx, "nonexistent")
		assert.Error(t, err)
		assert.Nil(t, run)
	})

	t.Run("Success", func(t *testing.T) {
		run := model.NewBuildRun("run-uuid-3", "datasets/scene.json", model.BuildParams{Dim: 3})
		require.NoError(t, repo.SaveRun(ctx, run))

		result, err := repo.GetRunByUUID(ctx, "run-uuid-3")
		require.NoError(t, err)
		assert.Equal(t, run.ID, result.ID)
	})
}

func TestGormBuildRunRepository_ListRuns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBuildRunRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := model.NewBuildRun("list-uuid", "datasets/scene.json", model.BuildParams{Dim: 3})
		require.NoError(t, repo.SaveRun(ctx, run))
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestGormBuildRunRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBuildRunRepository(db)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, 999, model.BuildStatusCompleted)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "build run not found")
	})

	t.Run("Success", func(t *testing.T) {
		run := model.NewBuildRun("run-uuid-4", "datasets/scene.json", model.BuildParams{Dim: 3})
		require.NoError(t, repo.SaveRun(ctx, run))

		require.NoError(t, repo.UpdateStatus(ctx, run.ID, model.BuildStatusCompleted))

		var row BuildRunRow
		require.NoError(t, db.First(&row, run.ID).Error)
		assert.Equal(t, model.BuildStatusCompleted, row.Status)
	})
}

func TestGormBuildRunRepository_UpdateStatusWithInfo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBuildRunRepository(db)
	ctx := context.Background()

	run := model.NewBuildRun("run-uuid-5", "datasets/scene.json", model.BuildParams{Dim: 3})
	require.NoError(t, repo.SaveRun(ctx, run))

	require.NoError(t, repo.UpdateStatusWithInfo(ctx, run.ID, model.BuildStatusFailed, "device error"))

	var row BuildRunRow
	require.NoError(t, db.First(&row, run.ID).Error)
	assert.Equal(t, model.BuildStatusFailed, row.Status)
	assert.Equal(t, "device error", row.StatusInfo)
}

func TestGormBuildRunRepository_CompleteRun(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBuildRunRepository(db)
	ctx := context.Background()

	run := model.NewBuildRun("run-uuid-6", "datasets/scene.json", model.BuildParams{Dim: 3})
	require.NoError(t, repo.SaveRun(ctx, run))

	run.Status = model.BuildStatusCompleted
	run.PrimitiveCount = 64
	run.NodeCount = 17
	run.PhaseDurations = model.PhaseDurations{"sort": 5}

	require.NoError(t, repo.CompleteRun(ctx, run.ID, run))

	result, err := repo.GetRunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BuildStatusCompleted, result.Status)
	assert.Equal(t, int64(64), result.PrimitiveCount)
	assert.Equal(t, int64(17), result.NodeCount)
	assert.NotNil(t, result.EndTime)
}

func TestGormBuildRunRepository_LockRunForBuild(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBuildRunRepository(db)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		locked, err := repo.LockRunForBuild(ctx, 999)
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("Success", func(t *testing.T) {
		run := model.NewBuildRun("run-uuid-7", "datasets/scene.json", model.BuildParams{Dim: 3})
		require.NoError(t, repo.SaveRun(ctx, run))

		locked, err := repo.LockRunForBuild(ctx, run.ID)
		require.NoError(t, err)
		assert.True(t, locked)

		var row BuildRunRow
		require.NoError(t, db.First(&row, run.ID).Error)
		assert.Equal(t, model.BuildStatusRunning, row.Status)
		assert.NotNil(t, row.BeginTime)
	})

	t.Run("AlreadyLocked", func(t *testing.T) {
		run := model.NewBuildRun("run-uuid-8", "datasets/scene.json", model.BuildParams{Dim: 3})
		require.NoError(t, repo.SaveRun(ctx, run))

		locked, err := repo.LockRunForBuild(ctx, run.ID)
		require.NoError(t, err)
		require.True(t, locked)

		lockedAgain, err := repo.LockRunForBuild(ctx, run.ID)
		require.NoError(t, err)
		assert.False(t, lockedAgain)
	})
}

func TestGormSuggestionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSuggestionRepository(db)
	ctx := context.Background()

	t.Run("SaveSuggestions_Empty", func(t *testing.T) {
		err := repo.SaveSuggestions(ctx, []model.TuningSuggestion{})
		require.NoError(t, err)
	})

	t.Run("SaveSuggestions_Success", func(t *testing.T) {
		suggestions := []model.TuningSuggestion{
			{RunUUID: "sug-uuid-1", Suggestion: "Test suggestion 1"},
			{RunUUID: "sug-uuid-1", Suggestion: "Test suggestion 2"},
		}

		err := repo.SaveSuggestions(ctx, suggestions)
		require.NoError(t, err)
	})

	t.Run("SaveSuggestions_SkipEmpty", func(t *testing.T) {
		suggestions := []model.TuningSuggestion{
			{RunUUID: "sug-uuid-2", Suggestion: ""},
			{RunUUID: "sug-uuid-2", Suggestion: "Valid suggestion"},
		}

		err := repo.SaveSuggestions(ctx, suggestions)
		require.NoError(t, err)

		result, err := repo.GetSuggestionsByRunUUID(ctx, "sug-uuid-2")
		require.NoError(t, err)
		assert.Len(t, result, 1)
	})

	t.Run("GetSuggestionsByRunUUID_Success", func(t *testing.T) {
		result, err := repo.GetSuggestionsByRunUUID(ctx, "sug-uuid-1")
		require.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("GetAdvisorRules_Success", func(t *testing.T) {
		rule := &TuningRuleRow{
			Metric:            "avg_prims_per_node",
			Operation:         "gt",
			Threshold:         64.0,
			Severity:          "warning",
			SuggestionContent: "leaf threshold is too high for this primitive count",
		}
		require.NoError(t, db.Create(rule).Error)

		rules, err := repo.GetAdvisorRules(ctx)
		require.NoError(t, err)
		assert.Len(t, rules, 1)
		assert.Equal(t, "avg_prims_per_node", rules[0].Metric)
	})
}
