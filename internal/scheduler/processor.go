package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/lbvhgo/lbvh/internal/advisor"
	"github.com/lbvhgo/lbvh/internal/datasource"
	"github.com/lbvhgo/lbvh/internal/repository"
	"github.com/lbvhgo/lbvh/pkg/bvh"
	"github.com/lbvhgo/lbvh/pkg/bvhconfig"
	"github.com/lbvhgo/lbvh/pkg/config"
	"github.com/lbvhgo/lbvh/pkg/device"
	"github.com/lbvhgo/lbvh/pkg/model"
	"github.com/lbvhgo/lbvh/pkg/parallel"
	"github.com/lbvhgo/lbvh/pkg/utils"
)

// DefaultTaskProcessor implements TaskProcessor by running the core
// builder over a job's dataset and recording the result.
type DefaultTaskProcessor struct {
	config  *config.Config
	source  datasource.Source
	repos   *repository.Repositories
	advisor *advisor.Advisor
	pool    parallel.PoolConfig
	logger  utils.Logger
}

// ProcessorConfig holds processor configuration.
type ProcessorConfig struct {
	Config *config.Config
	Source datasource.Source
	Repos  *repository.Repositories
	Pool   parallel.PoolConfig
	Logger utils.Logger
}

// NewDefaultTaskProcessor creates a new DefaultTaskProcessor.
func NewDefaultTaskProcessor(cfg *ProcessorConfig) *DefaultTaskProcessor {
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	pool := cfg.Pool
	if pool.MaxWorkers == 0 {
		pool = parallel.DefaultPoolConfig()
	}

	return &DefaultTaskProcessor{
		config:  cfg.Config,
		source:  cfg.Source,
		repos:   cfg.Repos,
		advisor: advisor.NewAdvisor(),
		pool:    pool,
		logger:  cfg.Logger,
	}
}

// Process loads a job's dataset, builds the tree over it, and records
// the resulting counts, phase durations and tuning suggestions.
func (p *DefaultTaskProcessor) Process(ctx context.Context, task *Task, rules []model.TuningRule) error {
	p.logger.Info("Starting build for run %s (dataset: %s)", task.RunUUID, task.DatasetRef)

	boxes, err := p.source.Load(ctx, task.DatasetRef)
	if err != nil {
		p.fail(ctx, task, fmt.Errorf("failed to load dataset: %w", err))
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	timer := utils.NewTimer(task.RunUUID)

	stream := device.NewStream(p.pool)
	result, buildErr := bvh.Build(ctx, stream, boxes, bvh.Options{
		Config: bvhconfig.Config{
			LeafThreshold:      task.Params.LeafThreshold,
			MaxAllowedLeafSize: task.Params.MaxAllowedLeafSize,
		},
		BlockWidth: task.Params.BlockWidth,
		Timer:      timer,
		Logger:     p.logger,
	})

	syncErr := stream.Sync(ctx)
	stream.Close()

	if buildErr != nil {
		p.fail(ctx, task, fmt.Errorf("build failed: %w", buildErr))
		return fmt.Errorf("build failed: %w", buildErr)
	}
	if syncErr != nil {
		p.fail(ctx, task, fmt.Errorf("stream sync failed: %w", syncErr))
		return fmt.Errorf("stream sync failed: %w", syncErr)
	}

	now := time.Now()
	run := &model.BuildRun{
		ID:             task.ID,
		RunUUID:        task.RunUUID,
		DatasetRef:     task.DatasetRef,
		Status:         model.BuildStatusCompleted,
		Params:         task.Params,
		PrimitiveCount: int64(len(boxes)),
		NodeCount:      int64(len(result.Nodes)),
		PhaseDurations: phaseDurations(timer),
		EndTime:        &now,
	}

	if err := p.repos.Run.CompleteRun(ctx, task.ID, run); err != nil {
		return fmt.Errorf("failed to record completed run: %w", err)
	}

	if err := p.generateSuggestions(ctx, run, rules); err != nil {
		p.logger.Warn("Failed to generate suggestions for run %s: %v", task.RunUUID, err)
	}

	p.logger.Info("Run %s completed: %d primitives, %d nodes", task.RunUUID, run.PrimitiveCount, run.NodeCount)
	return nil
}

// fail marks a run failed with err's message, best-effort.
func (p *DefaultTaskProcessor) fail(ctx context.Context, task *Task, err error) {
	if updateErr := p.repos.Run.UpdateStatusWithInfo(ctx, task.ID, model.BuildStatusFailed, err.Error()); updateErr != nil {
		p.logger.Warn("Failed to mark run %s as failed: %v", task.RunUUID, updateErr)
	}
}

// phaseDurations converts a finished timer's phases into milliseconds.
func phaseDurations(timer *utils.Timer) model.PhaseDurations {
	phases := timer.GetPhases()
	durations := make(model.PhaseDurations, len(phases))
	for _, phase := range phases {
		durations[phase.Name] = phase.Duration.Milliseconds()
	}
	return durations
}

// generateSuggestions runs the advisor over a completed run's metrics
// and persists any suggestions it and the database rules produce.
func (p *DefaultTaskProcessor) generateSuggestions(ctx context.Context, run *model.BuildRun, rules []model.TuningRule) error {
	ruleCtx := advisor.NewRuleContext(run)
	suggestions := p.advisor.AdviseWithDBRules(ruleCtx, rules)
	if len(suggestions) == 0 {
		return nil
	}
	return p.repos.Suggestion.SaveSuggestions(ctx, suggestions)
}
