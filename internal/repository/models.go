// Package repository provides database abstraction for the build
// history store.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lbvhgo/lbvh/pkg/model"
)

// BuildRunRow represents the build_run table.
type BuildRunRow struct {
	ID             int64             `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID        string            `gorm:"column:run_uuid;type:varchar(64);uniqueIndex"`
	DatasetRef     string            `gorm:"column:dataset_ref;type:varchar(512)"`
	Status         model.BuildStatus `gorm:"column:status"`
	StatusInfo     string            `gorm:"column:status_info;type:text"`
	UserName       string            `gorm:"column:user_name;type:varchar(128)"`
	Params         JSONField         `gorm:"column:params;type:json"`
	PrimitiveCount int64             `gorm:"column:primitive_count"`
	NodeCount      int64             `gorm:"column:node_count"`
	PhaseDurations JSONField         `gorm:"column:phase_durations;type:json"`
	CreateTime     time.Time         `gorm:"column:create_time;autoCreateTime"`
	BeginTime      *time.Time        `gorm:"column:begin_time"`
	EndTime        *time.Time        `gorm:"column:end_time"`
}

// TableName returns the table name for BuildRunRow.
func (BuildRunRow) TableName() string {
	return "build_run"
}

// ToModel converts BuildRunRow to model.BuildRun.
func (r *BuildRunRow) ToModel() *model.BuildRun {
	run := &model.BuildRun{
		ID:             r.ID,
		RunUUID:        r.RunUUID,
		DatasetRef:     r.DatasetRef,
		Status:         r.Status,
		StatusInfo:     r.StatusInfo,
		UserName:       r.UserName,
		PrimitiveCount: r.PrimitiveCount,
		NodeCount:      r.NodeCount,
		CreateTime:     r.CreateTime,
		BeginTime:      r.BeginTime,
		EndTime:        r.EndTime,
	}

	if r.Params != nil {
		_ = json.Unmarshal(r.Params, &run.Params)
	}
	if r.PhaseDurations != nil {
		_ = json.Unmarshal(r.PhaseDurations, &run.PhaseDurations)
	}

	return run
}

// FromModel populates a BuildRunRow from a model.BuildRun.
func FromModel(run *model.BuildRun) (*BuildRunRow, error) {
	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return nil, err
	}
	phaseJSON, err := json.Marshal(run.PhaseDurations)
	if err != nil {
		return nil, err
	}

	return &BuildRunRow{
		ID:             run.ID,
		RunUUID:        run.RunUUID,
		DatasetRef:     run.DatasetRef,
		Status:         run.Status,
		StatusInfo:     run.StatusInfo,
		UserName:       run.UserName,
		Params:         JSONField(paramsJSON),
		PrimitiveCount: run.PrimitiveCount,
		NodeCount:      run.NodeCount,
		PhaseDurations: JSONField(phaseJSON),
		CreateTime:     run.CreateTime,
		BeginTime:      run.BeginTime,
		EndTime:        run.EndTime,
	}, nil
}

// TuningSuggestionRow represents the tuning_suggestions table.
type TuningSuggestionRow struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID    string    `gorm:"column:run_uuid;type:varchar(64);index"`
	Metric     string    `gorm:"column:metric;type:varchar(128)"`
	Severity   string    `gorm:"column:severity;type:varchar(32)"`
	Suggestion string    `gorm:"column:suggestion;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for TuningSuggestionRow.
func (TuningSuggestionRow) TableName() string {
	return "tuning_suggestions"
}

// ToModel converts TuningSuggestionRow to model.TuningSuggestion.
func (s *TuningSuggestionRow) ToModel() model.TuningSuggestion {
	return model.TuningSuggestion{
		ID:         s.ID,
		RunUUID:    s.RunUUID,
		Metric:     s.Metric,
		Severity:   s.Severity,
		Suggestion: s.Suggestion,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// TuningRuleRow represents the tuning_rules table.
type TuningRuleRow struct {
	ID                int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Metric            string  `gorm:"column:metric;type:varchar(128)"`
	Operation         string  `gorm:"column:operation;type:varchar(16)"`
	Threshold         float64 `gorm:"column:threshold"`
	Severity          string  `gorm:"column:severity;type:varchar(32)"`
	SuggestionContent string  `gorm:"column:suggestion_content;type:text"`
	Deleted           *int64  `gorm:"column:deleted"`
}

// TableName returns the table name for TuningRuleRow.
func (TuningRuleRow) TableName() string {
	return "tuning_rules"
}

// ToModel converts TuningRuleRow to model.TuningRule.
func (r *TuningRuleRow) ToModel() model.TuningRule {
	return model.TuningRule{
		ID:                r.ID,
		Metric:            r.Metric,
		Operation:         r.Operation,
		Threshold:         r.Threshold,
		Severity:          r.Severity,
		SuggestionContent: r.SuggestionContent,
	}
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
