package model

import "time"

// TuningSuggestion represents a single piece of advice the advisor
// emitted for a finished BuildRun.
type TuningSuggestion struct {
	ID         int64     `json:"id,omitempty" db:"id"`
	RunUUID    string    `json:"run_uuid" db:"run_uuid"`
	Metric     string    `json:"metric,omitempty" db:"metric"`
	Severity   string    `json:"severity,omitempty" db:"severity"`
	Suggestion string    `json:"suggestion" db:"suggestion"`
	CreatedAt  time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// TuningRule represents a threshold rule the advisor evaluates against
// a BuildRun's statistics to decide whether to emit a TuningSuggestion.
type TuningRule struct {
	ID                int64   `json:"id" db:"id"`
	Metric            string  `json:"metric" db:"metric"` // e.g. "avg_prims_per_node"
	Operation         string  `json:"operation" db:"operation"`
	Threshold         float64 `json:"threshold" db:"threshold"`
	Severity          string  `json:"severity" db:"severity"`
	SuggestionContent string  `json:"suggestion_content" db:"suggestion_content"`
}

// Evaluate reports whether value satisfies the rule's operation
// against its threshold. Unknown operations never match.
func (r TuningRule) Evaluate(value float64) bool {
	switch r.Operation {
	case "gt":
		return value > r.Threshold
	case "gte":
		return value >= r.Threshold
	case "lt":
		return value < r.Threshold
	case "lte":
		return value <= r.Threshold
	default:
		return false
	}
}

// TuningSuggestionBuilder helps build suggestions with a fluent interface.
type TuningSuggestionBuilder struct {
	suggestion TuningSuggestion
}

// NewTuningSuggestionBuilder creates a new TuningSuggestionBuilder.
func NewTuningSuggestionBuilder() *TuningSuggestionBuilder {
	return &TuningSuggestionBuilder{
		suggestion: TuningSuggestion{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
}

// WithRunUUID sets the build run UUID.
func (b *TuningSuggestionBuilder) WithRunUUID(runUUID string) *TuningSuggestionBuilder {
	b.suggestion.RunUUID = runUUID
	return b
}

// WithMetric sets the metric the suggestion is about.
func (b *TuningSuggestionBuilder) WithMetric(metric string) *TuningSuggestionBuilder {
	b.suggestion.Metric = metric
	return b
}

// WithSeverity sets the suggestion's severity.
func (b *TuningSuggestionBuilder) WithSeverity(severity string) *TuningSuggestionBuilder {
	b.suggestion.Severity = severity
	return b
}

// WithSuggestion sets the suggestion text.
func (b *TuningSuggestionBuilder) WithSuggestion(text string) *TuningSuggestionBuilder {
	b.suggestion.Suggestion = text
	return b
}

// Build returns the built TuningSuggestion.
func (b *TuningSuggestionBuilder) Build() TuningSuggestion {
	return b.suggestion
}

// IsEmpty returns true if the suggestion text is empty.
func (s *TuningSuggestion) IsEmpty() bool {
	return s.Suggestion == ""
}
