package source

import (
	"github.com/lbvhgo/lbvh/pkg/model"
)

// TaskEvent represents a unified build-job event from any source.
type TaskEvent struct {
	// ID is the unique identifier for this event.
	ID string

	// Run is the build run the event carries.
	Run *model.BuildRun

	// SourceType indicates which type of source this event came from.
	SourceType SourceType

	// SourceName is the name of the source instance.
	SourceName string

	// Priority indicates the job priority (higher value = higher priority).
	Priority int

	// Metadata holds source-specific metadata.
	Metadata map[string]string

	// AckToken is used for acknowledgment (e.g., Kafka offset, HTTP request context).
	AckToken interface{}
}

// NewTaskEvent creates a new TaskEvent from a model.BuildRun. Priority
// defaults to 0 (normal); callers that know more about a run's
// urgency (e.g. an HTTP submission marked urgent) can override it.
func NewTaskEvent(run *model.BuildRun, sourceType SourceType, sourceName string) *TaskEvent {
	return &TaskEvent{
		ID:         run.RunUUID,
		Run:        run,
		SourceType: sourceType,
		SourceName: sourceName,
		Metadata:   make(map[string]string),
	}
}

// WithMetadata adds metadata to the event and returns the event for chaining.
func (e *TaskEvent) WithMetadata(key, value string) *TaskEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// WithAckToken sets the ack token and returns the event for chaining.
func (e *TaskEvent) WithAckToken(token interface{}) *TaskEvent {
	e.AckToken = token
	return e
}

// GetMetadata retrieves a metadata value by key.
func (e *TaskEvent) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
