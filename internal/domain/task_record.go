package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task record
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusPaused    TaskStatus = "paused"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Common validation errors for TaskRecord
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskType     = errors.New("task type cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrInvalidProgress   = errors.New("progress must be between 0 and 100")
	ErrInvalidTransition = errors.New("invalid task status transition")
)

// TaskRecord is the durable representation of one scheduled unit of work.
// It is created in pending state by the job manager and mutated by the
// execution wrapper as the task moves through its lifecycle.
type TaskRecord struct {
	TaskID       uuid.UUID      `json:"task_id"`
	ParentTaskID *uuid.UUID     `json:"parent_task_id,omitempty"`
	Type         string         `json:"type"`
	Name         string         `json:"name"`
	Priority     int            `json:"priority"`
	Status       TaskStatus     `json:"status"`
	Progress     int            `json:"progress"`
	Result       string         `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	StartTime    *time.Time     `json:"start_time,omitempty"`
	EndTime      *time.Time     `json:"end_time,omitempty"`
	Timeout      int            `json:"timeout"`
	Delay        int            `json:"delay"`
	InputParams  map[string]any `json:"input_params,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewTaskRecord creates a new TaskRecord in pending state with a fresh ID.
// Returns an error if validation fails.
func NewTaskRecord(taskType, name string) (*TaskRecord, error) {
	rec := &TaskRecord{
		TaskID:    uuid.New(),
		Type:      taskType,
		Name:      name,
		Status:    TaskStatusPending,
		Progress:  0,
		CreatedAt: time.Now().UTC(),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks if the TaskRecord has valid data.
func (r *TaskRecord) Validate() error {
	if r.TaskID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if r.Type == "" {
		return ErrEmptyTaskType
	}

	if !isValidTaskStatus(r.Status) {
		return ErrInvalidTaskStatus
	}

	if r.Progress < 0 || r.Progress > 100 {
		return ErrInvalidProgress
	}

	return nil
}

// IsTerminal reports whether the record has reached a terminal status.
func (r *TaskRecord) IsTerminal() bool {
	return r.Status == TaskStatusCompleted || r.Status == TaskStatusFailed
}

// CanTransitionTo reports whether moving to the given status is a valid
// edge of the task state machine. Paused is reachable only from pending;
// pausing never interrupts a running execution.
func (r *TaskRecord) CanTransitionTo(next TaskStatus) bool {
	switch r.Status {
	case TaskStatusPending:
		return next == TaskStatusRunning || next == TaskStatusPaused
	case TaskStatusRunning:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	case TaskStatusPaused:
		return next == TaskStatusPending
	default:
		// Completed and failed are terminal.
		return false
	}
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusRunning, TaskStatusPaused,
		TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}
