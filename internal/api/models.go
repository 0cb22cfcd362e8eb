package api

import (
	"github.com/finboard/fundsync/internal/domain"
)

// AddTaskRequest is the submission payload of POST /api/tasks.
type AddTaskRequest struct {
	Type         string         `json:"type"          validate:"required"`
	Priority     *int           `json:"priority,omitempty"`
	Timeout      *int           `json:"timeout,omitempty"`
	DelaySeconds int            `json:"delay_seconds,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// AddTaskResponse carries the id of a freshly submitted task.
type AddTaskResponse struct {
	TaskID string `json:"task_id"`
}

// ActionResponse reports the outcome of a pause or resume request.
type ActionResponse struct {
	Success bool `json:"success"`
}

// NotFoundResponse is the envelope returned when a task id is unknown.
type NotFoundResponse struct {
	Status string `json:"status"`
}

// TaskListResponse wraps a list of task records.
type TaskListResponse struct {
	Tasks []*domain.TaskRecord `json:"tasks"`
}

// ProgressResponse maps task ids to their latest progress percentage.
type ProgressResponse struct {
	Progress map[string]int `json:"progress"`
}

// TaskTypesResponse lists the registered task type configurations.
type TaskTypesResponse struct {
	Types []domain.TaskTypeConfig `json:"types"`
}
