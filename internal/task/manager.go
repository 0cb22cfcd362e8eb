package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/store"
)

// ManagerConfig holds tunables for the JobManager.
type ManagerConfig struct {
	// DefaultTimeout is the per-task timeout in seconds used when neither
	// the submission nor the task type config specifies one.
	DefaultTimeout int

	// MisfireGrace is how late a scheduled run may start before the engine
	// discards it.
	MisfireGrace time.Duration

	// HistoryLimit caps TaskHistory queries when the caller passes no limit.
	HistoryLimit int
}

// DefaultManagerConfig returns a ManagerConfig with reasonable defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		DefaultTimeout: 3600,
		MisfireGrace:   time.Minute,
		HistoryLimit:   100,
	}
}

// AddTaskRequest describes one task submission.
type AddTaskRequest struct {
	// Type names a registered task type.
	Type string

	// Priority overrides the type's default priority. Advisory only.
	Priority *int

	// Timeout overrides the type's default timeout, in seconds.
	Timeout *int

	// DelaySeconds postpones the start of the run.
	DelaySeconds int

	// ParentTaskID links the record to the task that spawned it.
	ParentTaskID *uuid.UUID

	// Params is the caller-supplied parameter map, stored verbatim on the
	// record and handed to the task's Execute.
	Params Params
}

// JobManager is the façade of the task subsystem: it creates task records,
// submits them to the execution engine, exposes pause/resume/query, and
// reconciles progress between the cache and durable storage.
type JobManager struct {
	registry *Registry
	records  store.TaskRecordStore
	engine   Engine
	progress *ProgressTracker
	config   ManagerConfig
	logger   *slog.Logger
}

// NewJobManager creates a JobManager wired to the given collaborators.
func NewJobManager(
	registry *Registry,
	records store.TaskRecordStore,
	engine Engine,
	progress *ProgressTracker,
	config ManagerConfig,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		registry: registry,
		records:  records,
		engine:   engine,
		progress: progress,
		config:   config,
		logger:   logger.With("component", "job_manager"),
	}
}

// Progress exposes the manager's progress tracker so running tasks can
// report increments.
func (m *JobManager) Progress() *ProgressTracker {
	return m.progress
}

// Registry exposes the type catalogue for rendering available choices.
func (m *JobManager) Registry() *Registry {
	return m.registry
}

// AddTask validates the submission, creates a durable pending record and
// schedules it on the execution engine. Validation and creation are atomic
// from the caller's point of view: no record exists unless validation passed.
// Returns the new task id.
func (m *JobManager) AddTask(ctx context.Context, req AddTaskRequest) (uuid.UUID, error) {
	if err := m.registry.ValidateParams(req.Type, req.Params); err != nil {
		m.logger.Warn("task submission rejected",
			"task_type", req.Type,
			"error", err)
		return uuid.Nil, err
	}

	// Cannot fail after ValidateParams succeeded.
	cfg, err := m.registry.GetType(req.Type)
	if err != nil {
		return uuid.Nil, err
	}

	rec, err := domain.NewTaskRecord(req.Type, cfg.DisplayName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build task record: %w", err)
	}

	rec.Priority = cfg.DefaultPriority
	if req.Priority != nil {
		rec.Priority = *req.Priority
	}

	rec.Timeout = cfg.DefaultTimeout
	if rec.Timeout == 0 {
		rec.Timeout = m.config.DefaultTimeout
	}
	if req.Timeout != nil {
		rec.Timeout = *req.Timeout
	}

	rec.Delay = req.DelaySeconds
	rec.ParentTaskID = req.ParentTaskID
	rec.InputParams = req.Params

	if err := m.records.Create(ctx, rec); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create task record: %w", err)
	}

	params := req.Params
	job := Job{
		ID:           rec.TaskID,
		Name:         rec.Name,
		Delay:        time.Duration(req.DelaySeconds) * time.Second,
		Timeout:      time.Duration(rec.Timeout) * time.Second,
		MisfireGrace: m.config.MisfireGrace,
		Run: func(runCtx context.Context) error {
			return m.runTask(runCtx, rec.TaskID, req.Type, params)
		},
	}

	if err := m.engine.Schedule(job); err != nil {
		// The record stays pending; a later resume can reschedule it.
		m.logger.Error("failed to schedule task",
			"task_id", rec.TaskID,
			"task_type", req.Type,
			"error", err)
		return uuid.Nil, fmt.Errorf("failed to schedule task: %w", err)
	}

	m.logger.Info("task submitted",
		"task_id", rec.TaskID,
		"task_type", req.Type,
		"delay_seconds", req.DelaySeconds)

	return rec.TaskID, nil
}

// runTask is the execution wrapper: it drives the record through the state
// machine around the task's Execute and reconciles final progress. The
// task's own error is returned to the engine after bookkeeping so that
// environment-level monitoring still observes it.
func (m *JobManager) runTask(ctx context.Context, taskID uuid.UUID, taskType string, params Params) error {
	logger := m.logger.With("task_id", taskID, "task_type", taskType)

	now := time.Now().UTC()
	running := domain.TaskStatusRunning
	if err := m.records.Update(ctx, taskID, store.TaskRecordUpdate{
		Status:    &running,
		StartTime: &now,
	}); err != nil {
		logger.Error("failed to mark task running", "error", err)
		return fmt.Errorf("failed to mark task running: %w", err)
	}

	logger.Info("task started")

	instance, err := m.registry.NewInstance(taskType, taskID, m.progress)
	if err != nil {
		m.finishTask(ctx, taskID, "", err)
		return err
	}

	result, execErr := instance.Execute(ctx, params)

	resultText := ""
	if execErr == nil {
		resultText = encodeResult(result)
		logger.Info("task completed")
	} else {
		logger.Error("task execution failed", "error", execErr)
	}

	m.finishTask(ctx, taskID, resultText, execErr)
	return execErr
}

// finishTask records the terminal transition. Completed tasks land at 100%
// progress; failed tasks preserve the highest progress seen, never
// regressing below what was already durably recorded.
func (m *JobManager) finishTask(ctx context.Context, taskID uuid.UUID, resultText string, execErr error) {
	logger := m.logger.With("task_id", taskID)

	cached, hadCached := m.progress.Forget(taskID)

	finalProgress := 0
	if rec, err := m.records.GetByID(ctx, taskID); err == nil {
		finalProgress = rec.Progress
	} else {
		logger.Error("failed to read record for final progress", "error", err)
	}
	if hadCached && cached > finalProgress {
		finalProgress = cached
	}

	status := domain.TaskStatusCompleted
	if execErr != nil {
		status = domain.TaskStatusFailed
	} else if finalProgress < 100 {
		finalProgress = 100
	}

	now := time.Now().UTC()
	upd := store.TaskRecordUpdate{
		Status:   &status,
		EndTime:  &now,
		Progress: &finalProgress,
	}
	if execErr != nil {
		errText := execErr.Error()
		upd.Error = &errText
	} else {
		upd.Result = &resultText
	}

	if err := m.records.Update(ctx, taskID, upd); err != nil {
		logger.Error("failed to record terminal task state",
			"status", status,
			"error", err)
		return
	}

	logger.Debug("recorded terminal task state",
		"status", status,
		"progress", finalProgress)
}

// PauseTask withdraws a pending task's scheduled run. Returns false if the
// task does not exist or is not in a pausable state (already started,
// finished or unknown to the engine); the record is left unchanged in that
// case.
func (m *JobManager) PauseTask(ctx context.Context, taskID uuid.UUID) bool {
	rec, err := m.records.GetByID(ctx, taskID)
	if err != nil {
		m.logger.Warn("pause requested for unknown task", "task_id", taskID)
		return false
	}

	if !rec.CanTransitionTo(domain.TaskStatusPaused) {
		m.logger.Debug("pause rejected, task not pausable",
			"task_id", taskID,
			"status", rec.Status)
		return false
	}

	if err := m.engine.Pause(taskID); err != nil {
		// The engine says the run already started (or is gone); pausing a
		// running task is a no-op failure, not an error.
		m.logger.Debug("engine refused pause", "task_id", taskID, "error", err)
		return false
	}

	paused := domain.TaskStatusPaused
	if err := m.records.Update(ctx, taskID, store.TaskRecordUpdate{Status: &paused}); err != nil {
		m.logger.Error("failed to persist paused status", "task_id", taskID, "error", err)
		return false
	}

	m.logger.Info("task paused", "task_id", taskID)
	return true
}

// ResumeTask reschedules a paused task. Returns false if the task does not
// exist or is not paused.
func (m *JobManager) ResumeTask(ctx context.Context, taskID uuid.UUID) bool {
	rec, err := m.records.GetByID(ctx, taskID)
	if err != nil {
		m.logger.Warn("resume requested for unknown task", "task_id", taskID)
		return false
	}

	if rec.Status != domain.TaskStatusPaused {
		m.logger.Debug("resume rejected, task not paused",
			"task_id", taskID,
			"status", rec.Status)
		return false
	}

	if err := m.engine.Resume(taskID); err != nil {
		m.logger.Error("engine refused resume", "task_id", taskID, "error", err)
		return false
	}

	pending := domain.TaskStatusPending
	if err := m.records.Update(ctx, taskID, store.TaskRecordUpdate{Status: &pending}); err != nil {
		m.logger.Error("failed to persist pending status", "task_id", taskID, "error", err)
		return false
	}

	m.logger.Info("task resumed", "task_id", taskID)
	return true
}

// GetTask retrieves one task record. Returns ErrTaskNotFound when no record
// exists under the id.
func (m *JobManager) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.TaskRecord, error) {
	rec, err := m.records.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return nil, err
	}
	return rec, nil
}

// TaskHistory returns the most recent task records, newest first.
// A non-positive limit selects the configured default.
func (m *JobManager) TaskHistory(ctx context.Context, limit int) ([]*domain.TaskRecord, error) {
	if limit <= 0 {
		limit = m.config.HistoryLimit
	}
	return m.records.ListRecent(ctx, limit)
}

// ChildTasks returns the records spawned by the given parent task. Fan-out
// parents complete once their children are scheduled, so overall completion
// of a backfill is assembled from this listing, not from the parent record.
func (m *JobManager) ChildTasks(ctx context.Context, parentID uuid.UUID) ([]*domain.TaskRecord, error) {
	return m.records.ListByParent(ctx, parentID)
}

// TasksProgress resolves the latest progress for the given ids, cache first
// with store fallback.
func (m *JobManager) TasksProgress(ctx context.Context, taskIDs []uuid.UUID) map[uuid.UUID]int {
	return m.progress.GetMany(ctx, taskIDs)
}

// encodeResult renders a task's result payload for storage on the record.
func encodeResult(result any) string {
	if result == nil {
		return ""
	}
	if s, ok := result.(string); ok {
		return s
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}
