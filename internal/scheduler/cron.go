package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/finboard/fundsync/internal/task"
)

// Submitter is the slice of the job manager the periodic syncer needs.
type Submitter interface {
	AddTask(ctx context.Context, req task.AddTaskRequest) (uuid.UUID, error)
}

// PeriodicSyncer owns the cron schedule that feeds recurring sync tasks
// into the job manager (e.g. the nightly NAV list refresh).
type PeriodicSyncer struct {
	cron    *cron.Cron
	manager Submitter
	logger  *slog.Logger
}

// NewPeriodicSyncer creates a syncer with an empty schedule.
func NewPeriodicSyncer(manager Submitter, logger *slog.Logger) *PeriodicSyncer {
	return &PeriodicSyncer{
		cron:    cron.New(),
		manager: manager,
		logger:  logger.With("component", "periodic_syncer"),
	}
}

// AddJob registers a recurring task submission under the given cron spec.
// The submission itself is asynchronous like any other: the cron entry only
// enqueues, it never waits for the task to finish.
func (s *PeriodicSyncer) AddJob(spec string, req task.AddTaskRequest) error {
	_, err := s.cron.AddFunc(spec, func() {
		id, err := s.manager.AddTask(context.Background(), req)
		if err != nil {
			s.logger.Error("periodic task submission failed",
				"task_type", req.Type,
				"error", err)
			return
		}
		s.logger.Info("periodic task submitted",
			"task_type", req.Type,
			"task_id", id)
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

// Start begins running the schedule on its own goroutine.
func (s *PeriodicSyncer) Start() {
	s.cron.Start()
	s.logger.Info("periodic syncer started", "entries", len(s.cron.Entries()))
}

// Stop halts the schedule and waits for any in-flight submission to finish.
func (s *PeriodicSyncer) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("periodic syncer stopped")
}
