// Package scheduler provides the in-process execution engine that runs
// scheduled task jobs. It supports immediate and delayed one-shot execution,
// pause/resume of jobs that have not started yet, and a misfire grace window
// for runs that start late.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/task"
)

// entry tracks one scheduled job inside the engine.
type entry struct {
	job   task.Job
	timer *time.Timer
	state task.JobState
	due   time.Time
}

// Engine is an in-process task.Engine implementation. Each job runs on its
// own goroutine when its delay elapses; at most one job per id is in flight
// at any time.
type Engine struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*entry
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	logger *slog.Logger
}

// New creates a stopped-clean Engine ready to accept jobs.
func New(logger *slog.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		jobs:   make(map[uuid.UUID]*entry),
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With("component", "scheduler"),
	}
}

// Schedule accepts a job for execution after its delay. Refuses ids that
// are already in flight.
func (e *Engine) Schedule(job task.Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %s has no run function", job.ID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("engine is stopped")
	}
	if _, exists := e.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", task.ErrJobExists, job.ID)
	}

	ent := &entry{
		job:   job,
		state: task.JobStateScheduled,
		due:   time.Now().UTC().Add(job.Delay),
	}
	ent.timer = time.AfterFunc(job.Delay, func() { e.fire(job.ID) })
	e.jobs[job.ID] = ent

	e.logger.Debug("job scheduled",
		"job_id", job.ID,
		"job_name", job.Name,
		"delay", job.Delay)

	return nil
}

// Pause withdraws a scheduled job that has not started yet.
func (e *Engine) Pause(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", task.ErrJobNotFound, id)
	}
	if ent.state != task.JobStateScheduled {
		return fmt.Errorf("%w: %s is %s", task.ErrJobNotPausable, id, ent.state)
	}

	// A false Stop means the timer already fired and the run is being
	// picked up; too late to pause.
	if !ent.timer.Stop() {
		return fmt.Errorf("%w: %s already started", task.ErrJobNotPausable, id)
	}

	ent.state = task.JobStatePaused
	e.logger.Info("job paused", "job_id", id, "job_name", ent.job.Name)
	return nil
}

// Resume reschedules a paused job for immediate execution.
func (e *Engine) Resume(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", task.ErrJobNotFound, id)
	}
	if ent.state != task.JobStatePaused {
		return fmt.Errorf("%w: %s is %s", task.ErrJobNotPaused, id, ent.state)
	}

	ent.state = task.JobStateScheduled
	ent.due = time.Now().UTC()
	ent.timer = time.AfterFunc(0, func() { e.fire(id) })

	e.logger.Info("job resumed", "job_id", id, "job_name", ent.job.Name)
	return nil
}

// Get reports the engine-side state of a job id. Finished jobs are gone.
func (e *Engine) Get(id uuid.UUID) (task.JobState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.jobs[id]
	if !ok {
		return "", false
	}
	return ent.state, true
}

// Stop shuts the engine down: pending timers are cancelled and in-flight
// runs are waited for after their contexts are cancelled.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for id, ent := range e.jobs {
		if ent.state == task.JobStateScheduled || ent.state == task.JobStatePaused {
			ent.timer.Stop()
			delete(e.jobs, id)
		}
	}
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	e.logger.Info("scheduler stopped")
}

// fire moves a due job into the running state and executes it on the
// calling timer goroutine.
func (e *Engine) fire(id uuid.UUID) {
	e.mu.Lock()
	ent, ok := e.jobs[id]
	if !ok || e.closed || ent.state != task.JobStateScheduled {
		e.mu.Unlock()
		return
	}

	// Late runs past the grace window are discarded, not executed.
	if ent.job.MisfireGrace > 0 {
		late := time.Since(ent.due)
		if late > ent.job.MisfireGrace {
			delete(e.jobs, id)
			e.mu.Unlock()
			e.logger.Warn("job misfired past grace window, discarding",
				"job_id", id,
				"job_name", ent.job.Name,
				"late", late)
			return
		}
	}

	ent.state = task.JobStateRunning
	e.wg.Add(1)
	e.mu.Unlock()

	defer e.wg.Done()

	ctx := e.ctx
	if ent.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ent.job.Timeout)
		defer cancel()
	}

	logger := e.logger.With("job_id", id, "job_name", ent.job.Name)
	logger.Debug("job starting")

	// Bookkeeping already happened inside Run; the error surfaces here so
	// environment-level monitoring still observes it.
	if err := ent.job.Run(ctx); err != nil {
		logger.Error("job run failed", "error", err)
	} else {
		logger.Debug("job finished")
	}

	e.mu.Lock()
	delete(e.jobs, id)
	e.mu.Unlock()
}
