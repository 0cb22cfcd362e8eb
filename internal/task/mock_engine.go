package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ManualEngine is an Engine implementation that never runs jobs on its own;
// tests drive execution explicitly with RunJob. It mirrors the real engine's
// acceptance and pause/resume semantics.
type ManualEngine struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*manualJob
}

type manualJob struct {
	job   Job
	state JobState
}

// NewManualEngine creates an empty ManualEngine.
func NewManualEngine() *ManualEngine {
	return &ManualEngine{jobs: make(map[uuid.UUID]*manualJob)}
}

// Schedule accepts a job without running it.
func (e *ManualEngine) Schedule(job Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
	}
	e.jobs[job.ID] = &manualJob{job: job, state: JobStateScheduled}
	return nil
}

// Pause withdraws a scheduled job.
func (e *ManualEngine) Pause(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	mj, ok := e.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if mj.state != JobStateScheduled {
		return fmt.Errorf("%w: %s is %s", ErrJobNotPausable, id, mj.state)
	}
	mj.state = JobStatePaused
	return nil
}

// Resume reschedules a paused job.
func (e *ManualEngine) Resume(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	mj, ok := e.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if mj.state != JobStatePaused {
		return fmt.Errorf("%w: %s is %s", ErrJobNotPaused, id, mj.state)
	}
	mj.state = JobStateScheduled
	return nil
}

// Get reports the engine-side state of a job id.
func (e *ManualEngine) Get(id uuid.UUID) (JobState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mj, ok := e.jobs[id]
	if !ok {
		return "", false
	}
	return mj.state, true
}

// RunJob executes a scheduled job synchronously and removes it, returning
// the job's own error. Running an unknown or paused job is an error.
func (e *ManualEngine) RunJob(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	mj, ok := e.jobs[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if mj.state != JobStateScheduled {
		e.mu.Unlock()
		return fmt.Errorf("job %s is %s, not runnable", id, mj.state)
	}
	mj.state = JobStateRunning
	e.mu.Unlock()

	err := mj.job.Run(ctx)

	e.mu.Lock()
	delete(e.jobs, id)
	e.mu.Unlock()

	return err
}

// ScheduledIDs returns the ids of all jobs currently scheduled, in no
// particular order.
func (e *ManualEngine) ScheduledIDs() []uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ids []uuid.UUID
	for id, mj := range e.jobs {
		if mj.state == JobStateScheduled {
			ids = append(ids, id)
		}
	}
	return ids
}

var _ Engine = (*ManualEngine)(nil)
