package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobState is the engine-side state of a scheduled job.
type JobState string

// Possible job states
const (
	JobStateScheduled JobState = "scheduled"
	JobStatePaused    JobState = "paused"
	JobStateRunning   JobState = "running"
)

// Common engine errors
var (
	// ErrJobExists is returned when a job id is already in flight.
	ErrJobExists = errors.New("job already scheduled")

	// ErrJobNotFound is returned for operations on unknown job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotPausable is returned when pausing a job that already
	// started or finished.
	ErrJobNotPausable = errors.New("job is not in a pausable state")

	// ErrJobNotPaused is returned when resuming a job that is not paused.
	ErrJobNotPaused = errors.New("job is not paused")
)

// Job is one unit of work handed to the execution engine.
type Job struct {
	ID   uuid.UUID
	Name string

	// Delay postpones the start of the run.
	Delay time.Duration

	// Timeout bounds the run; the engine cancels the run context when it
	// elapses. Zero means no limit.
	Timeout time.Duration

	// MisfireGrace is how late the run may start before it is discarded.
	MisfireGrace time.Duration

	// Run executes the job. The returned error is observed by the engine
	// for environment-level monitoring; all bookkeeping happens before it
	// is returned.
	Run func(ctx context.Context) error
}

// Engine is the execution collaborator that runs scheduled jobs. The core
// requires only schedule-now, pause-by-id, resume-by-id and lookup; it makes
// no assumption about the engine's threading model beyond at most one
// concurrent execution per job id.
type Engine interface {
	// Schedule accepts a job for execution after its delay.
	// Returns ErrJobExists if the id is already in flight.
	Schedule(job Job) error

	// Pause withdraws a scheduled job that has not started yet.
	// Returns ErrJobNotPausable if it already started and ErrJobNotFound
	// if the id is unknown.
	Pause(id uuid.UUID) error

	// Resume reschedules a paused job. Returns ErrJobNotPaused if the job
	// is not paused and ErrJobNotFound if the id is unknown.
	Resume(id uuid.UUID) error

	// Get reports the engine-side state of a job id.
	Get(id uuid.UUID) (JobState, bool)
}
