package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/fundsync/internal/task"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(setupTestLogger())
	t.Cleanup(e.Stop)
	return e
}

func TestScheduleRunsJob(t *testing.T) {
	e := newTestEngine(t)

	var ran atomic.Bool
	err := e.Schedule(task.Job{
		ID:   uuid.New(),
		Name: "immediate",
		Run: func(ctx context.Context) error {
			ran.Store(true)
			return nil
		},
	})
	require.NoError(t, err)

	assert.Eventually(t, ran.Load, time.Second, 5*time.Millisecond)
}

func TestScheduleRefusesDuplicateID(t *testing.T) {
	e := newTestEngine(t)

	id := uuid.New()
	blocker := make(chan struct{})
	defer close(blocker)

	err := e.Schedule(task.Job{
		ID:   id,
		Name: "first",
		Run: func(ctx context.Context) error {
			<-blocker
			return nil
		},
	})
	require.NoError(t, err)

	err = e.Schedule(task.Job{
		ID:   id,
		Name: "second",
		Run:  func(ctx context.Context) error { return nil },
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrJobExists)
}

func TestScheduleRequiresRunFunc(t *testing.T) {
	e := newTestEngine(t)

	err := e.Schedule(task.Job{ID: uuid.New(), Name: "no-op"})
	require.Error(t, err)
}

func TestPauseAndResume(t *testing.T) {
	e := newTestEngine(t)

	id := uuid.New()
	var ran atomic.Bool

	// A long delay keeps the job pausable.
	err := e.Schedule(task.Job{
		ID:    id,
		Name:  "delayed",
		Delay: time.Hour,
		Run: func(ctx context.Context) error {
			ran.Store(true)
			return nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, e.Pause(id))

	state, ok := e.Get(id)
	require.True(t, ok)
	assert.Equal(t, task.JobStatePaused, state)
	assert.False(t, ran.Load())

	// Resume fires the job immediately, ignoring the original delay.
	require.NoError(t, e.Resume(id))
	assert.Eventually(t, ran.Load, time.Second, 5*time.Millisecond)
}

func TestPauseUnknownJob(t *testing.T) {
	e := newTestEngine(t)

	err := e.Pause(uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrJobNotFound)
}

func TestPauseRunningJobFails(t *testing.T) {
	e := newTestEngine(t)

	id := uuid.New()
	started := make(chan struct{})
	blocker := make(chan struct{})
	defer close(blocker)

	err := e.Schedule(task.Job{
		ID:   id,
		Name: "long-running",
		Run: func(ctx context.Context) error {
			close(started)
			<-blocker
			return nil
		},
	})
	require.NoError(t, err)

	<-started
	err = e.Pause(id)
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrJobNotPausable)
}

func TestResumeRequiresPausedState(t *testing.T) {
	e := newTestEngine(t)

	id := uuid.New()
	err := e.Schedule(task.Job{
		ID:    id,
		Name:  "delayed",
		Delay: time.Hour,
		Run:   func(ctx context.Context) error { return nil },
	})
	require.NoError(t, err)

	err = e.Resume(id)
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrJobNotPaused)

	assert.ErrorIs(t, e.Resume(uuid.New()), task.ErrJobNotFound)
}

func TestJobErrorIsObserved(t *testing.T) {
	e := newTestEngine(t)

	done := make(chan error, 1)
	err := e.Schedule(task.Job{
		ID:   uuid.New(),
		Name: "failing",
		Run: func(ctx context.Context) error {
			failure := errors.New("boom")
			done <- failure
			return failure
		},
	})
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.EqualError(t, err, "boom")
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
}

func TestJobTimeoutCancelsContext(t *testing.T) {
	e := newTestEngine(t)

	done := make(chan error, 1)
	err := e.Schedule(task.Job{
		ID:      uuid.New(),
		Name:    "slow",
		Timeout: 20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			done <- ctx.Err()
			return ctx.Err()
		},
	})
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("job context never timed out")
	}
}

func TestFinishedJobLeavesEngine(t *testing.T) {
	e := newTestEngine(t)

	id := uuid.New()
	err := e.Schedule(task.Job{
		ID:   id,
		Name: "quick",
		Run:  func(ctx context.Context) error { return nil },
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := e.Get(id)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestStopCancelsPendingJobs(t *testing.T) {
	e := New(setupTestLogger())

	var ran atomic.Bool
	err := e.Schedule(task.Job{
		ID:    uuid.New(),
		Name:  "never",
		Delay: time.Hour,
		Run: func(ctx context.Context) error {
			ran.Store(true)
			return nil
		},
	})
	require.NoError(t, err)

	e.Stop()
	assert.False(t, ran.Load())

	// A stopped engine refuses new work.
	err = e.Schedule(task.Job{
		ID:   uuid.New(),
		Name: "late",
		Run:  func(ctx context.Context) error { return nil },
	})
	require.Error(t, err)
}
