package task

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/store"
)

// DefaultProgressCapacity bounds the progress cache when no explicit
// capacity is configured. It only needs to hold ids that are currently
// in flight, so a small bound is plenty.
const DefaultProgressCapacity = 1024

// ProgressTracker is a bounded write-through cache of per-task progress.
// Running tasks update it on every increment so that status queries stay
// cheap; the durable record is only written at the terminal transition.
// Entries are evicted when their task reaches a terminal status, after the
// final value has been flushed to the store.
//
// Different tasks write different ids concurrently; a single id is never
// written by two executions at once because the engine refuses a second
// in-flight submission under the same id.
type ProgressTracker struct {
	mu       sync.RWMutex
	entries  map[uuid.UUID]int
	capacity int
	records  store.TaskRecordStore
	logger   *slog.Logger
}

// NewProgressTracker creates a tracker reading through to the given record
// store. A capacity <= 0 selects DefaultProgressCapacity.
func NewProgressTracker(records store.TaskRecordStore, capacity int, logger *slog.Logger) *ProgressTracker {
	if capacity <= 0 {
		capacity = DefaultProgressCapacity
	}
	return &ProgressTracker{
		entries:  make(map[uuid.UUID]int),
		capacity: capacity,
		records:  records,
		logger:   logger.With("component", "progress_tracker"),
	}
}

// Update records the latest progress percentage for a task id. Values are
// clamped to [0, 100] and never regress: a lower value than the cached one
// is ignored.
func (t *ProgressTracker) Update(taskID uuid.UUID, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	current, cached := t.entries[taskID]
	if cached && progress <= current {
		return
	}
	if !cached && len(t.entries) >= t.capacity {
		// The cache only ever holds in-flight ids, so hitting the bound
		// means something is leaking terminal entries. Refuse the write
		// rather than grow without limit; reads fall back to the store.
		t.logger.Warn("progress cache at capacity, dropping update",
			"task_id", taskID,
			"progress", progress,
			"capacity", t.capacity)
		return
	}

	t.entries[taskID] = progress
	t.logger.Debug("updated progress cache", "task_id", taskID, "progress", progress)
}

// Peek returns the cached progress for a task id without touching the store.
func (t *ProgressTracker) Peek(taskID uuid.UUID) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	progress, ok := t.entries[taskID]
	return progress, ok
}

// Forget removes a task id from the cache, returning its last cached value.
// The execution wrapper calls this on the terminal transition after flushing
// the final value to the durable store.
func (t *ProgressTracker) Forget(taskID uuid.UUID) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	progress, ok := t.entries[taskID]
	if ok {
		delete(t.entries, taskID)
	}
	return progress, ok
}

// GetMany resolves the latest progress for the given ids, cache first.
// Ids missing from the cache (not currently running) are read from the
// durable store; ids unknown to both are omitted from the result.
func (t *ProgressTracker) GetMany(ctx context.Context, taskIDs []uuid.UUID) map[uuid.UUID]int {
	result := make(map[uuid.UUID]int, len(taskIDs))

	var misses []uuid.UUID
	t.mu.RLock()
	for _, id := range taskIDs {
		if progress, ok := t.entries[id]; ok {
			result[id] = progress
		} else {
			misses = append(misses, id)
		}
	}
	t.mu.RUnlock()

	for _, id := range misses {
		rec, err := t.records.GetByID(ctx, id)
		if err != nil {
			if !store.IsNotFoundError(err) {
				t.logger.Error("failed to read progress from store",
					"task_id", id,
					"error", err)
			}
			continue
		}
		result[id] = rec.Progress
	}

	return result
}

// Len returns the number of cached entries.
func (t *ProgressTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
