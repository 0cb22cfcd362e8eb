package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
)

// TaskRecordUpdate describes a partial update of a task record.
// Nil fields are left untouched.
type TaskRecordUpdate struct {
	Status    *domain.TaskStatus
	Progress  *int
	Result    *string
	Error     *string
	StartTime *time.Time
	EndTime   *time.Time
}

// TaskRecordStore defines the interface for persisting task records.
// Implementations must be safe for concurrent use.
type TaskRecordStore interface {
	// Create persists a new task record. Returns ErrTaskExists if a record
	// with the same id already exists and ErrInvalidEntity if the record
	// fails validation.
	Create(ctx context.Context, rec *domain.TaskRecord) error

	// GetByID retrieves a task record by its id.
	// Returns ErrTaskNotFound if no record exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskRecord, error)

	// Update applies a partial update to the record with the given id.
	// Returns ErrTaskNotFound if no record exists.
	Update(ctx context.Context, id uuid.UUID, upd TaskRecordUpdate) error

	// ListRecent returns up to limit records ordered most recent first.
	ListRecent(ctx context.Context, limit int) ([]*domain.TaskRecord, error)

	// ListByParent returns the records spawned by the given parent task,
	// ordered by creation time.
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]*domain.TaskRecord, error)
}
