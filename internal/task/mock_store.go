package task

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/store"
)

// MemoryTaskRecordStore is an in-memory store.TaskRecordStore used in tests
// and for running the subsystem without a database.
type MemoryTaskRecordStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.TaskRecord

	// Error hooks for failure-path tests; nil means success.
	CreateErr error
	UpdateErr error
	GetErr    error
}

// NewMemoryTaskRecordStore creates an empty in-memory store.
func NewMemoryTaskRecordStore() *MemoryTaskRecordStore {
	return &MemoryTaskRecordStore{
		records: make(map[uuid.UUID]*domain.TaskRecord),
	}
}

// Create persists a new task record.
func (s *MemoryTaskRecordStore) Create(ctx context.Context, rec *domain.TaskRecord) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if err := rec.Validate(); err != nil {
		return store.ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.TaskID]; exists {
		return store.ErrTaskExists
	}

	clone := *rec
	s.records[rec.TaskID] = &clone
	return nil
}

// GetByID retrieves a task record by id.
func (s *MemoryTaskRecordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskRecord, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	clone := *rec
	return &clone, nil
}

// Update applies a partial update to the record with the given id.
func (s *MemoryTaskRecordStore) Update(ctx context.Context, id uuid.UUID, upd store.TaskRecordUpdate) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return store.ErrTaskNotFound
	}

	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.Progress != nil {
		rec.Progress = *upd.Progress
	}
	if upd.Result != nil {
		rec.Result = *upd.Result
	}
	if upd.Error != nil {
		rec.Error = *upd.Error
	}
	if upd.StartTime != nil {
		rec.StartTime = upd.StartTime
	}
	if upd.EndTime != nil {
		rec.EndTime = upd.EndTime
	}

	return nil
}

// ListRecent returns up to limit records, most recent first.
func (s *MemoryTaskRecordStore) ListRecent(ctx context.Context, limit int) ([]*domain.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*domain.TaskRecord, 0, len(s.records))
	for _, rec := range s.records {
		clone := *rec
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ListByParent returns the records spawned by the given parent task.
func (s *MemoryTaskRecordStore) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*domain.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var children []*domain.TaskRecord
	for _, rec := range s.records {
		if rec.ParentTaskID != nil && *rec.ParentTaskID == parentID {
			clone := *rec
			children = append(children, &clone)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].CreatedAt.Before(children[j].CreatedAt)
	})
	return children, nil
}

var _ store.TaskRecordStore = (*MemoryTaskRecordStore)(nil)
