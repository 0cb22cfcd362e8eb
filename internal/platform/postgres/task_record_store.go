package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/platform/logger"
	"github.com/finboard/fundsync/internal/store"
)

// PostgresTaskRecordStore implements the store.TaskRecordStore interface
// using PostgreSQL.
type PostgresTaskRecordStore struct {
	db store.DBTX
}

// NewPostgresTaskRecordStore creates a new PostgresTaskRecordStore.
func NewPostgresTaskRecordStore(db store.DBTX) *PostgresTaskRecordStore {
	return &PostgresTaskRecordStore{
		db: db,
	}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *PostgresTaskRecordStore) WithTx(tx *sql.Tx) *PostgresTaskRecordStore {
	return &PostgresTaskRecordStore{db: tx}
}

const taskRecordColumns = `task_id, parent_task_id, type, name, priority, status,
	progress, result, error, start_time, end_time, timeout, delay, input_params, created_at`

// Create persists a new task record.
func (s *PostgresTaskRecordStore) Create(ctx context.Context, rec *domain.TaskRecord) error {
	log := logger.FromContext(ctx)

	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	params, err := json.Marshal(rec.InputParams)
	if err != nil {
		return fmt.Errorf("failed to encode input params: %w", err)
	}

	query := `
		INSERT INTO tasks (` + taskRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = s.db.ExecContext(ctx, query,
		rec.TaskID,
		rec.ParentTaskID,
		rec.Type,
		rec.Name,
		rec.Priority,
		rec.Status,
		rec.Progress,
		rec.Result,
		rec.Error,
		rec.StartTime,
		rec.EndTime,
		rec.Timeout,
		rec.Delay,
		params,
		rec.CreatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			return fmt.Errorf("%w: %s", store.ErrTaskExists, rec.TaskID)
		}
		log.Error("failed to create task record",
			"task_id", rec.TaskID,
			"task_type", rec.Type,
			"error", err)
		return fmt.Errorf("failed to create task record: %w", mapped)
	}

	return nil
}

// GetByID retrieves a task record by its id.
func (s *PostgresTaskRecordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskRecord, error) {
	query := `
		SELECT ` + taskRecordColumns + `
		FROM tasks
		WHERE task_id = $1
	`
	rec, err := scanTaskRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task record: %w", MapError(err))
	}
	return rec, nil
}

// Update applies a partial update to the record with the given id.
func (s *PostgresTaskRecordStore) Update(ctx context.Context, id uuid.UUID, upd store.TaskRecordUpdate) error {
	log := logger.FromContext(ctx)

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Progress != nil {
		add("progress", *upd.Progress)
	}
	if upd.Result != nil {
		add("result", *upd.Result)
	}
	if upd.Error != nil {
		add("error", *upd.Error)
	}
	if upd.StartTime != nil {
		add("start_time", *upd.StartTime)
	}
	if upd.EndTime != nil {
		add("end_time", *upd.EndTime)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE task_id = $%d",
		strings.Join(sets, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task record",
			"task_id", id,
			"error", err)
		return fmt.Errorf("failed to update task record: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, "task record"); err != nil {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	return nil
}

// ListRecent returns up to limit records ordered most recent first.
func (s *PostgresTaskRecordStore) ListRecent(ctx context.Context, limit int) ([]*domain.TaskRecord, error) {
	query := `
		SELECT ` + taskRecordColumns + `
		FROM tasks
		ORDER BY created_at DESC
		LIMIT $1
	`
	return s.queryTaskRecords(ctx, query, limit)
}

// ListByParent returns the records spawned by the given parent task, ordered
// by creation time.
func (s *PostgresTaskRecordStore) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*domain.TaskRecord, error) {
	query := `
		SELECT ` + taskRecordColumns + `
		FROM tasks
		WHERE parent_task_id = $1
		ORDER BY created_at ASC
	`
	return s.queryTaskRecords(ctx, query, parentID)
}

func (s *PostgresTaskRecordStore) queryTaskRecords(ctx context.Context, query string, args ...any) ([]*domain.TaskRecord, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query task records", "error", err)
		return nil, fmt.Errorf("failed to query task records: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.TaskRecord
	for rows.Next() {
		rec, err := scanTaskRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task record rows: %w", err)
	}
	return records, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTaskRecord.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskRecord(row rowScanner) (*domain.TaskRecord, error) {
	var (
		rec       domain.TaskRecord
		parentID  uuid.NullUUID
		result    sql.NullString
		errText   sql.NullString
		startTime sql.NullTime
		endTime   sql.NullTime
		params    []byte
	)

	err := row.Scan(
		&rec.TaskID,
		&parentID,
		&rec.Type,
		&rec.Name,
		&rec.Priority,
		&rec.Status,
		&rec.Progress,
		&result,
		&errText,
		&startTime,
		&endTime,
		&rec.Timeout,
		&rec.Delay,
		&params,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		rec.ParentTaskID = &parentID.UUID
	}
	rec.Result = result.String
	rec.Error = errText.String
	if startTime.Valid {
		t := startTime.Time.UTC()
		rec.StartTime = &t
	}
	if endTime.Valid {
		t := endTime.Time.UTC()
		rec.EndTime = &t
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &rec.InputParams); err != nil {
			return nil, fmt.Errorf("failed to decode input params: %w", err)
		}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	return &rec, nil
}

var _ store.TaskRecordStore = (*PostgresTaskRecordStore)(nil)
