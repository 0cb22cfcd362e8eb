package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/store"
)

// recordingDB is a store.DBTX that records Exec calls and returns canned
// results, for exercising query construction without a live database.
type recordingDB struct {
	queries []string
	args    [][]any
	result  sql.Result
	execErr error
}

func (d *recordingDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	d.queries = append(d.queries, query)
	d.args = append(d.args, args)
	if d.execErr != nil {
		return nil, d.execErr
	}
	return d.result, nil
}

func (d *recordingDB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, nil
}

func (d *recordingDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	d.queries = append(d.queries, query)
	d.args = append(d.args, args)
	return nil, sql.ErrNoRows
}

func (d *recordingDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	d.queries = append(d.queries, query)
	d.args = append(d.args, args)
	return nil
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	db := &recordingDB{}
	s := NewPostgresTaskRecordStore(db)

	err := s.Create(context.Background(), &domain.TaskRecord{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	// Validation failed before any SQL ran.
	assert.Empty(t, db.queries)
}

func TestUpdateBuildsPartialSet(t *testing.T) {
	db := &recordingDB{result: fakeResult{rows: 1}}
	s := NewPostgresTaskRecordStore(db)

	id := uuid.New()
	status := domain.TaskStatusRunning
	progress := 42
	err := s.Update(context.Background(), id, store.TaskRecordUpdate{
		Status:   &status,
		Progress: &progress,
	})
	require.NoError(t, err)

	require.Len(t, db.queries, 1)
	assert.Equal(t, "UPDATE tasks SET status = $1, progress = $2 WHERE task_id = $3", db.queries[0])
	assert.Equal(t, []any{status, progress, id}, db.args[0])
}

func TestUpdateWithNoFieldsIsNoOp(t *testing.T) {
	db := &recordingDB{}
	s := NewPostgresTaskRecordStore(db)

	err := s.Update(context.Background(), uuid.New(), store.TaskRecordUpdate{})
	require.NoError(t, err)
	assert.Empty(t, db.queries)
}

func TestUpdateMissingRecord(t *testing.T) {
	db := &recordingDB{result: fakeResult{rows: 0}}
	s := NewPostgresTaskRecordStore(db)

	status := domain.TaskStatusPaused
	err := s.Update(context.Background(), uuid.New(), store.TaskRecordUpdate{Status: &status})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestUpsertFundRejectsInvalidFund(t *testing.T) {
	db := &recordingDB{}
	s := NewPostgresFundStore(db)

	err := s.UpsertFund(context.Background(), &domain.Fund{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.Empty(t, db.queries)
}

func TestUpsertNAVPointsValidatesEachPoint(t *testing.T) {
	db := &recordingDB{result: fakeResult{rows: 1}}
	s := NewPostgresFundStore(db)

	err := s.UpsertNAVPoints(context.Background(), []domain.NAVPoint{{FundCode: ""}})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.Empty(t, db.queries)

	err = s.UpsertNAVPoints(context.Background(), nil)
	assert.NoError(t, err)
}
