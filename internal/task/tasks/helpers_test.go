package tasks

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/marketdata"
	"github.com/finboard/fundsync/internal/store"
	"github.com/finboard/fundsync/internal/task"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// fakeProvider implements marketdata.Provider with overridable behavior.
type fakeProvider struct {
	detailFn  func(ctx context.Context, code string) (*marketdata.FundDetail, error)
	rangeFn   func(ctx context.Context, code string, start, end time.Time) ([]marketdata.NAVEntry, error)
	navListFn func(ctx context.Context, fundType, page, pageSize int) (*marketdata.NavListPage, error)
	limit     int
	limitErr  error
}

func (p *fakeProvider) FetchDetail(ctx context.Context, code string) (*marketdata.FundDetail, error) {
	if p.detailFn == nil {
		return nil, marketdata.ErrRejected
	}
	return p.detailFn(ctx, code)
}

func (p *fakeProvider) FetchRange(ctx context.Context, code string, start, end time.Time) ([]marketdata.NAVEntry, error) {
	if p.rangeFn == nil {
		return nil, marketdata.ErrRejected
	}
	return p.rangeFn(ctx, code, start, end)
}

func (p *fakeProvider) FetchNavList(ctx context.Context, fundType, page, pageSize int) (*marketdata.NavListPage, error) {
	if p.navListFn == nil {
		return nil, marketdata.ErrRejected
	}
	return p.navListFn(ctx, fundType, page, pageSize)
}

func (p *fakeProvider) RangeLimit(ctx context.Context) (int, error) {
	if p.limitErr != nil {
		return 0, p.limitErr
	}
	return p.limit, nil
}

// fakeFundStore implements store.FundStore in memory.
type fakeFundStore struct {
	mu     sync.Mutex
	funds  map[string]*domain.Fund
	points map[string][]domain.NAVPoint

	upsertFundErr error
	upsertNavErr  error
}

func newFakeFundStore() *fakeFundStore {
	return &fakeFundStore{
		funds:  make(map[string]*domain.Fund),
		points: make(map[string][]domain.NAVPoint),
	}
}

func (s *fakeFundStore) UpsertFund(ctx context.Context, fund *domain.Fund) error {
	if s.upsertFundErr != nil {
		return s.upsertFundErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *fund
	s.funds[fund.Code] = &clone
	return nil
}

func (s *fakeFundStore) GetFund(ctx context.Context, code string) (*domain.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fund, ok := s.funds[code]
	if !ok {
		return nil, store.ErrFundNotFound
	}
	clone := *fund
	return &clone, nil
}

func (s *fakeFundStore) UpsertNAVPoints(ctx context.Context, points []domain.NAVPoint) error {
	if s.upsertNavErr != nil {
		return s.upsertNavErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		s.points[p.FundCode] = append(s.points[p.FundCode], p)
	}
	return nil
}

func (s *fakeFundStore) CountNAVPoints(ctx context.Context, code string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points[code]), nil
}

// fakeSubmitter records every child submission and assigns fresh ids.
type fakeSubmitter struct {
	mu       sync.Mutex
	requests []task.AddTaskRequest
	ids      []uuid.UUID
	err      error
}

func (f *fakeSubmitter) AddTask(ctx context.Context, req task.AddTaskRequest) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.requests = append(f.requests, req)
	f.ids = append(f.ids, id)
	return id, nil
}

// fakeReporter records the progress values published under each id.
type fakeReporter struct {
	mu      sync.Mutex
	updates []int
}

func (r *fakeReporter) Update(taskID uuid.UUID, progress int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, progress)
}

func (r *fakeReporter) last() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return -1
	}
	return r.updates[len(r.updates)-1]
}

type taskFixture struct {
	provider  *fakeProvider
	funds     *fakeFundStore
	submitter *fakeSubmitter
	reporter  *fakeReporter
	deps      Deps
}

func newTaskFixture() *taskFixture {
	f := &taskFixture{
		provider:  &fakeProvider{limit: 30},
		funds:     newFakeFundStore(),
		submitter: &fakeSubmitter{},
		reporter:  &fakeReporter{},
	}
	f.deps = Deps{
		Provider:  f.provider,
		Funds:     f.funds,
		Submitter: f.submitter,
		Logger:    testLogger(),
	}
	return f
}

// build instantiates a task of the given registration bound to a fresh id.
func (f *taskFixture) build(reg task.Registration) task.Task {
	return reg.New(uuid.New(), f.reporter)
}
