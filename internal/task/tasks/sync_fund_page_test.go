package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/marketdata"
	"github.com/finboard/fundsync/internal/task"
)

func TestSyncFundPageSpawnsAndUpdates(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture()
	f.provider.navListFn = func(ctx context.Context, fundType, page, pageSize int) (*marketdata.NavListPage, error) {
		assert.Equal(t, FundTypeAll, fundType)
		assert.Equal(t, 1, page)
		assert.Equal(t, 100, pageSize)
		return &marketdata.NavListPage{
			Total: 2,
			Items: []marketdata.NavListItem{
				{FundCode: "000001", Name: "Known fund", Nav: 1.23, NavDate: "2024-06-03"},
				{FundCode: "000002", Name: "New fund", Nav: 2.34, NavDate: "2024-06-03"},
			},
		}, nil
	}

	// 000001 is known and already has history: it only gets its latest NAV
	// point upserted. 000002 is unknown: it gets a detail child and a
	// backfill child.
	est := time.Now().UTC().AddDate(-1, 0, 0)
	require.NoError(t, f.funds.UpsertFund(ctx, &domain.Fund{Code: "000001", EstablishmentDate: &est}))
	require.NoError(t, f.funds.UpsertNAVPoints(ctx, []domain.NAVPoint{
		{FundCode: "000001", NavDate: time.Now().UTC().AddDate(0, 0, -1)},
	}))

	instance := f.build(NewSyncFundPage(f.deps))
	result, err := instance.Execute(ctx, task.Params{
		"fund_type": FundTypeAll,
		"page":      1,
	})
	require.NoError(t, err)

	require.Len(t, f.submitter.requests, 2)
	assert.Equal(t, "fund_detail", f.submitter.requests[0].Type)
	assert.Equal(t, "000002", f.submitter.requests[0].Params.String("fund_code", ""))
	assert.Equal(t, "sync_fund_nav", f.submitter.requests[1].Type)
	assert.Equal(t, "000002", f.submitter.requests[1].Params.String("fund_code", ""))

	count, err := f.funds.CountNAVPoints(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	summary, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, summary["updated"])
	assert.Equal(t, 2, summary["items"])
	assert.Equal(t, 100, f.reporter.last())
}

func TestSyncFundPageHistoryNavDisabled(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture()
	f.provider.navListFn = func(ctx context.Context, fundType, page, pageSize int) (*marketdata.NavListPage, error) {
		return &marketdata.NavListPage{
			Total: 1,
			Items: []marketdata.NavListItem{
				{FundCode: "000003", Nav: 3.21, NavDate: "2024-06-03"},
			},
		}, nil
	}
	require.NoError(t, f.funds.UpsertFund(ctx, &domain.Fund{Code: "000003"}))

	instance := f.build(NewSyncFundPage(f.deps))
	_, err := instance.Execute(ctx, task.Params{
		"fund_type":   FundTypeBond,
		"page":        1,
		"history_nav": false,
	})
	require.NoError(t, err)

	// No backfill spawned; the latest point was upserted instead.
	assert.Empty(t, f.submitter.requests)
	count, err := f.funds.CountNAVPoints(ctx, "000003")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSyncFundPageRequiredParams(t *testing.T) {
	f := newTaskFixture()

	tests := []struct {
		name   string
		params task.Params
	}{
		{name: "missing_fund_type", params: task.Params{"page": 1}},
		{name: "missing_page", params: task.Params{"fund_type": FundTypeAll}},
		{name: "non_positive_page", params: task.Params{"fund_type": FundTypeAll, "page": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance := f.build(NewSyncFundPage(f.deps))
			_, err := instance.Execute(context.Background(), tt.params)
			require.Error(t, err)
			assert.True(t, task.IsParamError(err))
		})
	}
}

func TestSyncFundPageProviderFailure(t *testing.T) {
	f := newTaskFixture()
	f.provider.navListFn = func(ctx context.Context, fundType, page, pageSize int) (*marketdata.NavListPage, error) {
		return nil, marketdata.ErrUnavailable
	}

	instance := f.build(NewSyncFundPage(f.deps))
	_, err := instance.Execute(context.Background(), task.Params{
		"fund_type": FundTypeAll,
		"page":      1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, marketdata.ErrUnavailable)
}
