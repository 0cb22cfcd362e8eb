// Package tasks holds the concrete task types of the fund sync service.
// Each type binds the external data provider and the persistence layer
// into one executable unit registered with the task registry at startup.
package tasks

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/marketdata"
	"github.com/finboard/fundsync/internal/store"
	"github.com/finboard/fundsync/internal/task"
)

const dateLayout = "2006-01-02"

// Fund type codes used by the provider's list endpoint.
const (
	FundTypeStock = 1
	FundTypeMixed = 2
	FundTypeIndex = 3
	FundTypeQDII  = 4
	FundTypeLOF   = 5
	FundTypeBond  = 6
	FundTypeFOF   = 7
	FundTypeAll   = 10
)

// Shared parameter specs reused across task types.
var (
	paramFundCode = domain.ParamSpec{
		Key:         "fund_code",
		Name:        "Fund code",
		Kind:        domain.ParamKindExternalLookup,
		Required:    true,
		Description: "Code of the fund to update",
	}

	paramSubTaskDelay = domain.ParamSpec{
		Key:         "sub_task_delay",
		Name:        "Child task stagger",
		Kind:        domain.ParamKindNumber,
		Default:     2,
		Description: "Upper bound in seconds of the random delay added between spawned child tasks",
	}

	paramPage = domain.ParamSpec{
		Key:         "page",
		Name:        "Page",
		Kind:        domain.ParamKindNumber,
		Required:    true,
		Default:     1,
		Description: "Page number of the provider's NAV list",
	}

	paramPageSize = domain.ParamSpec{
		Key:         "page_size",
		Name:        "Page size",
		Kind:        domain.ParamKindNumber,
		Default:     100,
		Description: "Rows per page of the provider's NAV list",
	}

	paramFundType = domain.ParamSpec{
		Key:         "fund_type",
		Name:        "Fund type",
		Kind:        domain.ParamKindSelect,
		Required:    true,
		Default:     FundTypeAll,
		Description: "Which fund category to sync",
		Options: []domain.SelectOption{
			{Label: "All", Value: FundTypeAll},
			{Label: "Stock", Value: FundTypeStock},
			{Label: "Mixed", Value: FundTypeMixed},
			{Label: "Index", Value: FundTypeIndex},
			{Label: "QDII", Value: FundTypeQDII},
			{Label: "LOF", Value: FundTypeLOF},
			{Label: "Bond", Value: FundTypeBond},
			{Label: "FOF", Value: FundTypeFOF},
		},
	}

	paramStartDate = domain.ParamSpec{
		Key:         "start_date",
		Name:        "Start date",
		Kind:        domain.ParamKindDate,
		Required:    true,
		Description: "First day of the range, YYYY-MM-DD",
	}

	paramEndDate = domain.ParamSpec{
		Key:         "end_date",
		Name:        "End date",
		Kind:        domain.ParamKindDate,
		Description: "Last day of the range, YYYY-MM-DD",
	}
)

// Submitter is the slice of the job manager the fan-out tasks use to spawn
// children. *task.JobManager satisfies it.
type Submitter interface {
	AddTask(ctx context.Context, req task.AddTaskRequest) (uuid.UUID, error)
}

// Deps bundles the collaborators shared by all task types.
type Deps struct {
	Provider  marketdata.Provider
	Funds     store.FundStore
	Submitter Submitter
	Logger    *slog.Logger
}

// RegisterAll registers every task type of the service on the registry.
// Called once at startup, after the JobManager wrapping the registry has
// been constructed so that fan-out tasks can capture it as their Submitter.
func RegisterAll(r *task.Registry, deps Deps) error {
	registrations := []task.Registration{
		NewFundDetail(deps),
		NewFundNav(deps),
		NewSyncFundNav(deps),
		NewSyncFundPage(deps),
		NewDataSync(deps),
	}
	for _, reg := range registrations {
		if err := r.Register(reg); err != nil {
			return err
		}
	}
	return nil
}
