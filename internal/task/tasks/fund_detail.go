package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/task"
)

// fundDetailTask fetches one fund's descriptive detail from the provider
// and upserts it into the fund store.
type fundDetailTask struct {
	taskID   uuid.UUID
	reporter task.ProgressReporter
	deps     Deps
}

var fundDetailConfig = domain.TaskTypeConfig{
	TypeName:        "fund_detail",
	DisplayName:     "Update fund detail",
	Description:     "Fetches and stores the descriptive detail of one fund",
	DefaultTimeout:  30,
	DefaultPriority: 1,
	Params:          []domain.ParamSpec{paramFundCode},
}

// NewFundDetail builds the fund_detail registration.
func NewFundDetail(deps Deps) task.Registration {
	return task.Registration{
		Config: fundDetailConfig,
		New: func(taskID uuid.UUID, reporter task.ProgressReporter) task.Task {
			return &fundDetailTask{taskID: taskID, reporter: reporter, deps: deps}
		},
	}
}

func (t *fundDetailTask) Config() domain.TaskTypeConfig {
	return fundDetailConfig
}

func (t *fundDetailTask) Execute(ctx context.Context, params task.Params) (any, error) {
	code := params.String("fund_code", "")
	if code == "" {
		return nil, task.NewParamError("fund_code", "cannot be empty")
	}

	t.reporter.Update(t.taskID, 20)

	fund, err := syncFundDetail(ctx, t.deps, code)
	if err != nil {
		return nil, err
	}

	t.reporter.Update(t.taskID, 100)
	return fund, nil
}

// syncFundDetail fetches a fund's detail and upserts it, returning the
// stored form. Shared with the fan-out task, which runs it synchronously as
// a prerequisite when the fund is not yet known locally.
func syncFundDetail(ctx context.Context, deps Deps, code string) (*domain.Fund, error) {
	detail, err := deps.Provider.FetchDetail(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail for fund %s: %w", code, err)
	}

	fund := &domain.Fund{
		Code:          detail.Code,
		Name:          detail.Name,
		FullName:      detail.FullName,
		Type:          detail.Type,
		Company:       detail.Company,
		Custodian:     detail.Custodian,
		FundManager:   detail.FundManager,
		ManagementFee: detail.ManagementFee,
		CustodianFee:  detail.CustodianFee,
		UpdatedAt:     time.Now().UTC(),
	}
	if detail.EstablishmentDate != "" {
		est, err := time.Parse(dateLayout, detail.EstablishmentDate)
		if err != nil {
			return nil, fmt.Errorf("provider returned malformed establishment date %q for fund %s: %w",
				detail.EstablishmentDate, code, err)
		}
		fund.EstablishmentDate = &est
	}

	if err := deps.Funds.UpsertFund(ctx, fund); err != nil {
		return nil, fmt.Errorf("failed to store fund %s: %w", code, err)
	}

	deps.Logger.Info("fund detail updated", "fund_code", code, "name", fund.Name)
	return fund, nil
}
