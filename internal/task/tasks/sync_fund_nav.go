package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/store"
	"github.com/finboard/fundsync/internal/task"
)

// syncFundNavTask backfills a fund's full NAV history. The provider only
// returns a bounded number of days per call, so the task partitions
// [establishment date, today] into chunks and spawns one fund_nav child per
// chunk, each with a growing randomized delay to stay under the provider's
// rate limit. The task completes once all children are scheduled; child
// completion is observed independently through the parent-id listing.
type syncFundNavTask struct {
	taskID   uuid.UUID
	reporter task.ProgressReporter
	deps     Deps
}

var syncFundNavConfig = domain.TaskTypeConfig{
	TypeName:        "sync_fund_nav",
	DisplayName:     "Sync fund NAV history",
	Description:     "Backfills the full NAV history of one fund in chunks",
	DefaultTimeout:  300,
	DefaultPriority: 1,
	Params:          []domain.ParamSpec{paramFundCode, paramSubTaskDelay},
}

// NewSyncFundNav builds the sync_fund_nav registration.
func NewSyncFundNav(deps Deps) task.Registration {
	return task.Registration{
		Config: syncFundNavConfig,
		New: func(taskID uuid.UUID, reporter task.ProgressReporter) task.Task {
			return &syncFundNavTask{taskID: taskID, reporter: reporter, deps: deps}
		},
	}
}

func (t *syncFundNavTask) Config() domain.TaskTypeConfig {
	return syncFundNavConfig
}

func (t *syncFundNavTask) Execute(ctx context.Context, params task.Params) (any, error) {
	code := params.String("fund_code", "")
	if code == "" {
		return nil, task.NewParamError("fund_code", "cannot be empty")
	}
	subTaskDelay := params.Int("sub_task_delay", 2)

	anchor, err := t.anchorDate(ctx, code)
	if err != nil {
		return nil, err
	}
	t.reporter.Update(t.taskID, 5)

	limit, err := t.deps.Provider.RangeLimit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover provider range limit: %w", err)
	}

	chunks := task.PlanChunks(anchor, time.Now(), limit)
	t.deps.Logger.Info("planned NAV backfill",
		"fund_code", code,
		"anchor", anchor.Format(dateLayout),
		"chunk_days", limit,
		"chunks", len(chunks))

	delay := 0
	childIDs := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		childID, err := t.deps.Submitter.AddTask(ctx, task.AddTaskRequest{
			Type:         "fund_nav",
			DelaySeconds: delay,
			ParentTaskID: &t.taskID,
			Params: task.Params{
				"fund_code":  code,
				"start_date": chunk.Start.Format(dateLayout),
				"end_date":   chunk.End.Format(dateLayout),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to spawn fund_nav chunk [%s, %s]: %w",
				chunk.Start.Format(dateLayout), chunk.End.Format(dateLayout), err)
		}
		childIDs = append(childIDs, childID.String())

		if subTaskDelay > 0 {
			delay += rand.Intn(subTaskDelay + 1)
		}
	}

	t.reporter.Update(t.taskID, 10)
	t.deps.Logger.Info("spawned NAV backfill children", "fund_code", code, "count", len(childIDs))

	return map[string]any{"tasks": childIDs}, nil
}

// anchorDate determines the true start of the fund's history. If the fund is
// not yet known locally (or has no establishment date on record), the detail
// fetch runs synchronously as a prerequisite.
func (t *syncFundNavTask) anchorDate(ctx context.Context, code string) (time.Time, error) {
	fund, err := t.deps.Funds.GetFund(ctx, code)
	if err != nil && !errors.Is(err, store.ErrFundNotFound) {
		return time.Time{}, fmt.Errorf("failed to look up fund %s: %w", code, err)
	}

	if fund == nil || fund.EstablishmentDate == nil {
		fund, err = syncFundDetail(ctx, t.deps, code)
		if err != nil {
			return time.Time{}, err
		}
	}
	if fund.EstablishmentDate == nil {
		return time.Time{}, fmt.Errorf("fund %s has no establishment date to anchor the backfill", code)
	}
	return *fund.EstablishmentDate, nil
}
