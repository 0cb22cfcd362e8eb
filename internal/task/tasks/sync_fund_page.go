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

// syncFundPageTask walks one page of the provider's latest-NAV list. Funds
// unknown locally get a fund_detail child; funds with no stored history get
// a sync_fund_nav backfill child; everything else just has its latest NAV
// point upserted inline.
type syncFundPageTask struct {
	taskID   uuid.UUID
	reporter task.ProgressReporter
	deps     Deps
}

var syncFundPageConfig = domain.TaskTypeConfig{
	TypeName:        "sync_fund_page",
	DisplayName:     "Sync fund NAV list page",
	Description:     "Syncs one page of the provider's latest-NAV list, spawning detail and backfill tasks as needed",
	DefaultTimeout:  300,
	DefaultPriority: 1,
	Params: []domain.ParamSpec{
		paramFundType,
		paramPage,
		paramPageSize,
		paramSubTaskDelay,
		{
			Key:         "history_nav",
			Name:        "Backfill history",
			Kind:        domain.ParamKindBoolean,
			Default:     true,
			Description: "Spawn a full history backfill for funds with no stored NAV points",
		},
	},
}

// NewSyncFundPage builds the sync_fund_page registration.
func NewSyncFundPage(deps Deps) task.Registration {
	return task.Registration{
		Config: syncFundPageConfig,
		New: func(taskID uuid.UUID, reporter task.ProgressReporter) task.Task {
			return &syncFundPageTask{taskID: taskID, reporter: reporter, deps: deps}
		},
	}
}

func (t *syncFundPageTask) Config() domain.TaskTypeConfig {
	return syncFundPageConfig
}

func (t *syncFundPageTask) Execute(ctx context.Context, params task.Params) (any, error) {
	fundType := params.Int("fund_type", 0)
	if fundType == 0 {
		return nil, task.NewParamError("fund_type", "cannot be empty")
	}
	page := params.Int("page", 0)
	if page <= 0 {
		return nil, task.NewParamError("page", "must be a positive page number")
	}
	pageSize := params.Int("page_size", 100)
	historyNav := params.Bool("history_nav", true)
	subTaskDelay := params.Int("sub_task_delay", 2)

	listPage, err := t.deps.Provider.FetchNavList(ctx, fundType, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch NAV list page %d: %w", page, err)
	}
	t.reporter.Update(t.taskID, 10)

	delay := 0
	spawned := make([]string, 0, len(listPage.Items))
	updated := 0
	for i, item := range listPage.Items {
		known := true
		if _, err := t.deps.Funds.GetFund(ctx, item.FundCode); err != nil {
			if !errors.Is(err, store.ErrFundNotFound) {
				return nil, fmt.Errorf("failed to look up fund %s: %w", item.FundCode, err)
			}
			known = false
		}
		if !known {
			childID, err := t.deps.Submitter.AddTask(ctx, task.AddTaskRequest{
				Type:         "fund_detail",
				DelaySeconds: delay,
				ParentTaskID: &t.taskID,
				Params:       task.Params{"fund_code": item.FundCode},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to spawn fund_detail for %s: %w", item.FundCode, err)
			}
			spawned = append(spawned, childID.String())
			if subTaskDelay > 0 {
				delay += rand.Intn(subTaskDelay + 1)
			}
		}

		historyCount, err := t.deps.Funds.CountNAVPoints(ctx, item.FundCode)
		if err != nil {
			return nil, fmt.Errorf("failed to count NAV points for %s: %w", item.FundCode, err)
		}

		if historyNav && historyCount == 0 {
			childID, err := t.deps.Submitter.AddTask(ctx, task.AddTaskRequest{
				Type:         "sync_fund_nav",
				DelaySeconds: delay,
				ParentTaskID: &t.taskID,
				Params: task.Params{
					"fund_code":      item.FundCode,
					"sub_task_delay": subTaskDelay,
				},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to spawn sync_fund_nav for %s: %w", item.FundCode, err)
			}
			spawned = append(spawned, childID.String())
			if subTaskDelay > 0 {
				delay += rand.Intn(subTaskDelay + 1)
			}
		} else {
			navDate, err := time.Parse(dateLayout, item.NavDate)
			if err != nil {
				return nil, fmt.Errorf("provider returned malformed nav date %q for fund %s: %w",
					item.NavDate, item.FundCode, err)
			}
			point := domain.NAVPoint{
				FundCode: item.FundCode,
				NavDate:  navDate,
				Nav:      item.Nav,
			}
			if err := t.deps.Funds.UpsertNAVPoints(ctx, []domain.NAVPoint{point}); err != nil {
				return nil, fmt.Errorf("failed to store latest NAV for %s: %w", item.FundCode, err)
			}
			updated++
		}

		t.reporter.Update(t.taskID, 10+90*(i+1)/len(listPage.Items))
	}

	t.reporter.Update(t.taskID, 100)
	return map[string]any{
		"page":    page,
		"total":   listPage.Total,
		"items":   len(listPage.Items),
		"updated": updated,
		"tasks":   spawned,
	}, nil
}
