package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/task"
)

// fundNavTask fetches one bounded range of a fund's NAV history and upserts
// the points. Ranges longer than the provider's per-call limit are rejected;
// the sync_fund_nav fan-out exists to cover long histories.
type fundNavTask struct {
	taskID   uuid.UUID
	reporter task.ProgressReporter
	deps     Deps
}

var fundNavConfig = domain.TaskTypeConfig{
	TypeName:        "fund_nav",
	DisplayName:     "Update fund NAV",
	Description:     "Fetches and stores one date range of a fund's NAV history",
	DefaultTimeout:  300,
	DefaultPriority: 1,
	Params:          []domain.ParamSpec{paramFundCode, paramStartDate, paramEndDate},
}

// NewFundNav builds the fund_nav registration.
func NewFundNav(deps Deps) task.Registration {
	return task.Registration{
		Config: fundNavConfig,
		New: func(taskID uuid.UUID, reporter task.ProgressReporter) task.Task {
			return &fundNavTask{taskID: taskID, reporter: reporter, deps: deps}
		},
	}
}

func (t *fundNavTask) Config() domain.TaskTypeConfig {
	return fundNavConfig
}

func (t *fundNavTask) Execute(ctx context.Context, params task.Params) (any, error) {
	code := params.String("fund_code", "")
	if code == "" {
		return nil, task.NewParamError("fund_code", "cannot be empty")
	}

	start, ok, err := params.Date("start_date")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, task.NewParamError("start_date", "cannot be empty")
	}

	limit, err := t.deps.Provider.RangeLimit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover provider range limit: %w", err)
	}
	t.reporter.Update(t.taskID, 30)

	end, hasEnd, err := params.Date("end_date")
	if err != nil {
		return nil, err
	}
	if !hasEnd {
		end = start.AddDate(0, 0, limit)
	} else {
		if end.Before(start) {
			return nil, task.NewParamError("end_date", "cannot be before start_date")
		}
		if days := int(end.Sub(start).Hours() / 24); days > limit {
			return nil, task.NewParamError("end_date",
				fmt.Sprintf("range of %d days exceeds the provider limit of %d", days, limit))
		}
	}

	t.reporter.Update(t.taskID, 50)
	t.deps.Logger.Info("fetching NAV history",
		"fund_code", code,
		"start", start.Format(dateLayout),
		"end", end.Format(dateLayout))

	entries, err := t.deps.Provider.FetchRange(ctx, code, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch NAV history for fund %s: %w", code, err)
	}
	t.reporter.Update(t.taskID, 70)

	points := make([]domain.NAVPoint, 0, len(entries))
	for _, entry := range entries {
		navDate, err := time.Parse(dateLayout, entry.NavDate)
		if err != nil {
			return nil, fmt.Errorf("provider returned malformed nav date %q for fund %s: %w",
				entry.NavDate, code, err)
		}
		points = append(points, domain.NAVPoint{
			FundCode:       code,
			NavDate:        navDate,
			Nav:            entry.Nav,
			AccumulatedNav: entry.AccumulatedNav,
			DailyReturn:    entry.DailyReturn,
		})
	}

	if err := t.deps.Funds.UpsertNAVPoints(ctx, points); err != nil {
		return nil, fmt.Errorf("failed to store NAV points for fund %s: %w", code, err)
	}

	t.reporter.Update(t.taskID, 100)
	return map[string]any{
		"fund_code":  code,
		"start_date": start.Format(dateLayout),
		"end_date":   end.Format(dateLayout),
		"points":     len(points),
	}, nil
}
