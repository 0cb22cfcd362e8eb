package store

import (
	"context"

	"github.com/finboard/fundsync/internal/domain"
)

// FundStore defines the interface for persisting funds and their NAV history.
type FundStore interface {
	// UpsertFund inserts or updates a fund keyed by its code.
	UpsertFund(ctx context.Context, fund *domain.Fund) error

	// GetFund retrieves a fund by code. Returns ErrFundNotFound if absent.
	GetFund(ctx context.Context, code string) (*domain.Fund, error)

	// UpsertNAVPoints inserts or updates a batch of NAV history points.
	UpsertNAVPoints(ctx context.Context, points []domain.NAVPoint) error

	// CountNAVPoints returns the number of stored NAV points for a fund.
	CountNAVPoints(ctx context.Context, code string) (int, error)
}
