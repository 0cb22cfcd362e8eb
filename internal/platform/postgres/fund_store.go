package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finboard/fundsync/internal/domain"
	"github.com/finboard/fundsync/internal/platform/logger"
	"github.com/finboard/fundsync/internal/store"
)

// PostgresFundStore implements the store.FundStore interface using PostgreSQL.
type PostgresFundStore struct {
	db store.DBTX
}

// NewPostgresFundStore creates a new PostgresFundStore.
func NewPostgresFundStore(db store.DBTX) *PostgresFundStore {
	return &PostgresFundStore{
		db: db,
	}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *PostgresFundStore) WithTx(tx *sql.Tx) *PostgresFundStore {
	return &PostgresFundStore{db: tx}
}

// UpsertFund inserts or updates a fund keyed by its code.
func (s *PostgresFundStore) UpsertFund(ctx context.Context, fund *domain.Fund) error {
	log := logger.FromContext(ctx)

	if err := fund.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO funds (code, name, full_name, type, company, custodian,
			fund_manager, management_fee, custodian_fee, establishment_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			full_name = EXCLUDED.full_name,
			type = EXCLUDED.type,
			company = EXCLUDED.company,
			custodian = EXCLUDED.custodian,
			fund_manager = EXCLUDED.fund_manager,
			management_fee = EXCLUDED.management_fee,
			custodian_fee = EXCLUDED.custodian_fee,
			establishment_date = EXCLUDED.establishment_date,
			updated_at = EXCLUDED.updated_at
	`

	updatedAt := fund.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		fund.Code,
		fund.Name,
		fund.FullName,
		fund.Type,
		fund.Company,
		fund.Custodian,
		fund.FundManager,
		fund.ManagementFee,
		fund.CustodianFee,
		fund.EstablishmentDate,
		updatedAt,
	)
	if err != nil {
		log.Error("failed to upsert fund",
			"fund_code", fund.Code,
			"error", err)
		return fmt.Errorf("failed to upsert fund: %w", MapError(err))
	}

	return nil
}

// GetFund retrieves a fund by code.
func (s *PostgresFundStore) GetFund(ctx context.Context, code string) (*domain.Fund, error) {
	query := `
		SELECT code, name, full_name, type, company, custodian, fund_manager,
			management_fee, custodian_fee, establishment_date, updated_at
		FROM funds
		WHERE code = $1
	`

	var (
		fund domain.Fund
		est  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&fund.Code,
		&fund.Name,
		&fund.FullName,
		&fund.Type,
		&fund.Company,
		&fund.Custodian,
		&fund.FundManager,
		&fund.ManagementFee,
		&fund.CustodianFee,
		&est,
		&fund.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrFundNotFound, code)
		}
		return nil, fmt.Errorf("failed to get fund: %w", MapError(err))
	}

	if est.Valid {
		t := est.Time.UTC()
		fund.EstablishmentDate = &t
	}
	fund.UpdatedAt = fund.UpdatedAt.UTC()

	return &fund, nil
}

// UpsertNAVPoints inserts or updates a batch of NAV history points.
// When the store is backed by a root connection the batch runs in its own
// transaction so a provider chunk either lands fully or not at all.
func (s *PostgresFundStore) UpsertNAVPoints(ctx context.Context, points []domain.NAVPoint) error {
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return s.WithTx(tx).upsertNAVPoints(ctx, points)
		})
	}
	return s.upsertNAVPoints(ctx, points)
}

func (s *PostgresFundStore) upsertNAVPoints(ctx context.Context, points []domain.NAVPoint) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO fund_nav (fund_code, nav_date, nav, accumulated_nav, daily_return)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (fund_code, nav_date) DO UPDATE SET
			nav = EXCLUDED.nav,
			accumulated_nav = EXCLUDED.accumulated_nav,
			daily_return = EXCLUDED.daily_return
	`

	for _, p := range points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		_, err := s.db.ExecContext(ctx, query,
			p.FundCode,
			p.NavDate,
			p.Nav,
			p.AccumulatedNav,
			p.DailyReturn,
		)
		if err != nil {
			log.Error("failed to upsert NAV point",
				"fund_code", p.FundCode,
				"nav_date", p.NavDate,
				"error", err)
			return fmt.Errorf("failed to upsert NAV point: %w", MapError(err))
		}
	}

	return nil
}

// CountNAVPoints returns the number of stored NAV points for a fund.
func (s *PostgresFundStore) CountNAVPoints(ctx context.Context, code string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fund_nav WHERE fund_code = $1`, code).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count NAV points: %w", MapError(err))
	}
	return count, nil
}

var _ store.FundStore = (*PostgresFundStore)(nil)
