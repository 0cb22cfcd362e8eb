// Package marketdata provides the client for the external fund data provider.
// The provider is rate limited and only returns a bounded number of NAV
// records per call; callers needing long histories must partition their
// requests (see the sync tasks).
package marketdata

import (
	"context"
	"errors"
	"time"
)

// Common provider errors
var (
	// ErrUnavailable indicates the provider could not be reached or returned
	// a server-side failure. Infrastructure, not business.
	ErrUnavailable = errors.New("data provider unavailable")

	// ErrRejected indicates the provider understood and refused the request,
	// e.g. an unknown fund code or an out-of-range query.
	ErrRejected = errors.New("data provider rejected request")
)

// FundDetail is the descriptive payload the provider returns for one fund.
type FundDetail struct {
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	FullName          string  `json:"full_name"`
	Type              string  `json:"type"`
	Company           string  `json:"company"`
	Custodian         string  `json:"custodian"`
	FundManager       string  `json:"fund_manager"`
	ManagementFee     float64 `json:"management_fee"`
	CustodianFee      float64 `json:"custodian_fee"`
	EstablishmentDate string  `json:"establishment_date"`
}

// NAVEntry is one day of NAV history as returned by the provider.
type NAVEntry struct {
	NavDate        string  `json:"nav_date"`
	Nav            float64 `json:"nav"`
	AccumulatedNav float64 `json:"acc_nav"`
	DailyReturn    float64 `json:"daily_return"`
}

// NavListItem is one row of the provider's latest-NAV list page.
type NavListItem struct {
	FundCode string  `json:"fund_code"`
	Name     string  `json:"name"`
	Nav      float64 `json:"nav"`
	NavDate  string  `json:"nav_date"`
}

// NavListPage is one page of the provider's latest-NAV list.
type NavListPage struct {
	Items []NavListItem `json:"items"`
	Total int           `json:"total"`
}

// Provider defines the calls the sync tasks make into the external data
// source. Implementations must be safe for concurrent use.
type Provider interface {
	// FetchDetail retrieves the descriptive detail of one fund.
	FetchDetail(ctx context.Context, code string) (*FundDetail, error)

	// FetchRange retrieves NAV history for [start, end]. The provider caps
	// the range at RangeLimit days; longer requests are rejected.
	FetchRange(ctx context.Context, code string, start, end time.Time) ([]NAVEntry, error)

	// FetchNavList retrieves one page of the latest-NAV list for a fund type.
	FetchNavList(ctx context.Context, fundType, page, pageSize int) (*NavListPage, error)

	// RangeLimit reports the maximum number of days FetchRange reliably
	// returns per call.
	RangeLimit(ctx context.Context) (int, error)
}
