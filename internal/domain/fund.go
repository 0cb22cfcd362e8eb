package domain

import (
	"errors"
	"time"
)

// Common validation errors for Fund and NAVPoint
var (
	ErrEmptyFundCode = errors.New("fund code cannot be empty")
	ErrEmptyNavDate  = errors.New("nav date cannot be empty")
)

// Fund holds the descriptive detail of one fund, keyed by its exchange code.
type Fund struct {
	Code              string     `json:"code"`
	Name              string     `json:"name"`
	FullName          string     `json:"full_name"`
	Type              string     `json:"type"`
	Company           string     `json:"company"`
	Custodian         string     `json:"custodian"`
	FundManager       string     `json:"fund_manager"`
	ManagementFee     float64    `json:"management_fee"`
	CustodianFee      float64    `json:"custodian_fee"`
	EstablishmentDate *time.Time `json:"establishment_date,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Validate checks if the Fund has valid data.
func (f *Fund) Validate() error {
	if f.Code == "" {
		return ErrEmptyFundCode
	}
	return nil
}

// NAVPoint is one day of a fund's net asset value history.
type NAVPoint struct {
	FundCode       string    `json:"fund_code"`
	NavDate        time.Time `json:"nav_date"`
	Nav            float64   `json:"nav"`
	AccumulatedNav float64   `json:"acc_nav"`
	DailyReturn    float64   `json:"daily_return"`
}

// Validate checks if the NAVPoint has valid data.
func (p *NAVPoint) Validate() error {
	if p.FundCode == "" {
		return ErrEmptyFundCode
	}
	if p.NavDate.IsZero() {
		return ErrEmptyNavDate
	}
	return nil
}
