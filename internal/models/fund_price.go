package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundPrice is a single published NAV for a fund on one trading day.
// It is produced only by the TEFAS client; the rest of the system selects
// prices but never invents them.
type FundPrice struct {
	FundCode      string          `json:"fund_code"`
	FundName      string          `json:"fund_name"`
	Date          time.Time       `json:"date"`
	Price         decimal.Decimal `json:"price"`
	MarketCap     decimal.Decimal `json:"market_cap,omitempty"`
	ShareCount    int64           `json:"share_count,omitempty"`
	InvestorCount int64           `json:"investor_count,omitempty"`
	FetchedAt     time.Time       `json:"fetched_at"`
}
