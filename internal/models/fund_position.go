package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundPosition is the append-only position log. Backfill replays it to
// reconstruct the portfolio as it stood on a past date: a row contributes
// from purchase_date until divested_at (if set).
type FundPosition struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	FundCode         string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_fund_positions_code_purchase;index" json:"fund_code"`
	FundName         string          `gorm:"type:varchar(200)" json:"fund_name"`
	InvestmentAmount decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"investment_amount"`
	PurchasePrice    decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"purchase_price"`
	PurchaseDate     time.Time       `gorm:"type:date;not null;uniqueIndex:idx_fund_positions_code_purchase" json:"purchase_date"`
	Units            decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"units"`
	DivestedAt       *time.Time      `gorm:"type:date" json:"divested_at,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"-"`
}

func (FundPosition) TableName() string {
	return "fund_positions"
}
