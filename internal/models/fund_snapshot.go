package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundSnapshot is one persisted daily valuation row, keyed by
// (fund_code, snapshot_date). Repeat writes for the same key overwrite.
type FundSnapshot struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	FundCode     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_fund_daily_code_date" json:"fund_code"`
	SnapshotDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_fund_daily_code_date" json:"snapshot_date"`
	RecordedAt   time.Time `gorm:"type:timestamptz;not null" json:"recorded_at"`
	FundName     string    `gorm:"type:varchar(200)" json:"fund_name"`

	CurrentValue      decimal.Decimal  `gorm:"type:numeric(30,10);not null" json:"current_value"`
	InvestmentAmount  decimal.Decimal  `gorm:"type:numeric(30,10);not null" json:"investment_amount"`
	ProfitLoss        decimal.Decimal  `gorm:"type:numeric(30,10);not null" json:"profit_loss"`
	ProfitLossPercent float64          `gorm:"type:numeric(20,10);not null" json:"profit_loss_percent"`
	CurrentPrice      *decimal.Decimal `gorm:"type:numeric(20,10)" json:"current_price"`
	Units             *decimal.Decimal `gorm:"type:numeric(30,10)" json:"units"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"-"`
}

func (FundSnapshot) TableName() string {
	return "fund_daily_values"
}
