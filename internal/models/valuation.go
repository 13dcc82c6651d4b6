package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TotalFundCode keys the synthetic aggregate row in valuation output and in
// the daily snapshot table.
const (
	TotalFundCode = "TOTAL"
	TotalFundName = "Toplam Portföy"
)

// Valuation row statuses.
const (
	StatusOK               = "ok"
	StatusPriceUnavailable = "price_unavailable"
)

// Position is one fund holding as supplied by the caller. Units may be zero,
// in which case they derive from investment_amount / purchase_price.
type Position struct {
	FundCode         string          `json:"fund_code" binding:"required"`
	FundName         string          `json:"fund_name"`
	InvestmentAmount decimal.Decimal `json:"investment_amount" binding:"required"`
	PurchasePrice    decimal.Decimal `json:"purchase_price" binding:"required"`
	PurchaseDate     time.Time       `json:"purchase_date"`
	Units            decimal.Decimal `json:"units"`
}

// ValuationResult is the computed state of one position (or the TOTAL row)
// against a current price. Price/value fields are nil when the price could
// not be resolved; such rows never contribute to the TOTAL sums.
type ValuationResult struct {
	FundCode          string           `json:"fund_code"`
	FundName          string           `json:"fund_name"`
	Status            string           `json:"status"`
	InvestmentAmount  decimal.Decimal  `json:"investment_amount"`
	CurrentPrice      *decimal.Decimal `json:"current_price"`
	CurrentValue      *decimal.Decimal `json:"current_value"`
	ProfitLoss        *decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent float64          `json:"profit_loss_percent"`
	Units             decimal.Decimal  `json:"units"`
	PriceDate         *time.Time       `json:"price_date,omitempty"`
}

// PortfolioSummary is the caller-facing aggregate of one valuation run.
type PortfolioSummary struct {
	TotalInvestment   decimal.Decimal   `json:"total_investment"`
	CurrentValue      decimal.Decimal   `json:"current_value"`
	TotalProfitLoss   decimal.Decimal   `json:"total_profit_loss"`
	ProfitLossPercent float64           `json:"profit_loss_percent"`
	DailyChange       decimal.Decimal   `json:"daily_change"`
	Funds             []ValuationResult `json:"funds"`
}
