package service

import (
	"github.com/shopspring/decimal"

	"fundtrack/internal/models"
)

// PriceLookup supplies the current price for a fund code, or nil when no
// price could be resolved.
type PriceLookup func(fundCode string) *models.FundPrice

var oneHundred = decimal.NewFromInt(100)

// EvaluatePortfolio computes per-position profit/loss plus one synthetic
// TOTAL row. It is a pure function: no network, no storage.
//
// Rows keep the input order and the TOTAL row is always last. Positions
// whose price cannot be resolved are returned flagged rather than dropped,
// and contribute nothing to the TOTAL sums.
func EvaluatePortfolio(positions []models.Position, lookup PriceLookup) []models.ValuationResult {
	results := make([]models.ValuationResult, 0, len(positions)+1)

	totalInvestment := decimal.Zero
	totalValue := decimal.Zero

	for _, pos := range positions {
		row := evaluatePosition(pos, lookup)
		if row.Status == models.StatusOK {
			totalInvestment = totalInvestment.Add(row.InvestmentAmount)
			totalValue = totalValue.Add(*row.CurrentValue)
		}
		results = append(results, row)
	}

	totalPL := totalValue.Sub(totalInvestment)
	total := models.ValuationResult{
		FundCode:          models.TotalFundCode,
		FundName:          models.TotalFundName,
		Status:            models.StatusOK,
		InvestmentAmount:  totalInvestment,
		CurrentValue:      decimalPtr(totalValue),
		ProfitLoss:        decimalPtr(totalPL),
		ProfitLossPercent: percentOf(totalPL, totalInvestment),
	}
	return append(results, total)
}

func evaluatePosition(pos models.Position, lookup PriceLookup) models.ValuationResult {
	row := models.ValuationResult{
		FundCode:         pos.FundCode,
		FundName:         pos.FundName,
		Status:           models.StatusPriceUnavailable,
		InvestmentAmount: pos.InvestmentAmount,
		Units:            pos.Units,
	}

	units := pos.Units
	if units.IsZero() {
		// Source data often omits units; derive them from the purchase.
		if !pos.PurchasePrice.IsPositive() {
			return row
		}
		units = pos.InvestmentAmount.Div(pos.PurchasePrice).Round(4)
		row.Units = units
	}

	fp := lookup(pos.FundCode)
	if fp == nil {
		return row
	}
	if row.FundName == "" {
		row.FundName = fp.FundName
	}

	currentValue := units.Mul(fp.Price).Round(2)
	profitLoss := currentValue.Sub(pos.InvestmentAmount).Round(2)

	priceDate := fp.Date
	row.Status = models.StatusOK
	row.CurrentPrice = decimalPtr(fp.Price)
	row.CurrentValue = decimalPtr(currentValue)
	row.ProfitLoss = decimalPtr(profitLoss)
	row.ProfitLossPercent = percentOf(profitLoss, pos.InvestmentAmount)
	row.PriceDate = &priceDate
	return row
}

// SummaryFromResults folds a valuation row set into the caller-facing
// summary. The TOTAL row becomes the aggregate figures; every other row is
// kept in order. DailyChange is left zero for the caller to fill in.
func SummaryFromResults(results []models.ValuationResult) models.PortfolioSummary {
	summary := models.PortfolioSummary{
		TotalInvestment: decimal.Zero,
		CurrentValue:    decimal.Zero,
		TotalProfitLoss: decimal.Zero,
		DailyChange:     decimal.Zero,
		Funds:           make([]models.ValuationResult, 0, len(results)),
	}
	for _, row := range results {
		if row.FundCode == models.TotalFundCode {
			summary.TotalInvestment = row.InvestmentAmount
			if row.CurrentValue != nil {
				summary.CurrentValue = *row.CurrentValue
			}
			if row.ProfitLoss != nil {
				summary.TotalProfitLoss = *row.ProfitLoss
			}
			summary.ProfitLossPercent = row.ProfitLossPercent
			continue
		}
		summary.Funds = append(summary.Funds, row)
	}
	return summary
}

// percentOf returns part/whole as a percentage rounded to two decimals,
// and zero for a zero whole (no division by zero on empty investments).
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(oneHundred).Round(2).InexactFloat64()
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
