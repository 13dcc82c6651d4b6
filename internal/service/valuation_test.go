package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fundtrack/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedLookup(prices map[string]*models.FundPrice) PriceLookup {
	return func(fundCode string) *models.FundPrice {
		return prices[fundCode]
	}
}

func TestEvaluatePortfolio_ProfitAndPercent(t *testing.T) {
	priceDate := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	positions := []models.Position{{
		FundCode:         "TQE",
		FundName:         "Test Equity Fund",
		InvestmentAmount: dec("5000"),
		PurchasePrice:    dec("0.05"),
	}}
	results := EvaluatePortfolio(positions, fixedLookup(map[string]*models.FundPrice{
		"TQE": {FundCode: "TQE", FundName: "Test Equity Fund", Date: priceDate, Price: dec("0.0525")},
	}))

	if len(results) != 2 {
		t.Fatalf("len=%d want 2", len(results))
	}
	row := results[0]
	if row.Status != models.StatusOK {
		t.Fatalf("status=%q", row.Status)
	}
	if row.Units.String() != "100000" {
		t.Fatalf("units=%s want 100000", row.Units)
	}
	if row.CurrentValue.String() != "5250" {
		t.Fatalf("current value=%s want 5250", row.CurrentValue)
	}
	if row.ProfitLoss.String() != "250" {
		t.Fatalf("profit=%s want 250", row.ProfitLoss)
	}
	if row.ProfitLossPercent != 5 {
		t.Fatalf("percent=%v want 5", row.ProfitLossPercent)
	}
	if row.PriceDate == nil || !row.PriceDate.Equal(priceDate) {
		t.Fatalf("price date=%v", row.PriceDate)
	}

	total := results[1]
	if total.FundCode != models.TotalFundCode || total.FundName != models.TotalFundName {
		t.Fatalf("total row=%+v", total)
	}
	if total.CurrentValue.String() != "5250" || total.ProfitLoss.String() != "250" {
		t.Fatalf("total=%+v", total)
	}
}

func TestEvaluatePortfolio_UnavailableExcludedFromTotal(t *testing.T) {
	positions := []models.Position{
		{FundCode: "TQE", InvestmentAmount: dec("1000"), PurchasePrice: dec("1")},
		{FundCode: "GAP", InvestmentAmount: dec("9999"), PurchasePrice: dec("2")},
	}
	results := EvaluatePortfolio(positions, fixedLookup(map[string]*models.FundPrice{
		"TQE": {FundCode: "TQE", Price: dec("1.10")},
	}))

	if len(results) != 3 {
		t.Fatalf("len=%d want 3", len(results))
	}
	if results[0].FundCode != "TQE" || results[1].FundCode != "GAP" {
		t.Fatalf("input order not preserved: %s, %s", results[0].FundCode, results[1].FundCode)
	}
	gap := results[1]
	if gap.Status != models.StatusPriceUnavailable {
		t.Fatalf("status=%q", gap.Status)
	}
	if gap.CurrentValue != nil || gap.CurrentPrice != nil || gap.ProfitLoss != nil {
		t.Fatalf("unavailable row carries values: %+v", gap)
	}
	if gap.InvestmentAmount.String() != "9999" {
		t.Fatalf("investment=%s", gap.InvestmentAmount)
	}

	total := results[2]
	if total.InvestmentAmount.String() != "1000" {
		t.Fatalf("total investment=%s want 1000", total.InvestmentAmount)
	}
	if total.CurrentValue.String() != "1100" {
		t.Fatalf("total value=%s want 1100", total.CurrentValue)
	}
}

func TestEvaluatePortfolio_ZeroPurchasePrice(t *testing.T) {
	positions := []models.Position{
		{FundCode: "TQE", InvestmentAmount: dec("1000"), PurchasePrice: decimal.Zero},
	}
	results := EvaluatePortfolio(positions, fixedLookup(map[string]*models.FundPrice{
		"TQE": {FundCode: "TQE", Price: dec("1.10")},
	}))
	if results[0].Status != models.StatusPriceUnavailable {
		t.Fatalf("status=%q want unavailable (units underivable)", results[0].Status)
	}
}

func TestEvaluatePortfolio_ExplicitUnitsWin(t *testing.T) {
	positions := []models.Position{
		{FundCode: "TQE", InvestmentAmount: dec("1000"), PurchasePrice: dec("2"), Units: dec("400")},
	}
	results := EvaluatePortfolio(positions, fixedLookup(map[string]*models.FundPrice{
		"TQE": {FundCode: "TQE", Price: dec("3")},
	}))
	if results[0].CurrentValue.String() != "1200" {
		t.Fatalf("value=%s want 1200 (400 units * 3)", results[0].CurrentValue)
	}
}

func TestEvaluatePortfolio_Empty(t *testing.T) {
	results := EvaluatePortfolio(nil, fixedLookup(nil))
	if len(results) != 1 {
		t.Fatalf("len=%d want 1", len(results))
	}
	total := results[0]
	if !total.InvestmentAmount.IsZero() || !total.CurrentValue.IsZero() {
		t.Fatalf("empty total=%+v", total)
	}
	if total.ProfitLossPercent != 0 {
		t.Fatalf("percent=%v want 0", total.ProfitLossPercent)
	}
}

func TestSummaryFromResults(t *testing.T) {
	positions := []models.Position{
		{FundCode: "AAA", InvestmentAmount: dec("100"), PurchasePrice: dec("1")},
		{FundCode: "BBB", InvestmentAmount: dec("200"), PurchasePrice: dec("2")},
	}
	results := EvaluatePortfolio(positions, fixedLookup(map[string]*models.FundPrice{
		"AAA": {FundCode: "AAA", Price: dec("1.5")},
		"BBB": {FundCode: "BBB", Price: dec("2.5")},
	}))
	summary := SummaryFromResults(results)
	if len(summary.Funds) != 2 {
		t.Fatalf("funds=%d want 2", len(summary.Funds))
	}
	if summary.TotalInvestment.String() != "300" {
		t.Fatalf("investment=%s", summary.TotalInvestment)
	}
	if summary.CurrentValue.String() != "400" {
		t.Fatalf("value=%s want 400", summary.CurrentValue)
	}
	if summary.TotalProfitLoss.String() != "100" {
		t.Fatalf("profit=%s want 100", summary.TotalProfitLoss)
	}
}

func TestPercentOf_ZeroWhole(t *testing.T) {
	if got := percentOf(dec("50"), decimal.Zero); got != 0 {
		t.Fatalf("got=%v want 0", got)
	}
}
