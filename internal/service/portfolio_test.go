package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fundtrack/internal/client/tefas"
	"fundtrack/internal/models"
)

func todayPrices(fundCode, price string) map[string]map[string]models.FundPrice {
	today := tefas.DateOnly(time.Now().UTC())
	return map[string]map[string]models.FundPrice{
		fundCode: {today.Format("2006-01-02"): {
			FundCode: fundCode,
			FundName: "Test Fund",
			Date:     today,
			Price:    dec(price),
		}},
	}
}

func newPortfolioService(repo *stubRepo, fetcher *fakeFetcher) *PortfolioService {
	resolver := &PriceResolver{Fetcher: fetcher}
	return &PortfolioService{
		Repo:      repo,
		Resolver:  resolver,
		Snapshots: &SnapshotService{Repo: repo, Fetcher: fetcher},
	}
}

func TestCalculate_RecordsSnapshotAndPositionLog(t *testing.T) {
	repo := newStubRepo()
	svc := newPortfolioService(repo, &fakeFetcher{prices: todayPrices("TQE", "1.2")})

	summary, err := svc.Calculate(context.Background(), []models.Position{{
		FundCode:         "TQE",
		InvestmentAmount: dec("1000"),
		PurchasePrice:    dec("1"),
		PurchaseDate:     day(2025, 1, 2),
	}})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if summary.CurrentValue.String() != "1200" {
		t.Fatalf("value=%s want 1200", summary.CurrentValue)
	}
	if summary.TotalProfitLoss.String() != "200" {
		t.Fatalf("profit=%s want 200", summary.TotalProfitLoss)
	}
	if len(summary.Funds) != 1 {
		t.Fatalf("funds=%d want 1", len(summary.Funds))
	}

	today := tefas.DateOnly(time.Now().UTC())
	if _, ok := repo.snapshots[snapKey("TQE", today)]; !ok {
		t.Fatalf("fund snapshot not recorded")
	}
	if _, ok := repo.snapshots[snapKey(models.TotalFundCode, today)]; !ok {
		t.Fatalf("TOTAL snapshot not recorded")
	}
	if len(repo.positions) != 1 {
		t.Fatalf("positions=%d want 1", len(repo.positions))
	}
	if repo.positions[0].Units.String() != "1000" {
		t.Fatalf("logged units=%s want 1000 (derived)", repo.positions[0].Units)
	}
}

func TestCalculate_UnresolvedFundDegrades(t *testing.T) {
	repo := newStubRepo()
	svc := newPortfolioService(repo, &fakeFetcher{prices: todayPrices("TQE", "1.2")})

	summary, err := svc.Calculate(context.Background(), []models.Position{
		{FundCode: "TQE", InvestmentAmount: dec("1000"), PurchasePrice: dec("1")},
		{FundCode: "GAP", InvestmentAmount: dec("500"), PurchasePrice: dec("1")},
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(summary.Funds) != 2 {
		t.Fatalf("funds=%d want 2", len(summary.Funds))
	}
	if summary.Funds[1].Status != models.StatusPriceUnavailable {
		t.Fatalf("status=%q", summary.Funds[1].Status)
	}
	if summary.CurrentValue.String() != "1200" {
		t.Fatalf("value=%s want 1200 (GAP excluded)", summary.CurrentValue)
	}
}

func TestCalculate_ParseErrorAborts(t *testing.T) {
	repo := newStubRepo()
	fetcher := &fakeFetcher{err: &tefas.ParseError{Reason: "unexpected document shape"}}
	svc := newPortfolioService(repo, fetcher)

	_, err := svc.Calculate(context.Background(), []models.Position{
		{FundCode: "TQE", InvestmentAmount: dec("1000"), PurchasePrice: dec("1")},
	})
	var parseErr *tefas.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err=%v want ParseError", err)
	}
	if len(repo.snapshots) != 0 {
		t.Fatalf("snapshots written on aborted run")
	}
}

func TestCalculate_DailyChangeFromPreviousTotal(t *testing.T) {
	repo := newStubRepo()
	yesterday := tefas.DateOnly(time.Now().UTC()).AddDate(0, 0, -1)
	repo.snapshots[snapKey(models.TotalFundCode, yesterday)] = models.FundSnapshot{
		FundCode:     models.TotalFundCode,
		SnapshotDate: yesterday,
		CurrentValue: dec("1150"),
	}
	svc := newPortfolioService(repo, &fakeFetcher{prices: todayPrices("TQE", "1.2")})

	summary, err := svc.Calculate(context.Background(), []models.Position{{
		FundCode:         "TQE",
		InvestmentAmount: dec("1000"),
		PurchasePrice:    dec("1"),
	}})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if summary.DailyChange.String() != "50" {
		t.Fatalf("daily change=%s want 50", summary.DailyChange)
	}
}

func TestSnapshotFromLog_EmptyLogIsNoop(t *testing.T) {
	repo := newStubRepo()
	svc := newPortfolioService(repo, &fakeFetcher{})
	if err := svc.SnapshotFromLog(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(repo.snapshots) != 0 {
		t.Fatalf("snapshots=%d want 0", len(repo.snapshots))
	}
}

func TestSnapshotFromLog_ReplaysPositions(t *testing.T) {
	repo := newStubRepo()
	repo.positions = []models.FundPosition{{
		FundCode:         "TQE",
		InvestmentAmount: dec("1000"),
		PurchasePrice:    dec("1"),
		PurchaseDate:     day(2025, 1, 2),
		Units:            dec("1000"),
	}}
	svc := newPortfolioService(repo, &fakeFetcher{prices: todayPrices("TQE", "1.2")})

	if err := svc.SnapshotFromLog(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	today := tefas.DateOnly(time.Now().UTC())
	snap, ok := repo.snapshots[snapKey("TQE", today)]
	if !ok {
		t.Fatalf("snapshot not recorded")
	}
	if snap.CurrentValue.String() != "1200" {
		t.Fatalf("value=%s want 1200", snap.CurrentValue)
	}
}
