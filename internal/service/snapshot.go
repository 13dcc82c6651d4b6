package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fundtrack/internal/client/tefas"
	"fundtrack/internal/models"
	"fundtrack/internal/repository"
)

// SnapshotService owns every write to the daily snapshot store. Writes are
// idempotent upserts keyed by (fund_code, snapshot_date): re-running a day
// overwrites it with the same values, never duplicates it.
type SnapshotService struct {
	Repo    repository.Repository
	Fetcher PriceFetcher
	Logger  *zap.Logger
}

// Record upserts one snapshot row per valuation result for the given day,
// including the TOTAL row. Rows without a resolved price are not persisted;
// a later backfill picks the day up once the source has data. A TOTAL row
// with no contributing fund rows is not persisted either: a full outage must
// not freeze the day at zero. Returns the number of committed rows.
func (s *SnapshotService) Record(ctx context.Context, results []models.ValuationResult, asOf time.Time) (int, error) {
	if s == nil || s.Repo == nil {
		return 0, nil
	}
	snapshotDate := tefas.DateOnly(asOf)
	recordedAt := time.Now().UTC()

	committed := 0
	contributing := 0
	for _, row := range results {
		if row.Status != models.StatusOK || row.CurrentValue == nil {
			continue
		}
		if row.FundCode == models.TotalFundCode && contributing == 0 {
			continue
		}
		snap := snapshotFromResult(row, snapshotDate, recordedAt)
		if err := s.Repo.UpsertSnapshot(ctx, &snap); err != nil {
			return committed, err
		}
		if row.FundCode != models.TotalFundCode {
			contributing++
		}
		committed++
	}
	return committed, nil
}

// Backfill fills missing snapshot days for one fund (or TOTAL) between from
// and to inclusive. A zero from starts at the fund's last stored snapshot,
// or its earliest purchase when nothing is stored yet. Days already present
// are left alone; days the source has no price for are skipped, not zeroed.
func (s *SnapshotService) Backfill(ctx context.Context, fundCode string, from, to time.Time) ([]models.FundSnapshot, error) {
	if s == nil || s.Repo == nil || s.Fetcher == nil {
		return nil, nil
	}
	fundCode = strings.ToUpper(strings.TrimSpace(fundCode))
	if to.IsZero() {
		to = time.Now().UTC()
	}
	to = tefas.DateOnly(to)

	if from.IsZero() {
		start, err := s.defaultBackfillStart(ctx, fundCode)
		if err != nil {
			return nil, err
		}
		if start == nil {
			return nil, nil
		}
		from = *start
	}
	from = tefas.DateOnly(from)
	if from.After(to) {
		return nil, nil
	}

	existing, err := s.existingDates(ctx, fundCode, from, to)
	if err != nil {
		return nil, err
	}

	var committed []models.FundSnapshot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if existing[day.Format("2006-01-02")] {
			continue
		}
		var snap *models.FundSnapshot
		if fundCode == models.TotalFundCode {
			snap, err = s.backfillTotalDay(ctx, day)
		} else {
			snap, err = s.backfillDay(ctx, fundCode, day)
		}
		if err != nil {
			return committed, err
		}
		if snap != nil {
			committed = append(committed, *snap)
		}
	}
	return committed, nil
}

func (s *SnapshotService) defaultBackfillStart(ctx context.Context, fundCode string) (*time.Time, error) {
	latest, err := s.Repo.LatestSnapshot(ctx, fundCode)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		d := tefas.DateOnly(latest.SnapshotDate)
		return &d, nil
	}
	code := fundCode
	if code == models.TotalFundCode {
		code = ""
	}
	earliest, err := s.earliestPurchase(ctx, code)
	if err != nil {
		return nil, err
	}
	return earliest, nil
}

func (s *SnapshotService) earliestPurchase(ctx context.Context, fundCode string) (*time.Time, error) {
	if fundCode != "" {
		d, err := s.Repo.EarliestPurchaseDate(ctx, fundCode)
		if err != nil || d == nil {
			return nil, err
		}
		day := tefas.DateOnly(*d)
		return &day, nil
	}
	positions, err := s.Repo.ListPositions(ctx)
	if err != nil || len(positions) == 0 {
		return nil, err
	}
	day := tefas.DateOnly(positions[0].PurchaseDate)
	for _, p := range positions[1:] {
		if d := tefas.DateOnly(p.PurchaseDate); d.Before(day) {
			day = d
		}
	}
	return &day, nil
}

func (s *SnapshotService) existingDates(ctx context.Context, fundCode string, from, to time.Time) (map[string]bool, error) {
	dates, err := s.Repo.ListSnapshotDates(ctx, fundCode, from, to)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(dates))
	for _, d := range dates {
		out[tefas.DateOnly(d).Format("2006-01-02")] = true
	}
	return out, nil
}

// backfillDay recomputes one fund's valuation for a past day from the
// position log as it stood on that day, and commits it. Returns nil without
// error when the day has no valuable positions or no published price.
func (s *SnapshotService) backfillDay(ctx context.Context, fundCode string, day time.Time) (*models.FundSnapshot, error) {
	positions, err := s.Repo.ListPositionsAsOf(ctx, fundCode, day)
	if err != nil {
		return nil, err
	}

	invested := decimal.Zero
	units := decimal.Zero
	fundName := ""
	for _, p := range positions {
		// Rows logged without units cannot be valued and never contribute.
		if p.Units.IsZero() {
			continue
		}
		invested = invested.Add(p.InvestmentAmount)
		units = units.Add(p.Units)
		if p.FundName != "" {
			fundName = p.FundName
		}
	}
	if units.IsZero() {
		return nil, nil
	}

	// The exact day only: a day the source published nothing for stays a
	// gap instead of inheriting the previous trading day's price.
	fp, err := s.Fetcher.FetchPrice(ctx, fundCode, day)
	if errors.Is(err, tefas.ErrNotFound) {
		if s.Logger != nil {
			s.Logger.Debug("backfill: no price", zap.String("fund", fundCode), zap.Time("day", day))
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fundName == "" {
		fundName = fp.FundName
	}

	currentValue := units.Mul(fp.Price).Round(2)
	profitLoss := currentValue.Sub(invested).Round(2)

	snap := &models.FundSnapshot{
		FundCode:          fundCode,
		SnapshotDate:      day,
		RecordedAt:        time.Now().UTC(),
		FundName:          fundName,
		CurrentValue:      currentValue,
		InvestmentAmount:  invested,
		ProfitLoss:        profitLoss,
		ProfitLossPercent: percentOf(profitLoss, invested),
		CurrentPrice:      decimalPtr(fp.Price),
		Units:             decimalPtr(units),
	}
	if err := s.Repo.UpsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// backfillTotalDay derives the TOTAL row for a past day from the per-fund
// rows, computing any that are missing first. Committed per-fund rows are
// reused as-is so re-running a range cannot drift.
func (s *SnapshotService) backfillTotalDay(ctx context.Context, day time.Time) (*models.FundSnapshot, error) {
	positions, err := s.Repo.ListPositionsAsOf(ctx, "", day)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, nil
	}

	codes := make([]string, 0, len(positions))
	seen := map[string]bool{}
	for _, p := range positions {
		if !seen[p.FundCode] {
			seen[p.FundCode] = true
			codes = append(codes, p.FundCode)
		}
	}

	totalValue := decimal.Zero
	totalInvestment := decimal.Zero
	contributed := 0
	for _, code := range codes {
		row, err := s.Repo.GetSnapshot(ctx, code, day)
		if err != nil {
			return nil, err
		}
		if row == nil {
			row, err = s.backfillDay(ctx, code, day)
			if err != nil {
				return nil, err
			}
		}
		if row == nil {
			continue
		}
		totalValue = totalValue.Add(row.CurrentValue)
		totalInvestment = totalInvestment.Add(row.InvestmentAmount)
		contributed++
	}
	if contributed == 0 {
		return nil, nil
	}

	profitLoss := totalValue.Sub(totalInvestment).Round(2)
	snap := &models.FundSnapshot{
		FundCode:          models.TotalFundCode,
		SnapshotDate:      day,
		RecordedAt:        time.Now().UTC(),
		FundName:          models.TotalFundName,
		CurrentValue:      totalValue.Round(2),
		InvestmentAmount:  totalInvestment,
		ProfitLoss:        profitLoss,
		ProfitLossPercent: percentOf(profitLoss, totalInvestment),
	}
	if err := s.Repo.UpsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func snapshotFromResult(row models.ValuationResult, snapshotDate, recordedAt time.Time) models.FundSnapshot {
	snap := models.FundSnapshot{
		FundCode:          row.FundCode,
		SnapshotDate:      snapshotDate,
		RecordedAt:        recordedAt,
		FundName:          row.FundName,
		InvestmentAmount:  row.InvestmentAmount,
		ProfitLossPercent: row.ProfitLossPercent,
		CurrentPrice:      row.CurrentPrice,
	}
	if row.CurrentValue != nil {
		snap.CurrentValue = *row.CurrentValue
	}
	if row.ProfitLoss != nil {
		snap.ProfitLoss = *row.ProfitLoss
	}
	if row.FundCode != models.TotalFundCode {
		units := row.Units
		snap.Units = &units
	}
	return snap
}
