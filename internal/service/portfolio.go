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

// PortfolioService drives a full valuation run: resolve prices, evaluate,
// persist today's snapshots, and keep the position log current so scheduled
// jobs can replay the portfolio without caller input.
type PortfolioService struct {
	Repo      repository.Repository
	Resolver  *PriceResolver
	Snapshots *SnapshotService
	Logger    *zap.Logger
}

// Calculate values the given positions at today's resolved prices. A fund
// whose source data is missing or unreachable degrades to a flagged row;
// only a source format change (ParseError) aborts the whole run.
func (s *PortfolioService) Calculate(ctx context.Context, positions []models.Position) (*models.PortfolioSummary, error) {
	if s == nil || s.Resolver == nil {
		return nil, errors.New("portfolio service not configured")
	}
	now := time.Now().UTC()

	prices := make(map[string]*models.FundPrice, len(positions))
	for _, pos := range positions {
		code := strings.ToUpper(strings.TrimSpace(pos.FundCode))
		if code == "" || prices[code] != nil {
			continue
		}
		fp, err := s.Resolver.Resolve(ctx, code, now, 0)
		if err != nil {
			var parseErr *tefas.ParseError
			if errors.As(err, &parseErr) {
				return nil, err
			}
			if !errors.Is(err, tefas.ErrNotFound) && s.Logger != nil {
				s.Logger.Warn("price resolution failed, degrading position",
					zap.String("fund", code), zap.Error(err))
			}
			continue
		}
		prices[code] = fp
	}

	results := EvaluatePortfolio(positions, func(fundCode string) *models.FundPrice {
		return prices[strings.ToUpper(strings.TrimSpace(fundCode))]
	})

	s.logPositions(ctx, positions, results)

	summary := SummaryFromResults(results)
	summary.DailyChange = s.dailyChange(ctx, summary, now)

	if s.Snapshots != nil {
		if _, err := s.Snapshots.Record(ctx, results, now); err != nil && s.Logger != nil {
			s.Logger.Warn("snapshot record failed", zap.Error(err))
		}
	}
	return &summary, nil
}

// SnapshotFromLog runs a valuation from the stored position log and records
// it. This is the scheduled daily path; it needs no caller input.
func (s *PortfolioService) SnapshotFromLog(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	now := time.Now().UTC()
	logged, err := s.Repo.ListPositionsAsOf(ctx, "", now)
	if err != nil {
		return err
	}
	if len(logged) == 0 {
		return nil
	}

	positions := make([]models.Position, 0, len(logged))
	for _, p := range logged {
		positions = append(positions, models.Position{
			FundCode:         p.FundCode,
			FundName:         p.FundName,
			InvestmentAmount: p.InvestmentAmount,
			PurchasePrice:    p.PurchasePrice,
			PurchaseDate:     p.PurchaseDate,
			Units:            p.Units,
		})
	}
	_, err = s.Calculate(ctx, positions)
	return err
}

// BackfillGaps closes snapshot gaps for every fund in the position log,
// then for the TOTAL series. Funds are independent; one fund's failure
// does not stop the others.
func (s *PortfolioService) BackfillGaps(ctx context.Context) error {
	if s == nil || s.Repo == nil || s.Snapshots == nil {
		return nil
	}
	now := time.Now().UTC()
	positions, err := s.Repo.ListPositions(ctx)
	if err != nil {
		return err
	}

	codes := make([]string, 0, len(positions))
	seen := map[string]bool{}
	for _, p := range positions {
		if !seen[p.FundCode] {
			seen[p.FundCode] = true
			codes = append(codes, p.FundCode)
		}
	}

	var lastErr error
	for _, code := range codes {
		if _, err := s.Snapshots.Backfill(ctx, code, time.Time{}, now); err != nil {
			lastErr = err
			if s.Logger != nil {
				s.Logger.Warn("backfill failed", zap.String("fund", code), zap.Error(err))
			}
		}
	}
	if _, err := s.Snapshots.Backfill(ctx, models.TotalFundCode, time.Time{}, now); err != nil {
		lastErr = err
		if s.Logger != nil {
			s.Logger.Warn("backfill failed", zap.String("fund", models.TotalFundCode), zap.Error(err))
		}
	}
	return lastErr
}

// logPositions mirrors the request's positions into the append-only log,
// deriving units from the valuation when the caller omitted them.
func (s *PortfolioService) logPositions(ctx context.Context, positions []models.Position, results []models.ValuationResult) {
	if s.Repo == nil {
		return
	}
	unitsByCode := map[string]models.ValuationResult{}
	for _, row := range results {
		if row.FundCode != models.TotalFundCode {
			unitsByCode[row.FundCode] = row
		}
	}
	for _, pos := range positions {
		units := pos.Units
		name := pos.FundName
		if row, ok := unitsByCode[pos.FundCode]; ok {
			if units.IsZero() {
				units = row.Units
			}
			if name == "" {
				name = row.FundName
			}
		}
		item := &models.FundPosition{
			FundCode:         pos.FundCode,
			FundName:         name,
			InvestmentAmount: pos.InvestmentAmount,
			PurchasePrice:    pos.PurchasePrice,
			PurchaseDate:     tefas.DateOnly(pos.PurchaseDate),
			Units:            units,
		}
		if err := s.Repo.UpsertPosition(ctx, item); err != nil && s.Logger != nil {
			s.Logger.Warn("position log write failed", zap.String("fund", pos.FundCode), zap.Error(err))
		}
	}
}

// dailyChange compares the current total value against the previous TOTAL
// snapshot, when one exists before today.
func (s *PortfolioService) dailyChange(ctx context.Context, summary models.PortfolioSummary, now time.Time) decimal.Decimal {
	if s.Repo == nil {
		return decimal.Zero
	}
	latest, err := s.Repo.LatestSnapshot(ctx, models.TotalFundCode)
	if err != nil || latest == nil {
		return decimal.Zero
	}
	if !tefas.DateOnly(latest.SnapshotDate).Before(tefas.DateOnly(now)) {
		return decimal.Zero
	}
	return summary.CurrentValue.Sub(latest.CurrentValue).Round(2)
}
