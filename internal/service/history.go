package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fundtrack/internal/client/tefas"
	"fundtrack/internal/models"
	"fundtrack/internal/repository"
)

// Range selects how far back a history query reaches.
type Range string

const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

func ParseRange(value string) (Range, error) {
	switch Range(strings.ToLower(strings.TrimSpace(value))) {
	case RangeDay:
		return RangeDay, nil
	case RangeWeek:
		return RangeWeek, nil
	case RangeMonth, "":
		return RangeMonth, nil
	case RangeYear:
		return RangeYear, nil
	}
	return "", fmt.Errorf("unknown range %q", value)
}

func (r Range) days() int {
	switch r {
	case RangeDay:
		return 1
	case RangeWeek:
		return 7
	case RangeYear:
		return 365
	default:
		return 30
	}
}

type HistoryPoint struct {
	Timestamp  time.Time       `json:"timestamp"`
	TotalValue decimal.Decimal `json:"total_value"`
	FundCode   string          `json:"fund_code"`
}

type FundPerformance struct {
	FundCode      string          `json:"fund_code"`
	FundName      string          `json:"fund_name"`
	LatestValue   decimal.Decimal `json:"latest_value"`
	DailyChange   decimal.Decimal `json:"daily_change"`
	WeeklyChange  decimal.Decimal `json:"weekly_change"`
	MonthlyChange decimal.Decimal `json:"monthly_change"`
	YearlyChange  decimal.Decimal `json:"yearly_change"`
}

type PortfolioHistory struct {
	Range          Range                `json:"range"`
	FundCode       string               `json:"fund_code,omitempty"`
	StartDate      time.Time            `json:"start_date"`
	EndDate        time.Time            `json:"end_date"`
	Points         []HistoryPoint       `json:"points"`
	ChangeValue    decimal.Decimal      `json:"change_value"`
	ChangePercent  float64              `json:"change_percent"`
	AvailableFunds []repository.FundRef `json:"available_funds"`
	Performances   []FundPerformance    `json:"performances"`
}

// HistoryService reads the snapshot series back out for charting. Before
// answering it lets the reconciler close any gaps in the requested window,
// so charts see a continuous series without recomputing stored days.
type HistoryService struct {
	Repo      repository.Repository
	Snapshots *SnapshotService
	Logger    *zap.Logger
}

func (s *HistoryService) PortfolioHistory(ctx context.Context, rng Range, fundCode string) (*PortfolioHistory, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("history service not configured")
	}
	code := strings.ToUpper(strings.TrimSpace(fundCode))
	if code == "" {
		code = models.TotalFundCode
	}

	end := tefas.DateOnly(time.Now().UTC())
	start := end.AddDate(0, 0, -rng.days())

	if s.Snapshots != nil {
		if _, err := s.Snapshots.Backfill(ctx, code, start, end); err != nil && s.Logger != nil {
			s.Logger.Warn("history backfill failed", zap.String("fund", code), zap.Error(err))
		}
	}

	rows, err := s.Repo.ListSnapshots(ctx, repository.ListSnapshotsParams{
		FundCode: &code,
		Since:    &start,
		Until:    &end,
	})
	if err != nil {
		return nil, err
	}

	points := make([]HistoryPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, HistoryPoint{
			Timestamp:  tefas.DateOnly(row.SnapshotDate),
			TotalValue: row.CurrentValue,
			FundCode:   row.FundCode,
		})
	}
	changeValue, changePercent := historyChange(points)

	funds, err := s.availableFunds(ctx)
	if err != nil {
		return nil, err
	}
	performances, err := s.buildPerformances(ctx, end)
	if err != nil {
		return nil, err
	}

	out := &PortfolioHistory{
		Range:          rng,
		StartDate:      start,
		EndDate:        end,
		Points:         points,
		ChangeValue:    changeValue,
		ChangePercent:  changePercent,
		AvailableFunds: funds,
		Performances:   performances,
	}
	if code != models.TotalFundCode {
		out.FundCode = code
	}
	return out, nil
}

func (s *HistoryService) availableFunds(ctx context.Context) ([]repository.FundRef, error) {
	refs, err := s.Repo.ListDistinctFunds(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]repository.FundRef, 0, len(refs)+1)
	out = append(out, repository.FundRef{FundCode: models.TotalFundCode, FundName: models.TotalFundName})
	return append(out, refs...), nil
}

// buildPerformances computes 1/7/30/365-day value changes per fund from the
// stored series, using the newest snapshot at or before each cutoff.
func (s *HistoryService) buildPerformances(ctx context.Context, today time.Time) ([]FundPerformance, error) {
	refs, err := s.Repo.ListDistinctFunds(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]FundPerformance, 0, len(refs))
	for _, ref := range refs {
		code := ref.FundCode
		rows, err := s.Repo.ListSnapshots(ctx, repository.ListSnapshotsParams{FundCode: &code})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}
		latest := rows[len(rows)-1]

		valueDaysAgo := func(days int) decimal.Decimal {
			target := today.AddDate(0, 0, -days)
			for i := len(rows) - 1; i >= 0; i-- {
				if !tefas.DateOnly(rows[i].SnapshotDate).After(target) {
					return rows[i].CurrentValue
				}
			}
			return rows[0].CurrentValue
		}
		change := func(days int) decimal.Decimal {
			return latest.CurrentValue.Sub(valueDaysAgo(days)).Round(2)
		}

		out = append(out, FundPerformance{
			FundCode:      code,
			FundName:      latest.FundName,
			LatestValue:   latest.CurrentValue,
			DailyChange:   change(1),
			WeeklyChange:  change(7),
			MonthlyChange: change(30),
			YearlyChange:  change(365),
		})
	}
	return out, nil
}

func historyChange(points []HistoryPoint) (decimal.Decimal, float64) {
	if len(points) < 2 {
		return decimal.Zero, 0
	}
	first := points[0].TotalValue
	last := points[len(points)-1].TotalValue
	changeValue := last.Sub(first).Round(2)
	return changeValue, percentOf(changeValue, first)
}
