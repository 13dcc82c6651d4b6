package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fundtrack/internal/client/tefas"
	"fundtrack/internal/models"
)

// fakeFetcher serves prices from a fixed calendar keyed by fund code and day.
type fakeFetcher struct {
	prices map[string]map[string]models.FundPrice
	err    error
	calls  int
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fakeFetcher) FetchPrice(_ context.Context, fundCode string, date time.Time) (*models.FundPrice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	byDay, ok := f.prices[fundCode]
	if !ok {
		return nil, tefas.ErrNotFound
	}
	fp, ok := byDay[tefas.DateOnly(date).Format("2006-01-02")]
	if !ok {
		return nil, tefas.ErrNotFound
	}
	return &fp, nil
}

func (f *fakeFetcher) FetchHistory(_ context.Context, fundCode string, start, end time.Time) ([]models.FundPrice, error) {
	var out []models.FundPrice
	for d := tefas.DateOnly(start); !d.After(tefas.DateOnly(end)); d = d.AddDate(0, 0, 1) {
		if fp, err := f.FetchPrice(context.Background(), fundCode, d); err == nil {
			out = append(out, *fp)
		}
	}
	return out, nil
}

func TestResolve_ExactDay(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]map[string]models.FundPrice{
		"TQE": {"2025-01-03": {FundCode: "TQE", Date: day(2025, 1, 3), Price: dec("1.5")}},
	}}
	r := &PriceResolver{Fetcher: fetcher}

	fp, err := r.Resolve(context.Background(), "TQE", day(2025, 1, 3), 0)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !fp.Date.Equal(day(2025, 1, 3)) {
		t.Fatalf("date=%v", fp.Date)
	}
	if fetcher.calls != 1 {
		t.Fatalf("calls=%d want 1", fetcher.calls)
	}
}

func TestResolve_FallsBackToPreviousTradingDay(t *testing.T) {
	// Friday's price answers a Sunday query.
	fetcher := &fakeFetcher{prices: map[string]map[string]models.FundPrice{
		"TQE": {"2025-01-03": {FundCode: "TQE", Date: day(2025, 1, 3), Price: dec("1.5")}},
	}}
	r := &PriceResolver{Fetcher: fetcher}

	fp, err := r.Resolve(context.Background(), "TQE", day(2025, 1, 5), 0)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !fp.Date.Equal(day(2025, 1, 3)) {
		t.Fatalf("date=%v want 2025-01-03", fp.Date)
	}
	if fetcher.calls != 3 {
		t.Fatalf("calls=%d want 3", fetcher.calls)
	}
}

func TestResolve_LookbackExhausted(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]map[string]models.FundPrice{}}
	r := &PriceResolver{Fetcher: fetcher, MaxLookbackDays: 3}

	_, err := r.Resolve(context.Background(), "TQE", day(2025, 1, 10), 0)
	if !errors.Is(err, tefas.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	if fetcher.calls != 4 {
		t.Fatalf("calls=%d want 4 (day plus 3 lookback)", fetcher.calls)
	}
}

func TestResolve_SourceErrorPropagates(t *testing.T) {
	srcErr := &tefas.SourceError{Attempts: 3, Err: errors.New("down")}
	fetcher := &fakeFetcher{err: srcErr}
	r := &PriceResolver{Fetcher: fetcher}

	_, err := r.Resolve(context.Background(), "TQE", day(2025, 1, 10), 0)
	var got *tefas.SourceError
	if !errors.As(err, &got) {
		t.Fatalf("err=%v want SourceError", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("calls=%d want 1 (no retry at resolver level)", fetcher.calls)
	}
}

func TestResolve_ExplicitLookbackOverridesDefault(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]map[string]models.FundPrice{}}
	r := &PriceResolver{Fetcher: fetcher, MaxLookbackDays: 7}

	_, err := r.Resolve(context.Background(), "TQE", day(2025, 1, 10), 1)
	if !errors.Is(err, tefas.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("calls=%d want 2", fetcher.calls)
	}
}
