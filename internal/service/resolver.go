package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fundtrack/internal/cache"
	"fundtrack/internal/client/tefas"
	"fundtrack/internal/models"
)

// PriceFetcher is the NAV source boundary consumed by the resolver.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, fundCode string, date time.Time) (*models.FundPrice, error)
	FetchHistory(ctx context.Context, fundCode string, start, end time.Time) ([]models.FundPrice, error)
}

// PriceResolver answers "price as of date D": the exact day when the source
// has one, otherwise the most recent trading day inside the lookback window.
// It never interpolates; it only selects a published price.
type PriceResolver struct {
	Fetcher         PriceFetcher
	Cache           *cache.PriceCache
	Logger          *zap.Logger
	MaxLookbackDays int
}

const defaultLookbackDays = 7

// Resolve walks backward one calendar day at a time from date, up to
// maxLookback days (0 means the resolver's configured window), and returns
// the first published price. Exhaustion yields tefas.ErrNotFound.
func (r *PriceResolver) Resolve(ctx context.Context, fundCode string, date time.Time, maxLookback int) (*models.FundPrice, error) {
	if r == nil || r.Fetcher == nil {
		return nil, tefas.ErrNotFound
	}
	if maxLookback <= 0 {
		maxLookback = r.MaxLookbackDays
	}
	if maxLookback <= 0 {
		maxLookback = defaultLookbackDays
	}

	date = tefas.DateOnly(date)

	// Cache keys by the requested day, not the price's own day, so a
	// weekend query resolved to Friday is answered from cache next time.
	if fp, ok, err := r.Cache.Get(ctx, fundCode, date); err == nil && ok {
		return fp, nil
	} else if err != nil && r.Logger != nil {
		r.Logger.Warn("price cache read failed", zap.String("fund", fundCode), zap.Error(err))
	}

	day := date
	for i := 0; i <= maxLookback; i++ {
		fp, err := r.Fetcher.FetchPrice(ctx, fundCode, day)
		if err == nil {
			if err := r.Cache.SetAt(ctx, fundCode, date, *fp); err != nil && r.Logger != nil {
				r.Logger.Warn("price cache write failed", zap.String("fund", fundCode), zap.Error(err))
			}
			return fp, nil
		}
		if !errors.Is(err, tefas.ErrNotFound) {
			return nil, err
		}
		day = day.AddDate(0, 0, -1)
	}
	return nil, tefas.ErrNotFound
}
