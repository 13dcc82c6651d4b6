package repository

import (
	"context"
	"time"

	"fundtrack/internal/models"
)

type ListSnapshotsParams struct {
	FundCode *string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
	Desc     bool
}

// FundRef identifies one fund known to the snapshot store.
type FundRef struct {
	FundCode string `json:"fund_code"`
	FundName string `json:"fund_name"`
}

// Repository is the persistence boundary: a keyed upsert store for daily
// snapshots plus the position log and stored AI suggestions. The snapshot
// reconciler owns all snapshot writes.
type Repository interface {
	// Snapshots (keyed by fund_code + snapshot_date).
	UpsertSnapshot(ctx context.Context, item *models.FundSnapshot) error
	GetSnapshot(ctx context.Context, fundCode string, date time.Time) (*models.FundSnapshot, error)
	ListSnapshots(ctx context.Context, params ListSnapshotsParams) ([]models.FundSnapshot, error)
	ListSnapshotDates(ctx context.Context, fundCode string, since, until time.Time) ([]time.Time, error)
	LatestSnapshot(ctx context.Context, fundCode string) (*models.FundSnapshot, error)
	ListDistinctFunds(ctx context.Context) ([]FundRef, error)

	// Position log (append-only; keyed by fund_code + purchase_date).
	UpsertPosition(ctx context.Context, item *models.FundPosition) error
	ListPositionsAsOf(ctx context.Context, fundCode string, asOf time.Time) ([]models.FundPosition, error)
	ListPositions(ctx context.Context) ([]models.FundPosition, error)
	EarliestPurchaseDate(ctx context.Context, fundCode string) (*time.Time, error)

	// AI suggestions.
	InsertAISuggestion(ctx context.Context, item *models.AISuggestion) error
	ListAISuggestions(ctx context.Context, limit int) ([]models.AISuggestion, error)
}
