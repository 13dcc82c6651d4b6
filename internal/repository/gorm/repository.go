package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fundtrack/internal/models"
	"fundtrack/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Snapshots ---------------------------------------------------------------

func (s *Store) UpsertSnapshot(ctx context.Context, item *models.FundSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.FundCode = strings.ToUpper(strings.TrimSpace(item.FundCode))
	if item.FundCode == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fund_code"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"recorded_at",
			"fund_name",
			"current_value",
			"investment_amount",
			"profit_loss",
			"profit_loss_percent",
			"current_price",
			"units",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetSnapshot(ctx context.Context, fundCode string, date time.Time) (*models.FundSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.FundSnapshot
	err := s.db.WithContext(ctx).
		Where("fund_code = ? AND snapshot_date = ?", strings.ToUpper(fundCode), date).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSnapshots(ctx context.Context, params repository.ListSnapshotsParams) ([]models.FundSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Model(&models.FundSnapshot{})
	if params.FundCode != nil {
		q = q.Where("fund_code = ?", strings.ToUpper(*params.FundCode))
	}
	if params.Since != nil {
		q = q.Where("snapshot_date >= ?", *params.Since)
	}
	if params.Until != nil {
		q = q.Where("snapshot_date <= ?", *params.Until)
	}
	order := "snapshot_date asc"
	if params.Desc {
		order = "snapshot_date desc"
	}
	q = q.Order(order)
	if params.Limit > 0 {
		q = q.Limit(params.Limit)
	}
	if params.Offset > 0 {
		q = q.Offset(params.Offset)
	}
	var items []models.FundSnapshot
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListSnapshotDates(ctx context.Context, fundCode string, since, until time.Time) ([]time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var dates []time.Time
	err := s.db.WithContext(ctx).Model(&models.FundSnapshot{}).
		Where("fund_code = ? AND snapshot_date >= ? AND snapshot_date <= ?", strings.ToUpper(fundCode), since, until).
		Order("snapshot_date asc").
		Pluck("snapshot_date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (s *Store) LatestSnapshot(ctx context.Context, fundCode string) (*models.FundSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.FundSnapshot
	err := s.db.WithContext(ctx).
		Where("fund_code = ?", strings.ToUpper(fundCode)).
		Order("snapshot_date desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListDistinctFunds(ctx context.Context) ([]repository.FundRef, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var refs []repository.FundRef
	err := s.db.WithContext(ctx).Model(&models.FundSnapshot{}).
		Select("DISTINCT ON (fund_code) fund_code, fund_name").
		Where("fund_code <> ?", models.TotalFundCode).
		Order("fund_code, snapshot_date desc").
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// --- Position log ------------------------------------------------------------

func (s *Store) UpsertPosition(ctx context.Context, item *models.FundPosition) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.FundCode = strings.ToUpper(strings.TrimSpace(item.FundCode))
	if item.FundCode == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fund_code"}, {Name: "purchase_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"fund_name",
			"investment_amount",
			"purchase_price",
			"units",
			"divested_at",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) ListPositionsAsOf(ctx context.Context, fundCode string, asOf time.Time) ([]models.FundPosition, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Model(&models.FundPosition{}).
		Where("purchase_date <= ?", asOf).
		Where("divested_at IS NULL OR divested_at > ?", asOf)
	if code := strings.ToUpper(strings.TrimSpace(fundCode)); code != "" {
		q = q.Where("fund_code = ?", code)
	}
	var items []models.FundPosition
	if err := q.Order("purchase_date asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPositions(ctx context.Context) ([]models.FundPosition, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.FundPosition
	err := s.db.WithContext(ctx).
		Order("purchase_date asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) EarliestPurchaseDate(ctx context.Context, fundCode string) (*time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.FundPosition
	err := s.db.WithContext(ctx).
		Where("fund_code = ?", strings.ToUpper(fundCode)).
		Order("purchase_date asc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d := item.PurchaseDate
	return &d, nil
}

// --- AI suggestions ----------------------------------------------------------

func (s *Store) InsertAISuggestion(ctx context.Context, item *models.AISuggestion) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListAISuggestions(ctx context.Context, limit int) ([]models.AISuggestion, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var items []models.AISuggestion
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
