package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradepulse/src/database"
	"tradepulse/src/model"
)

// TradeSearchOptions filters the trades listed for one pulse.
type TradeSearchOptions struct {
	PulseRef   uint
	Instrument *string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

// TradeRepository handles read/write operations for trades.
type TradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository() *TradeRepository {
	logger.WithField("component", "TradeRepository").
		Info("Creating new TradeRepository with MainDB")

	return &TradeRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

func (r *TradeRepository) Create(ctx context.Context, t *model.Trade) error {
	logger.WithFields(map[string]interface{}{
		"repo":       "TradeRepository",
		"op":         "Create",
		"pulse_ref":  t.PulseRef,
		"instrument": t.Instrument,
	}).Debug("Creating new trade")

	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TradeRepository) Save(ctx context.Context, t *model.Trade) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// FindByID fetches a trade by its storage key.
// Returns (nil, nil) if the trade is not found.
func (r *TradeRepository) FindByID(ctx context.Context, id uint) (*model.Trade, error) {
	var t model.Trade
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &t, nil
}

// ListByPulse returns every trade of a pulse. The aggregator always reads the full set.
func (r *TradeRepository) ListByPulse(ctx context.Context, pulseRef uint) ([]model.Trade, error) {
	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Where("pulse_ref = ?", pulseRef).
		Order("date ASC, id ASC").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// Search lists a pulse's trades, newest first, with the total before pagination.
func (r *TradeRepository) Search(
	ctx context.Context,
	options TradeSearchOptions,
) ([]model.Trade, int64, error) {

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("pulse_ref = ?", options.PulseRef)
		if options.Instrument != nil {
			db = db.Where("instrument = ?", *options.Instrument)
		}
		if options.DateFrom != nil {
			db = db.Where("date >= ?", *options.DateFrom)
		}
		if options.DateTo != nil {
			db = db.Where("date <= ?", *options.DateTo)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Scopes(filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Scopes(filter).
		Order("date DESC, id DESC")
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var trades []model.Trade
	if err := query.Find(&trades).Error; err != nil {
		return nil, 0, err
	}

	return trades, total, nil
}

func (r *TradeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Trade{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
