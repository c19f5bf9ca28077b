package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradepulse/src/database"
	"tradepulse/src/model"
)

// PulseSearchOptions filters the pulses listed for one owner.
type PulseSearchOptions struct {
	OwnerID uint
	Status  *string
	Limit   int
	Offset  int
}

// PulseRepository handles read/write operations for pulses.
type PulseRepository struct {
	db *gorm.DB
}

// NewPulseRepository creates a new repository instance using the main read/write database.
func NewPulseRepository() *PulseRepository {
	logger.WithField("component", "PulseRepository").
		Info("Creating new PulseRepository with MainDB")

	return &PulseRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *PulseRepository) WithDB(db *gorm.DB) *PulseRepository {
	return &PulseRepository{db: db}
}

// Create inserts a new pulse. The given pulse gets its storage ID and timestamps.
func (r *PulseRepository) Create(ctx context.Context, p *model.Pulse) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "PulseRepository",
			"op":       "Create",
			"pulse_id": p.PulseID,
		}).WithError(err).Error("Failed to create pulse")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "PulseRepository",
		"op":       "Create",
		"id":       p.ID,
		"pulse_id": p.PulseID,
		"owner_id": p.OwnerID,
	}).Info("Pulse created successfully")

	return nil
}

// FindByOwnerAndPulseID looks a pulse up by its business identifier within one owner.
// Returns (nil, nil) if the pulse is not found.
func (r *PulseRepository) FindByOwnerAndPulseID(
	ctx context.Context,
	ownerID uint,
	pulseID string,
) (*model.Pulse, error) {

	var p model.Pulse
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND pulse_id = ?", ownerID, pulseID).
		Order("id ASC").
		First(&p).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}

// FindByID fetches a pulse by its storage key.
// Returns (nil, nil) if the pulse is not found.
func (r *PulseRepository) FindByID(ctx context.Context, id uint) (*model.Pulse, error) {
	var p model.Pulse
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}

// ExistsByName reports whether the owner already has a pulse with this name.
// This is a plain read: two concurrent creations can both see false.
func (r *PulseRepository) ExistsByName(ctx context.Context, ownerID uint, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Pulse{}).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Search lists an owner's pulses, newest first, with the total before pagination.
func (r *PulseRepository) Search(
	ctx context.Context,
	options PulseSearchOptions,
) ([]model.Pulse, int64, error) {

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("owner_id = ?", options.OwnerID)
		if options.Status != nil {
			db = db.Where("status = ?", *options.Status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Pulse{}).
		Scopes(filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Scopes(filter).
		Order("created_at DESC, id DESC")
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var pulses []model.Pulse
	if err := query.Find(&pulses).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "PulseRepository",
			"op":       "Search",
			"owner_id": options.OwnerID,
		}).WithError(err).Error("Failed to search pulses")

		return nil, 0, err
	}

	return pulses, total, nil
}

// FindAll returns every pulse. Used by maintenance commands.
func (r *PulseRepository) FindAll(ctx context.Context) ([]model.Pulse, error) {
	var pulses []model.Pulse
	err := r.db.WithContext(ctx).Order("id ASC").Find(&pulses).Error
	return pulses, err
}

// Save writes every column of the pulse.
func (r *PulseRepository) Save(ctx context.Context, p *model.Pulse) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// UpdateStatus sets a single status column.
func (r *PulseRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Pulse{}).
		Where("id = ?", id).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// SaveStats writes the aggregator output back. There is no version check, so
// the last writer wins when two recomputes race.
func (r *PulseRepository) SaveStats(ctx context.Context, p *model.Pulse) error {
	res := r.db.WithContext(ctx).
		Model(&model.Pulse{}).
		Where("id = ?", p.ID).
		Select(model.StatsColumns).
		Updates(p)

	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PulseRepository",
			"op":   "SaveStats",
			"id":   p.ID,
		}).WithError(res.Error).Error("Failed to save pulse stats")

		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DeleteWithTrades removes every trade of the pulse and the pulse itself in
// one transaction. Either all rows go or none do.
func (r *PulseRepository) DeleteWithTrades(ctx context.Context, id uint) (int64, error) {
	var deletedTrades int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("pulse_ref = ?", id).Delete(&model.Trade{})
		if res.Error != nil {
			return res.Error
		}
		deletedTrades = res.RowsAffected

		res = tx.Delete(&model.Pulse{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":           "PulseRepository",
		"op":             "DeleteWithTrades",
		"id":             id,
		"deleted_trades": deletedTrades,
	}).Info("Pulse deleted")

	return deletedTrades, nil
}
