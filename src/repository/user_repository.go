package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradepulse/src/database"
	"tradepulse/src/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository() *UserRepository {
	logger.WithField("component", "UserRepository").
		Info("Creating new UserRepository with MainDB")

	return &UserRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *UserRepository) WithDB(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUID returns (nil, nil) if no user has this identity-provider subject.
func (r *UserRepository) FindByUID(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

// Upsert creates the user on first sign-in and refreshes profile fields afterwards.
// The role is never touched here.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) error {
	existing, err := r.FindByUID(ctx, u.UID)
	if err != nil {
		return err
	}

	if existing == nil {
		if u.Role == "" {
			u.Role = model.RoleUser
		}
		return r.db.WithContext(ctx).Create(u).Error
	}

	existing.Email = u.Email
	existing.DisplayName = u.DisplayName
	if err := r.db.WithContext(ctx).
		Model(existing).
		Select("email", "display_name", "updated_at").
		Updates(existing).Error; err != nil {
		return err
	}

	*u = *existing
	return nil
}

// CountAdmins returns how many users hold the admin role.
func (r *UserRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ?", model.RoleAdmin).
		Count(&count).Error
	return count, err
}

// PromoteToAdmin creates the user if needed and sets the admin role.
func (r *UserRepository) PromoteToAdmin(ctx context.Context, uid string) (*model.User, error) {
	user, err := r.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &model.User{UID: uid, Role: model.RoleAdmin}
		if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
			return nil, err
		}
		return user, nil
	}

	if err := r.db.WithContext(ctx).
		Model(user).
		Update("role", model.RoleAdmin).Error; err != nil {
		return nil, err
	}
	user.Role = model.RoleAdmin

	logger.WithFields(map[string]interface{}{
		"repo":    "UserRepository",
		"op":      "PromoteToAdmin",
		"user_id": user.ID,
	}).Info("User promoted to admin")

	return user, nil
}

// DeleteAccount removes the user's trades, pulses and profile in one transaction.
func (r *UserRepository) DeleteAccount(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pulseIDs := tx.Model(&model.Pulse{}).Select("id").Where("owner_id = ?", userID)

		if err := tx.Where("pulse_ref IN (?)", pulseIDs).Delete(&model.Trade{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", userID).Delete(&model.Pulse{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.User{}, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
