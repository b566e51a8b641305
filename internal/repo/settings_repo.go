package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// GetSetting returns the value stored under key, or ErrNotFound.
func GetSetting(ctx context.Context, db *gorm.DB, key string) (string, error) {
	var s domain.Setting
	if err := db.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

// PutSetting inserts or replaces the value stored under key.
func PutSetting(ctx context.Context, db *gorm.DB, key, value string) error {
	s := domain.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&s).Error
}

// DeleteSetting removes key. Deleting a missing key is not an error.
func DeleteSetting(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("key = ?", key).Delete(&domain.Setting{}).Error
}
