// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Session
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside transactions. They follow the "thin repository" approach: no
// business logic, only persistence and query composition.
//
// Error semantics:
//   - A missing session yields gorm.ErrRecordNotFound (exported as ErrNotFound).
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateSession inserts a new Session owned by userID.
func CreateSession(ctx context.Context, db *gorm.DB, userID, role, title string) (*domain.Session, error) {
	now := time.Now().UTC()
	s := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// CountSessions returns the number of sessions owned by userID.
func CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListSessionsPage returns a page of sessions for userID, newest first.
func ListSessionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Session, error) {
	var out []domain.Session
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetSession fetches a session by id and owner, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSessionTitle renames a session owned by userID. It returns
// ErrNotFound when no row matched.
func UpdateSessionTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
