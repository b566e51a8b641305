package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// ErrDuplicate reports that another request already claimed the key.
var ErrDuplicate = errors.New("duplicate")

// IdemScope identifies one Idempotency-Key: keys are private to a caller and
// a session.
type IdemScope struct {
	UserID    string
	SessionID string
	Key       string
}

func (s IdemScope) valid() bool {
	return strings.TrimSpace(s.SessionID) != "" && strings.TrimSpace(s.Key) != ""
}

// FindIdempotency returns the live record for sc, or ErrNotFound when none
// exists or it expired before now.
func FindIdempotency(ctx context.Context, db *gorm.DB, sc IdemScope, now time.Time) (*domain.Idempotency, error) {
	if !sc.valid() {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND key = ? AND expires_at > ?", sc.UserID, sc.SessionID, sc.Key, now).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveIdempotency records that messageID answered the request fingerprinted
// by hash. An expired record under the same scope is replaced; a live one
// yields ErrDuplicate.
func SaveIdempotency(ctx context.Context, db *gorm.DB, sc IdemScope, hash, messageID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	if !sc.valid() {
		return nil, errors.New("idempotency: session and key required")
	}
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:          uuid.NewString(),
		UserID:      sc.UserID,
		SessionID:   sc.SessionID,
		Key:         sc.Key,
		RequestHash: hash,
		MessageID:   messageID,
		Status:      status,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND session_id = ? AND key = ? AND expires_at <= ?", sc.UserID, sc.SessionID, sc.Key, now).
			Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// PurgeIdempotency deletes records that expired before now and reports how
// many went.
func PurgeIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
