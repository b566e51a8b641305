package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// ListVersion summarises a list cheaply: any insert or update changes Count
// or Latest, so it is enough to derive a weak ETag.
type ListVersion struct {
	Count  int64
	Latest time.Time // zero when Count is 0
}

// ETag renders v as a weak validator for one page of the kind/scope list.
func (v ListVersion) ETag(kind, scope string, page, pageSize int) string {
	var ts int64
	if !v.Latest.IsZero() {
		ts = v.Latest.UnixNano()
	}
	return fmt.Sprintf(`W/"%s:%s:%d:%d:%d:%d"`, kind, scope, v.Count, ts, page, pageSize)
}

// SessionsVersion covers the sessions owned by userID. Title edits bump
// updated_at, so they change the version too.
func SessionsVersion(ctx context.Context, db *gorm.DB, userID string) (ListVersion, error) {
	q := db.WithContext(ctx).Model(&domain.Session{}).Where("user_id = ?", userID)
	return versionOf(q, "updated_at")
}

// MessagesVersion covers a session transcript. Messages are append-only.
func MessagesVersion(ctx context.Context, db *gorm.DB, sessionID string) (ListVersion, error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("session_id = ?", sessionID)
	return versionOf(q, "created_at")
}

func versionOf(q *gorm.DB, column string) (ListVersion, error) {
	var v ListVersion
	if err := q.Session(&gorm.Session{}).Count(&v.Count).Error; err != nil || v.Count == 0 {
		return v, err
	}
	// Ordered select instead of MAX(): SQLite hands MAX() back as TEXT.
	var row struct {
		TS time.Time `gorm:"column:ts"`
	}
	if err := q.Session(&gorm.Session{}).Select(column + " AS ts").Order(column + " DESC").Limit(1).Scan(&row).Error; err != nil {
		return ListVersion{}, err
	}
	v.Latest = row.TS
	return v, nil
}
