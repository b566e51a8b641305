package domain

import "time"

// Idempotency remembers which assistant reply answered a POST carrying an
// Idempotency-Key. RequestHash fingerprints the query so a key reused for a
// different question is rejected instead of replayed.
type Idempotency struct {
	ID          string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_session_key,priority:1"`
	SessionID   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_session_key,priority:2"`
	Key         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_session_key,priority:3"`
	RequestHash string    `gorm:"type:TEXT NOT NULL;default:''"`
	MessageID   string    `gorm:"type:TEXT NOT NULL"`
	Status      int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt   time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// Expired reports whether the record can no longer be replayed at now.
func (i Idempotency) Expired(now time.Time) bool { return !now.Before(i.ExpiresAt) }

// Matches reports whether hash fingerprints the same request. Records written
// before fingerprints existed match anything.
func (i Idempotency) Matches(hash string) bool {
	return i.RequestHash == "" || i.RequestHash == hash
}
