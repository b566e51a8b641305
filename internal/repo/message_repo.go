package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// Transcript order: append order, ties broken by id.
const transcriptOrder = "created_at ASC, id ASC"

// AppendMessage inserts m, filling in ID and CreatedAt when unset. Messages
// are never updated afterwards. Pass a transaction handle to append a
// question and its reply together.
func AppendMessage(db *gorm.DB, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return db.Create(m).Error
}

func CountMessages(db *gorm.DB, sessionID string) (int64, error) {
	var n int64
	err := db.Model(&domain.Message{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}

// ListMessagesPage returns limit messages of a transcript starting at offset.
func ListMessagesPage(db *gorm.DB, sessionID string, offset, limit int) ([]domain.Message, error) {
	out := make([]domain.Message, 0, limit)
	err := db.Where("session_id = ?", sessionID).
		Order(transcriptOrder).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetMessage fetches a message by id alone. ErrNotFound when absent.
func GetMessage(db *gorm.DB, id string) (*domain.Message, error) {
	return firstMessage(db.Where("id = ?", id))
}

// GetSessionMessage is GetMessage restricted to one transcript, for callers
// holding an id that came from outside the session.
func GetSessionMessage(db *gorm.DB, sessionID, id string) (*domain.Message, error) {
	return firstMessage(db.Where("id = ? AND session_id = ?", id, sessionID))
}

func firstMessage(q *gorm.DB) (*domain.Message, error) {
	var m domain.Message
	if err := q.First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
