// Package domain defines the persistence models for sessions, transcript
// messages, business records (SKUs, claims, sales, dealers) and settings.
// These types are mapped with GORM and shared by the repository, service
// and HTTP layers.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Sender tags for transcript messages.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Roles understood by the assistant. Any other value is treated as a
// generic visitor.
const (
	RoleDealer   = "dealer"
	RoleSalesRep = "sales_rep"
	RoleAdmin    = "admin"
)

// Session is a conversation owned by a user. The role is captured when the
// session is opened so every reply in it is phrased for the same audience.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner identifier; indexed for listing.
//   - Role: dealer, sales_rep, admin or empty.
//   - Title: auto-generated from the first prompt unless renamed.
//   - DeletedAt: soft deletion marker.
type Session struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"   gorm:"type:varchar(64);not null;index:idx_user_sessions"`
	Role      string         `json:"role"      gorm:"type:varchar(32);not null;default:''"`
	Title     string         `json:"title"     gorm:"type:varchar(255);not null;default:'New chat'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Message is one entry of a session transcript. Messages are append-only:
// they are never updated once written.
//
// Assistant messages carry the intent that produced them, whether the text
// came from the local templates or the remote model, and ReplyTo pointing at
// the user message they answer. ClientQueryID echoes the identifier the
// client attached to its query so out-of-order replies can be matched.
type Message struct {
	ID            string    `json:"id"                        gorm:"type:char(36);primaryKey"`
	SessionID     string    `json:"session_id"                gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	Sender        string    `json:"sender"                    gorm:"type:varchar(16);not null;check:sender IN ('user','assistant')"`
	Content       string    `json:"content"                   gorm:"type:text;not null"`
	Intent        string    `json:"intent,omitempty"          gorm:"type:varchar(16)"`
	Source        string    `json:"source,omitempty"          gorm:"type:varchar(16)"`
	ReplyTo       *string   `json:"reply_to,omitempty"        gorm:"type:char(36);index"`
	ClientQueryID string    `json:"client_query_id,omitempty" gorm:"type:varchar(128)"`
	CreatedAt     time.Time `json:"created_at"                gorm:"index:idx_session_msgs,priority:2"`

	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Setting is a small key/value row for runtime configuration that must
// survive restarts, such as the remote model credential.
type Setting struct {
	Key       string    `gorm:"type:varchar(64);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "settings" }
