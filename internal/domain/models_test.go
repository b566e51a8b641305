package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Session{}).TableName():     "sessions",
		(Message{}).TableName():     "messages",
		(Setting{}).TableName():     "settings",
		(SKU{}).TableName():         "skus",
		(Claim{}).TableName():       "claims",
		(Sale{}).TableName():        "sales",
		(Dealer{}).TableName():      "dealers",
		(Idempotency{}).TableName(): "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Session{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&Session{}, "idx_user_sessions") {
		t.Fatalf("expected index idx_user_sessions on sessions")
	}
	if !m.HasIndex(&Message{}, "idx_session_msgs") {
		t.Fatalf("expected index idx_session_msgs on messages")
	}

	now := time.Now().UTC()
	if err := db.Create(&Session{ID: "s1", UserID: "u1", Role: RoleDealer, Title: "T", CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		t.Fatalf("insert session: %v", err)
	}
	userMsg := &Message{ID: "m1", SessionID: "s1", Sender: SenderUser, Content: "hello", CreatedAt: now}
	if err := db.Create(userMsg).Error; err != nil {
		t.Fatalf("insert m1: %v", err)
	}
	replyTo := "m1"
	if err := db.Create(&Message{ID: "m2", SessionID: "s1", Sender: SenderAssistant, Content: "hi", Intent: "general", Source: "local", ReplyTo: &replyTo, CreatedAt: now.Add(time.Second)}).Error; err != nil {
		t.Fatalf("insert m2: %v", err)
	}

	// Sender check constraint.
	if err := db.Create(&Message{ID: "m3", SessionID: "s1", Sender: "robot", Content: "x", CreatedAt: now}).Error; err == nil {
		t.Fatalf("expected check constraint failure for unknown sender")
	}

	// Deleting the session removes its transcript.
	if err := db.Unscoped().Delete(&Session{}, "id = ?", "s1").Error; err != nil {
		t.Fatalf("delete session: %v", err)
	}
	var cnt int64
	if err := db.Model(&Message{}).Where("session_id = ?", "s1").Count(&cnt).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected messages to cascade-delete, got %d", cnt)
	}
}

func TestRecords_MigrateAndRoundTripDecimals(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&SKU{}, &Dealer{}, &Claim{}, &Sale{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	sku := SKU{
		ID: "SKU00001", Name: "Product 1", Category: "Tools", Zone: "South",
		Warehouse: "Chennai", Stock: 12, Price: decimal.RequireFromString("1499.50"),
		Description: "High-quality tools product",
	}
	if err := db.Create(&sku).Error; err != nil {
		t.Fatalf("insert sku: %v", err)
	}
	var got SKU
	if err := db.First(&got, "id = ?", "SKU00001").Error; err != nil {
		t.Fatalf("load sku: %v", err)
	}
	if !got.Price.Equal(sku.Price) {
		t.Fatalf("price round trip = %s; want %s", got.Price, sku.Price)
	}

	// Negative stock violates the check constraint.
	bad := sku
	bad.ID = "SKU00002"
	bad.Stock = -1
	if err := db.Create(&bad).Error; err == nil {
		t.Fatalf("expected stock check constraint failure")
	}

	// Unknown claim status violates the check constraint.
	claim := Claim{
		ID: "CLM00001", DealerID: "D001", DealerName: "Raj Electronics",
		Amount: decimal.NewFromInt(5000), Status: "Escalated", Type: "Warranty",
		SubmittedDate: time.Now().UTC(),
	}
	if err := db.Create(&claim).Error; err == nil {
		t.Fatalf("expected claim status check constraint failure")
	}
	claim.Status = ClaimPending
	if err := db.Create(&claim).Error; err != nil {
		t.Fatalf("insert claim: %v", err)
	}
}
