package domain

import (
	"testing"
	"time"
)

func TestIdempotency_UniquePerUserSessionKey(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if !db.Migrator().HasIndex(&Idempotency{}, "ux_user_session_key") {
		t.Fatalf("expected unique index ux_user_session_key")
	}

	now := time.Now().UTC()
	rec := Idempotency{
		ID: "i1", UserID: "dealer-7", SessionID: "s1", Key: "retry-1", RequestHash: "h1",
		MessageID: "m1", Status: 200, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	dup := rec
	dup.ID = "i2"
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("same (user, session, key) inserted twice")
	}

	other := rec
	other.ID, other.SessionID = "i3", "s2"
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("different session rejected: %v", err)
	}
}

func TestIdempotency_ExpiredAndMatches(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := Idempotency{RequestHash: "abc", ExpiresAt: now}

	if !rec.Expired(now) || rec.Expired(now.Add(-time.Second)) {
		t.Fatalf("expiry boundary wrong")
	}
	if !rec.Matches("abc") || rec.Matches("def") {
		t.Fatalf("hash match wrong")
	}
	if !(Idempotency{}).Matches("anything") {
		t.Fatalf("legacy record without hash should match")
	}
}
