package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// Scope narrows analytics to one dealer and/or one region. The zero value
// covers the whole network.
type Scope struct {
	DealerID string
	Region   string
}

// NamedAmount is a grouped monetary total.
type NamedAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// NamedQuantity is a grouped unit count.
type NamedQuantity struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// DatedAmount is one sale's date and amount, used for calendar grouping in
// the service layer (date functions differ between SQLite and PostgreSQL).
type DatedAmount struct {
	Date   time.Time
	Amount decimal.Decimal
}

func scopedSales(ctx context.Context, db *gorm.DB, sc Scope) *gorm.DB {
	q := db.WithContext(ctx).Model(&domain.Sale{})
	if sc.DealerID != "" {
		q = q.Where("dealer_id = ?", sc.DealerID)
	}
	if sc.Region != "" {
		q = q.Where("region = ?", sc.Region)
	}
	return q
}

// CountSKUs returns the number of SKUs in the catalog.
func CountSKUs(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.SKU{}).Count(&n).Error
	return n, err
}

// CountActiveDealers returns the number of dealers with status Active,
// restricted to the scope's region when set.
func CountActiveDealers(ctx context.Context, db *gorm.DB, sc Scope) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Dealer{}).Where("status = ?", domain.DealerActive)
	if sc.DealerID != "" {
		q = q.Where("id = ?", sc.DealerID)
	}
	if sc.Region != "" {
		q = q.Where("region = ?", sc.Region)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// scopedClaims narrows claims to the scope. Claims carry no region, so a
// region matches through the claiming dealer.
func scopedClaims(ctx context.Context, db *gorm.DB, sc Scope) *gorm.DB {
	q := db.WithContext(ctx).Model(&domain.Claim{})
	if sc.DealerID != "" {
		q = q.Where("dealer_id = ?", sc.DealerID)
	}
	if sc.Region != "" {
		q = q.Where("dealer_id IN (?)", db.Model(&domain.Dealer{}).Select("id").Where("region = ?", sc.Region))
	}
	return q
}

// CountClaimsByStatus returns the number of claims in status within scope.
func CountClaimsByStatus(ctx context.Context, db *gorm.DB, sc Scope, status string) (int64, error) {
	q := scopedClaims(ctx, db, sc).Where("status = ?", status)
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// ClaimsByStatus groups claims by status with count and total amount.
func ClaimsByStatus(ctx context.Context, db *gorm.DB, sc Scope) ([]NamedAmount, error) {
	var out []NamedAmount
	err := scopedClaims(ctx, db, sc).Select("status AS name, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Group("status").
		Order("status").
		Scan(&out).Error
	return out, err
}

// SalesTotal returns the summed amount and number of sales in scope since
// the given time (zero time means all time).
func SalesTotal(ctx context.Context, db *gorm.DB, sc Scope, since time.Time) (decimal.Decimal, int64, error) {
	q := scopedSales(ctx, db, sc)
	if !since.IsZero() {
		q = q.Where("date >= ?", since)
	}
	var row struct {
		Amount decimal.Decimal
		Count  int64
	}
	err := q.Select("COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count").Scan(&row).Error
	return row.Amount, row.Count, err
}

// SalesByRegion groups sales in scope by region, largest first.
func SalesByRegion(ctx context.Context, db *gorm.DB, sc Scope) ([]NamedAmount, error) {
	var out []NamedAmount
	err := scopedSales(ctx, db, sc).
		Select("region AS name, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Group("region").
		Order("amount DESC").
		Scan(&out).Error
	return out, err
}

// TopProducts returns the n best-selling SKUs by quantity in scope.
func TopProducts(ctx context.Context, db *gorm.DB, sc Scope, n int) ([]NamedQuantity, error) {
	var out []NamedQuantity
	err := scopedSales(ctx, db, sc).
		Select("sku_name AS name, SUM(quantity) AS quantity, COALESCE(SUM(amount), 0) AS amount").
		Group("sku_name").
		Order("quantity DESC, sku_name ASC").
		Limit(n).
		Scan(&out).Error
	return out, err
}

// SaleAmountsSince lists date/amount pairs for sales in scope since the
// given time, oldest first.
func SaleAmountsSince(ctx context.Context, db *gorm.DB, sc Scope, since time.Time) ([]DatedAmount, error) {
	var out []DatedAmount
	err := scopedSales(ctx, db, sc).
		Select("date, amount").
		Where("date >= ?", since).
		Order("date ASC").
		Scan(&out).Error
	return out, err
}
