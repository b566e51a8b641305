package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Claim statuses.
const (
	ClaimPending  = "Pending"
	ClaimApproved = "Approved"
	ClaimRejected = "Rejected"
)

// Dealer statuses.
const (
	DealerActive   = "Active"
	DealerInactive = "Inactive"
)

// SKU is a stock keeping unit held in a warehouse.
type SKU struct {
	ID          string          `json:"id"          gorm:"type:varchar(16);primaryKey"`
	Name        string          `json:"name"        gorm:"type:varchar(255);not null"`
	Category    string          `json:"category"    gorm:"type:varchar(64);not null;index"`
	Zone        string          `json:"zone"        gorm:"type:varchar(32);not null"`
	Warehouse   string          `json:"warehouse"   gorm:"type:varchar(64);not null;index"`
	Stock       int             `json:"stock"       gorm:"not null;check:stock >= 0"`
	Price       decimal.Decimal `json:"price"       gorm:"type:numeric(14,2);not null"`
	Description string          `json:"description" gorm:"type:text"`
}

// TableName returns the database table name for SKU.
func (SKU) TableName() string { return "skus" }

// Dealer is a distribution partner.
type Dealer struct {
	ID      string `json:"id"      gorm:"type:varchar(16);primaryKey"`
	Name    string `json:"name"    gorm:"type:varchar(255);not null"`
	Region  string `json:"region"  gorm:"type:varchar(64);not null;index"`
	Zone    string `json:"zone"    gorm:"type:varchar(32);not null"`
	City    string `json:"city"    gorm:"type:varchar(64);not null"`
	Contact string `json:"contact" gorm:"type:varchar(64)"`
	Status  string `json:"status"  gorm:"type:varchar(16);not null;check:status IN ('Active','Inactive')"`
}

// TableName returns the database table name for Dealer.
func (Dealer) TableName() string { return "dealers" }

// Claim is a warranty, return, damage or quality claim raised by a dealer.
// ResolvedDate, when set, is never before SubmittedDate.
type Claim struct {
	ID            string          `json:"id"                      gorm:"type:varchar(16);primaryKey"`
	DealerID      string          `json:"dealer_id"               gorm:"type:varchar(16);not null;index"`
	DealerName    string          `json:"dealer_name"             gorm:"type:varchar(255);not null"`
	Amount        decimal.Decimal `json:"amount"                  gorm:"type:numeric(14,2);not null"`
	Status        string          `json:"status"                  gorm:"type:varchar(16);not null;index;check:status IN ('Pending','Approved','Rejected')"`
	Type          string          `json:"type"                    gorm:"type:varchar(32);not null"`
	SubmittedDate time.Time       `json:"submitted_date"          gorm:"not null"`
	ResolvedDate  *time.Time      `json:"resolved_date,omitempty"`
}

// TableName returns the database table name for Claim.
func (Claim) TableName() string { return "claims" }

// Sale is a single sales transaction.
type Sale struct {
	ID         string          `json:"id"          gorm:"type:varchar(16);primaryKey"`
	DealerID   string          `json:"dealer_id"   gorm:"type:varchar(16);not null;index"`
	DealerName string          `json:"dealer_name" gorm:"type:varchar(255);not null"`
	SKUID      string          `json:"sku_id"      gorm:"column:sku_id;type:varchar(16);not null;index"`
	SKUName    string          `json:"sku_name"    gorm:"column:sku_name;type:varchar(255);not null"`
	Quantity   int             `json:"quantity"    gorm:"not null;check:quantity > 0"`
	Amount     decimal.Decimal `json:"amount"      gorm:"type:numeric(14,2);not null"`
	Date       time.Time       `json:"date"        gorm:"not null;index"`
	Region     string          `json:"region"      gorm:"type:varchar(64);not null;index"`
	Zone       string          `json:"zone"        gorm:"type:varchar(32);not null"`
}

// TableName returns the database table name for Sale.
func (Sale) TableName() string { return "sales" }
