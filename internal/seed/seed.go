// Package seed fills an empty database with a deterministic demo data set:
// dealers, SKUs, claims and sales. The same seed and reference time always
// produce the same rows.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// Sizes of the generated data set.
const (
	NumDealers = 50
	NumSKUs    = 300
	NumClaims  = 100
	NumSales   = 1000
)

const batchSize = 100

var (
	cities     = []string{"Chennai", "Mumbai", "Delhi", "Bangalore", "Kolkata", "Pune", "Hyderabad"}
	zones      = []string{"North", "South", "East", "West", "Central"}
	categories = []string{"Electronics", "Appliances", "Tools", "Components", "Accessories"}
	claimTypes = []string{"Warranty", "Return", "Damage", "Quality Issue"}
	statuses   = []string{domain.ClaimPending, domain.ClaimApproved, domain.ClaimRejected}
)

// Options controls generation.
type Options struct {
	Seed uint64
	Now  time.Time
}

// Data is one generated data set.
type Data struct {
	Dealers []domain.Dealer
	SKUs    []domain.SKU
	Claims  []domain.Claim
	Sales   []domain.Sale
}

// Generate builds a data set without touching the database.
func Generate(opt Options) Data {
	if opt.Now.IsZero() {
		opt.Now = time.Now().UTC()
	}
	today := opt.Now.UTC().Truncate(24 * time.Hour)
	r := rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))
	pick := func(xs []string) string { return xs[r.IntN(len(xs))] }
	daysAgo := func(max int) time.Time { return today.AddDate(0, 0, -r.IntN(max)) }

	var d Data

	d.Dealers = make([]domain.Dealer, NumDealers)
	for i := range d.Dealers {
		status := domain.DealerActive
		if r.Float64() < 0.1 {
			status = domain.DealerInactive
		}
		d.Dealers[i] = domain.Dealer{
			ID:      fmt.Sprintf("D%03d", i+1),
			Name:    fmt.Sprintf("Dealer %d", i+1),
			Region:  pick(cities),
			Zone:    pick(zones),
			City:    pick(cities),
			Contact: fmt.Sprintf("+91-%d", 1_000_000_000+r.Int64N(9_000_000_000)),
			Status:  status,
		}
	}

	d.SKUs = make([]domain.SKU, NumSKUs)
	for i := range d.SKUs {
		d.SKUs[i] = domain.SKU{
			ID:          fmt.Sprintf("SKU%05d", i+1),
			Name:        fmt.Sprintf("Product %d", i+1),
			Category:    pick(categories),
			Zone:        pick(zones),
			Warehouse:   pick(cities),
			Stock:       r.IntN(1000),
			Price:       decimal.NewFromInt(int64(1000 + r.IntN(50_000))),
			Description: fmt.Sprintf("High-quality %s product", strings.ToLower(pick(categories))),
		}
	}

	d.Claims = make([]domain.Claim, NumClaims)
	for i := range d.Claims {
		dealer := d.Dealers[i%len(d.Dealers)]
		submitted := daysAgo(365)
		c := domain.Claim{
			ID:            fmt.Sprintf("CLM%05d", i+1),
			DealerID:      dealer.ID,
			DealerName:    dealer.Name,
			Amount:        decimal.NewFromInt(int64(5000 + r.IntN(100_000))),
			Status:        pick(statuses),
			Type:          pick(claimTypes),
			SubmittedDate: submitted,
		}
		if c.Status != domain.ClaimPending {
			resolved := submitted.AddDate(0, 0, r.IntN(30))
			if resolved.After(today) {
				resolved = today
			}
			c.ResolvedDate = &resolved
		}
		d.Claims[i] = c
	}

	d.Sales = make([]domain.Sale, NumSales)
	for i := range d.Sales {
		dealer := d.Dealers[i%len(d.Dealers)]
		sku := d.SKUs[r.IntN(len(d.SKUs))]
		d.Sales[i] = domain.Sale{
			ID:         fmt.Sprintf("SAL%05d", i+1),
			DealerID:   dealer.ID,
			DealerName: dealer.Name,
			SKUID:      sku.ID,
			SKUName:    sku.Name,
			Quantity:   1 + r.IntN(20),
			Amount:     decimal.NewFromInt(int64(10_000 + r.IntN(200_000))),
			Date:       daysAgo(365),
			Region:     dealer.Region,
			Zone:       dealer.Zone,
		}
	}
	return d
}

// Result reports what Run did.
type Result struct {
	Skipped bool
	Dealers int
	SKUs    int
	Claims  int
	Sales   int
}

// Run seeds db unless dealers already exist. All inserts happen in one
// transaction.
func Run(ctx context.Context, db *gorm.DB, opt Options) (Result, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Dealer{}).Count(&n).Error; err != nil {
		return Result{}, fmt.Errorf("seed: count dealers: %w", err)
	}
	if n > 0 {
		log.Info().Int64("dealers", n).Msg("seed: data already present, skipping")
		return Result{Skipped: true}, nil
	}

	data := Generate(opt)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(data.Dealers, batchSize).Error; err != nil {
			return fmt.Errorf("insert dealers: %w", err)
		}
		if err := tx.CreateInBatches(data.SKUs, batchSize).Error; err != nil {
			return fmt.Errorf("insert skus: %w", err)
		}
		if err := tx.CreateInBatches(data.Claims, batchSize).Error; err != nil {
			return fmt.Errorf("insert claims: %w", err)
		}
		if err := tx.CreateInBatches(data.Sales, batchSize).Error; err != nil {
			return fmt.Errorf("insert sales: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("seed: %w", err)
	}

	res := Result{Dealers: len(data.Dealers), SKUs: len(data.SKUs), Claims: len(data.Claims), Sales: len(data.Sales)}
	log.Info().
		Int("dealers", res.Dealers).
		Int("skus", res.SKUs).
		Int("claims", res.Claims).
		Int("sales", res.Sales).
		Msg("seed: data inserted")
	return res, nil
}
