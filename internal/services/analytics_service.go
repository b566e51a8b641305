package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TopProductsLimit is the number of best sellers in a summary.
const TopProductsLimit = 10

// Viewer identifies who is looking at the dashboard.
type Viewer struct {
	Name     string
	Role     string
	DealerID string
	Region   string
}

// Totals are the headline figures of a summary.
type Totals struct {
	SKUs          int64           `json:"skus"`
	Revenue       decimal.Decimal `json:"revenue"`
	Transactions  int64           `json:"transactions"`
	PendingClaims int64           `json:"pending_claims"`
	ActiveDealers int64           `json:"active_dealers"`
	TodaySales    int64           `json:"today_sales"`
}

// MonthAmount is the sales total of one calendar month ("2006-01").
type MonthAmount struct {
	Month  string          `json:"month"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// Summary is the role-scoped analytics view.
type Summary struct {
	Role           string               `json:"role"`
	Welcome        string               `json:"welcome"`
	Permissions    []string             `json:"permissions"`
	Totals         Totals               `json:"totals"`
	SalesByMonth   []MonthAmount        `json:"sales_by_month"`
	ClaimsByStatus []repo.NamedAmount   `json:"claims_by_status"`
	TopProducts    []repo.NamedQuantity `json:"top_products"`
	SalesByRegion  []repo.NamedAmount   `json:"sales_by_region"`
	GeneratedAt    time.Time            `json:"generated_at"`
}

// AnalyticsService aggregates the record collections for the dashboard.
type AnalyticsService struct {
	DB *gorm.DB
	// Months is the number of calendar months in SalesByMonth, including
	// the current one. Defaults to 12.
	Months int
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Summary computes the dashboard for v. Dealers only see their own dealer
// id and sales reps only their region; everyone else sees the network.
func (s *AnalyticsService) Summary(ctx context.Context, v Viewer) (*Summary, error) {
	ctx, span := otel.Tracer("services/AnalyticsService").Start(ctx, "Summary",
		trace.WithAttributes(attribute.String("viewer.role", v.Role)),
	)
	defer span.End()

	now := s.now().UTC()
	sc := ScopeFor(v)
	out := &Summary{
		Role:        v.Role,
		Welcome:     WelcomeLine(v),
		Permissions: Permissions(v.Role),
		GeneratedAt: now,
	}

	var err error
	if out.Totals.SKUs, err = repo.CountSKUs(ctx, s.DB); err != nil {
		return nil, fmt.Errorf("count skus: %w", err)
	}
	if out.Totals.Revenue, out.Totals.Transactions, err = repo.SalesTotal(ctx, s.DB, sc, time.Time{}); err != nil {
		return nil, fmt.Errorf("sales total: %w", err)
	}
	if out.Totals.PendingClaims, err = repo.CountClaimsByStatus(ctx, s.DB, sc, domain.ClaimPending); err != nil {
		return nil, fmt.Errorf("pending claims: %w", err)
	}
	if out.Totals.ActiveDealers, err = repo.CountActiveDealers(ctx, s.DB, sc); err != nil {
		return nil, fmt.Errorf("active dealers: %w", err)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if _, out.Totals.TodaySales, err = repo.SalesTotal(ctx, s.DB, sc, today); err != nil {
		return nil, fmt.Errorf("today's sales: %w", err)
	}

	months := s.Months
	if months <= 0 {
		months = 12
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	rows, err := repo.SaleAmountsSince(ctx, s.DB, sc, first)
	if err != nil {
		return nil, fmt.Errorf("sales by month: %w", err)
	}
	out.SalesByMonth = BucketByMonth(rows, first, months)

	if out.ClaimsByStatus, err = repo.ClaimsByStatus(ctx, s.DB, sc); err != nil {
		return nil, fmt.Errorf("claims by status: %w", err)
	}
	if out.TopProducts, err = repo.TopProducts(ctx, s.DB, sc, TopProductsLimit); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	if out.SalesByRegion, err = repo.SalesByRegion(ctx, s.DB, sc); err != nil {
		return nil, fmt.Errorf("sales by region: %w", err)
	}
	return out, nil
}

func (s *AnalyticsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ScopeFor maps a viewer to the rows it may aggregate.
func ScopeFor(v Viewer) repo.Scope {
	switch v.Role {
	case domain.RoleDealer:
		return repo.Scope{DealerID: v.DealerID}
	case domain.RoleSalesRep:
		return repo.Scope{Region: v.Region}
	default:
		return repo.Scope{}
	}
}

// BucketByMonth sums rows into n consecutive months starting at first.
// Months without sales are present with a zero amount; rows outside the
// window are ignored.
func BucketByMonth(rows []repo.DatedAmount, first time.Time, n int) []MonthAmount {
	out := make([]MonthAmount, n)
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, i, 0)
		key := m.Format("2006-01")
		out[i] = MonthAmount{Month: key, Label: m.Format("Jan"), Amount: decimal.Zero}
		index[key] = i
	}
	for _, r := range rows {
		i, ok := index[r.Date.In(first.Location()).Format("2006-01")]
		if !ok {
			continue
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
		out[i].Count++
	}
	return out
}

var permissions = map[string][]string{
	domain.RoleDealer:   {"View Own Sales", "SKU Availability", "Own Claims", "Submit Claims"},
	domain.RoleSalesRep: {"Dealer Performance", "Regional Sales", "Product Trends", "Regional Analytics"},
	domain.RoleAdmin:    {"Full Data Access", "System Logs", "User Management", "Claim Approval"},
}

// Permissions lists what a role may do; unknown roles get none.
func Permissions(role string) []string {
	src := permissions[role]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// WelcomeLine is the dashboard greeting for v.
func WelcomeLine(v Viewer) string {
	name := v.Name
	if name == "" {
		name = "there"
	}
	switch v.Role {
	case domain.RoleDealer:
		return fmt.Sprintf("Welcome back, %s! Query your SKU availability, sales data, and claim statuses.", name)
	case domain.RoleSalesRep:
		region := v.Region
		if region == "" {
			region = "your region"
		}
		return fmt.Sprintf("Hello %s! Access dealer performance, regional sales insights, and product trends for %s.", name, region)
	case domain.RoleAdmin:
		return fmt.Sprintf("Welcome %s! You have full system access to all data, analytics, and system logs.", name)
	default:
		return "Welcome to the Manufacturing AI Assistant!"
	}
}
