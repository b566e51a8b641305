package repo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/records"
)

func seedRecords(t *testing.T, db *gorm.DB) {
	t.Helper()
	day := func(d int) time.Time { return time.Date(2025, 6, d, 12, 0, 0, 0, time.UTC) }
	rows := []any{
		&domain.Dealer{ID: "D001", Name: "Raj Electronics", Region: "Chennai", Zone: "South", City: "Chennai", Contact: "c1", Status: domain.DealerActive},
		&domain.Dealer{ID: "D002", Name: "Kumar Traders", Region: "Mumbai", Zone: "West", City: "Mumbai", Contact: "c2", Status: domain.DealerActive},
		&domain.Dealer{ID: "D003", Name: "Patel Corp", Region: "Mumbai", Zone: "West", City: "Mumbai", Contact: "c3", Status: domain.DealerInactive},

		&domain.SKU{ID: "SKU00002", Name: "Product 2", Category: "Tools", Zone: "South", Warehouse: "Chennai", Stock: 40, Price: decimal.RequireFromString("250.50"), Description: "Torque wrench"},
		&domain.SKU{ID: "SKU00001", Name: "Product 1", Category: "Electronics", Zone: "North", Warehouse: "Delhi", Stock: 5, Price: decimal.RequireFromString("1200"), Description: "100% copper coil"},
		&domain.SKU{ID: "SKU00003", Name: "Product 3", Category: "Appliances", Zone: "West", Warehouse: "Mumbai", Stock: 0, Price: decimal.RequireFromString("999.99"), Description: "Mixer_grinder"},

		&domain.Claim{ID: "CLM00001", DealerID: "D001", DealerName: "Raj Electronics", Amount: decimal.NewFromInt(5000), Status: domain.ClaimPending, Type: "Warranty", SubmittedDate: day(1)},
		&domain.Claim{ID: "CLM00002", DealerID: "D002", DealerName: "Kumar Traders", Amount: decimal.NewFromInt(1500), Status: domain.ClaimApproved, Type: "Return", SubmittedDate: day(2)},
		&domain.Claim{ID: "CLM00003", DealerID: "D001", DealerName: "Raj Electronics", Amount: decimal.NewFromInt(700), Status: domain.ClaimRejected, Type: "Damage", SubmittedDate: day(3)},

		&domain.Sale{ID: "SAL00001", DealerID: "D001", DealerName: "Raj Electronics", SKUID: "SKU00001", SKUName: "Product 1", Quantity: 2, Amount: decimal.NewFromInt(2400), Date: day(1), Region: "Chennai", Zone: "South"},
		&domain.Sale{ID: "SAL00002", DealerID: "D002", DealerName: "Kumar Traders", SKUID: "SKU00002", SKUName: "Product 2", Quantity: 4, Amount: decimal.NewFromInt(1002), Date: day(3), Region: "Mumbai", Zone: "West"},
		&domain.Sale{ID: "SAL00003", DealerID: "D001", DealerName: "Raj Electronics", SKUID: "SKU00002", SKUName: "Product 2", Quantity: 1, Amount: decimal.RequireFromString("250.50"), Date: day(2), Region: "Chennai", Zone: "South"},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed %T: %v", r, err)
		}
	}
}

func TestRecordStore_SKUTermMatchesWarehouse(t *testing.T) {
	db := newRepoDB(t)
	seedRecords(t, db)
	s := NewRecordStore(db)

	got, err := s.SearchSKUs(context.Background(), records.NewFilter(records.KindSKU, []string{"chennai"}, records.LimitIntent))
	if err != nil {
		t.Fatalf("SearchSKUs error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "SKU00002" {
		t.Fatalf("expected SKU00002, got %+v", got)
	}
	if !got[0].Price.Equal(decimal.RequireFromString("250.5")) {
		t.Fatalf("price lost precision: %s", got[0].Price)
	}
}

func TestRecordStore_CaseInsensitiveAnyTerm(t *testing.T) {
	db := newRepoDB(t)
	seedRecords(t, db)
	s := NewRecordStore(db)

	got, err := s.SearchSKUs(context.Background(), records.NewFilter(records.KindSKU, []string{"TOOLS", "mumbai"}, 10))
	if err != nil {
		t.Fatalf("SearchSKUs error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "SKU00002" || got[1].ID != "SKU00003" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestRecordStore_NoTermsMatchesAllInIDOrder(t *testing.T) {
	db := newRepoDB(t)
	seedRecords(t, db)
	s := NewRecordStore(db)

	got, err := s.SearchSKUs(context.Background(), records.NewFilter(records.KindSKU, nil, 10))
	if err != nil {
		t.Fatalf("SearchSKUs error: %v", err)
	}
	if len(got) != 3 || got[0].ID != "SKU00001" || got[2].ID != "SKU00003" {
		t.Fatalf("expected id order, got %+v", got)
	}
}

func TestRecordStore_LimitApplied(t *testing.T) {
	db := newRepoDB(t)
	seedRecords(t, db)
	s := NewRecordStore(db)

	got, err := s.SearchClaims(context.Background(), records.NewFilter(records.KindClaim, nil, 2))
	if err != nil {
		t.Fatalf("SearchClaims error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "CLM00001" || got[1].ID != "CLM00002" {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestRecordStore_SalesNewestFirst(t *testing.T) {
	db := newRepoDB(t)
	seedRecords(t, db)
	s := NewRecordStore(db)

	got, err := s.SearchSales(context.Background(), records.NewFilter(records.KindSale, nil, 10))
	if err != nil {
		t.Fatalf("SearchSales error: %v", err)
	}
	if len(got) != 3 || got[0].ID != "SAL00002" || got[1].ID != "SAL00003" || got[2].ID != "SAL00001" {
		t.Fatalf("expected date desc, got %+v", got)
	}
}

func TestRecordStore_LikeWildcardsAreLiteral(t *testing.T) {
	db := newRepoDB(t)
	seedRecords(t, db)
	s := NewRecordStore(db)
	ctx := context.Background()

	got, err := s.SearchSKUs(ctx, records.NewFilter(records.KindSKU, []string{"100%"}, 10))
	if err != nil {
		t.Fatalf("SearchSKUs error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "SKU00001" {
		t.Fatalf("expected only the literal 100%% match, got %+v", got)
	}

	got, err = s.SearchSKUs(ctx, records.NewFilter(records.KindSKU, []string{"product_1"}, 10))
	if err != nil {
		t.Fatalf("SearchSKUs error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("underscore must not act as a wildcard, got %+v", got)
	}
}

func TestRecordStore_Dealers(t *testing.T) {
	db := newRepoDB(t)
	seedRecords(t, db)
	s := NewRecordStore(db)

	got, err := s.SearchDealers(context.Background(), records.NewFilter(records.KindDealer, []string{"west"}, 10))
	if err != nil {
		t.Fatalf("SearchDealers error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "D002" {
		t.Fatalf("unexpected dealers: %+v", got)
	}
}

func TestRecordStore_RejectsUnknownField(t *testing.T) {
	db := newRepoDB(t)
	s := NewRecordStore(db)

	f := records.Filter{Fields: []string{"name; DROP TABLE skus"}, Terms: []string{"x"}}
	if _, err := s.SearchSKUs(context.Background(), f); err == nil {
		t.Fatalf("expected validation error")
	}
	f = records.Filter{Fields: []string{"name"}, OrderBy: &records.Order{Field: "description"}}
	if _, err := s.SearchSKUs(context.Background(), f); err == nil {
		t.Fatalf("expected order validation error")
	}
}

func TestLikeClause(t *testing.T) {
	where, args := likeClause([]string{"a", "b"}, []string{"X", "  ", "y"})
	want := `(LOWER(a) LIKE ? ESCAPE '\' OR LOWER(b) LIKE ? ESCAPE '\' OR LOWER(a) LIKE ? ESCAPE '\' OR LOWER(b) LIKE ? ESCAPE '\')`
	if where != want {
		t.Fatalf("where:\n got %s\nwant %s", where, want)
	}
	if len(args) != 4 || args[0] != "%x%" || args[3] != "%y%" {
		t.Fatalf("unexpected args: %v", args)
	}

	if where, args := likeClause(nil, []string{"x"}); where != "" || args != nil {
		t.Fatalf("expected empty clause, got %q %v", where, args)
	}
	if got := escapeLike(`a\b%c_d`); got != `a\\b\%c\_d` {
		t.Fatalf("escapeLike = %q", got)
	}
}
