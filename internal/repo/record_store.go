package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/records"
)

// RecordStore evaluates records.Filter against the SKU, claim, sale and
// dealer tables. Field and order names are checked against the allow-list in
// package records before they reach SQL.
type RecordStore struct {
	DB *gorm.DB
}

// NewRecordStore returns a store over db.
func NewRecordStore(db *gorm.DB) *RecordStore { return &RecordStore{DB: db} }

var _ records.Store = (*RecordStore)(nil)

// SearchSKUs implements records.Store.
func (s *RecordStore) SearchSKUs(ctx context.Context, f records.Filter) ([]domain.SKU, error) {
	var out []domain.SKU
	return out, s.search(ctx, records.KindSKU, f, &out)
}

// SearchClaims implements records.Store.
func (s *RecordStore) SearchClaims(ctx context.Context, f records.Filter) ([]domain.Claim, error) {
	var out []domain.Claim
	return out, s.search(ctx, records.KindClaim, f, &out)
}

// SearchSales implements records.Store.
func (s *RecordStore) SearchSales(ctx context.Context, f records.Filter) ([]domain.Sale, error) {
	var out []domain.Sale
	return out, s.search(ctx, records.KindSale, f, &out)
}

// SearchDealers implements records.Store.
func (s *RecordStore) SearchDealers(ctx context.Context, f records.Filter) ([]domain.Dealer, error) {
	var out []domain.Dealer
	return out, s.search(ctx, records.KindDealer, f, &out)
}

func (s *RecordStore) search(ctx context.Context, kind records.Kind, f records.Filter, dest any) error {
	if err := f.Validate(kind); err != nil {
		return err
	}
	q := s.DB.WithContext(ctx)
	if where, args := likeClause(f.Fields, f.Terms); where != "" {
		q = q.Where(where, args...)
	}
	order := records.DefaultOrder(kind)
	if f.OrderBy != nil {
		order = *f.OrderBy
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: order.Field}, Desc: order.Desc})
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q.Find(dest).Error
}

// likeClause builds "(LOWER(f1) LIKE ? OR LOWER(f2) LIKE ? ...)" for every
// field/term pair. LOWER on both sides keeps it portable between SQLite and
// PostgreSQL.
func likeClause(fields, terms []string) (string, []any) {
	if len(fields) == 0 || len(terms) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(fields)*len(terms))
	args := make([]any, 0, len(fields)*len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		pattern := "%" + escapeLike(strings.ToLower(t)) + "%"
		for _, f := range fields {
			parts = append(parts, "LOWER("+f+") LIKE ? ESCAPE '\\'")
			args = append(args, pattern)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
