// Package records defines the read-only contract between the assistant and
// whatever backs the SKU, claim, sale and dealer collections. A Filter is an
// OR of case-insensitive substring predicates over named fields; the store
// decides how to evaluate it (SQL LIKE, a cache hit, a fake in tests).
package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// Kind names one of the record collections.
type Kind string

const (
	KindSKU    Kind = "sku"
	KindClaim  Kind = "claim"
	KindSale   Kind = "sale"
	KindDealer Kind = "dealer"
)

// Result caps.
const (
	LimitIntent  = 10 // classified intent
	LimitGeneral = 3  // per kind for the general overview
	LimitTable   = 50 // tabular views
)

// Order sorts results by a single field.
type Order struct {
	Field string
	Desc  bool
}

// Filter selects rows where any Field contains any Term (case-insensitive).
// An empty Terms slice matches every row.
type Filter struct {
	Fields  []string
	Terms   []string
	Limit   int
	OrderBy *Order
}

// Store is the narrow read interface consumed by the assistant and the table
// endpoints. Implementations must be safe for concurrent use.
type Store interface {
	SearchSKUs(ctx context.Context, f Filter) ([]domain.SKU, error)
	SearchClaims(ctx context.Context, f Filter) ([]domain.Claim, error)
	SearchSales(ctx context.Context, f Filter) ([]domain.Sale, error)
	SearchDealers(ctx context.Context, f Filter) ([]domain.Dealer, error)
}

// searchFields lists the columns each kind may be filtered on. Stores must
// reject any other column name.
var searchFields = map[Kind][]string{
	KindSKU:    {"id", "name", "category", "description", "warehouse", "zone"},
	KindClaim:  {"id", "dealer_name", "status", "type"},
	KindSale:   {"id", "dealer_name", "sku_name", "region", "zone"},
	KindDealer: {"id", "name", "region", "zone", "city"},
}

// defaultOrder is the ordering applied when a caller does not pick one.
var defaultOrder = map[Kind]Order{
	KindSKU:    {Field: "id"},
	KindClaim:  {Field: "id"},
	KindSale:   {Field: "date", Desc: true},
	KindDealer: {Field: "id"},
}

// sortable lists the columns each kind may be ordered by.
var sortable = map[Kind]map[string]struct{}{
	KindSKU:    {"id": {}, "name": {}, "stock": {}, "price": {}},
	KindClaim:  {"id": {}, "amount": {}, "submitted_date": {}},
	KindSale:   {"id": {}, "date": {}, "amount": {}, "quantity": {}},
	KindDealer: {"id": {}, "name": {}},
}

// SearchFields returns a copy of the searchable fields for k.
func SearchFields(k Kind) []string {
	src := searchFields[k]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// DefaultOrder returns the ordering used for k when none is given.
func DefaultOrder(k Kind) Order { return defaultOrder[k] }

// NewFilter builds a filter over every searchable field of k with the
// kind's default ordering.
func NewFilter(k Kind, terms []string, limit int) Filter {
	o := defaultOrder[k]
	return Filter{Fields: SearchFields(k), Terms: terms, Limit: limit, OrderBy: &o}
}

// Validate checks field and order names against the allow-list for k.
func (f Filter) Validate(k Kind) error {
	allowed, ok := searchFields[k]
	if !ok {
		return fmt.Errorf("records: unknown kind %q", k)
	}
	for _, fld := range f.Fields {
		if !contains(allowed, fld) {
			return fmt.Errorf("records: field %q not searchable on %s", fld, k)
		}
	}
	if f.OrderBy != nil {
		if _, ok := sortable[k][f.OrderBy.Field]; !ok {
			return fmt.Errorf("records: field %q not sortable on %s", f.OrderBy.Field, k)
		}
	}
	return nil
}

// Key renders a stable, human-readable identity for the filter. Caches use
// it as part of their keys.
func (f Filter) Key() string {
	var b strings.Builder
	b.WriteString(strings.Join(f.Fields, ","))
	b.WriteByte('|')
	terms := make([]string, len(f.Terms))
	for i, t := range f.Terms {
		terms[i] = strings.ToLower(t)
	}
	b.WriteString(strings.Join(terms, ","))
	fmt.Fprintf(&b, "|%d", f.Limit)
	if f.OrderBy != nil {
		dir := "asc"
		if f.OrderBy.Desc {
			dir = "desc"
		}
		fmt.Fprintf(&b, "|%s:%s", f.OrderBy.Field, dir)
	}
	return b.String()
}

// ParseKind maps table-style names ("skus", "claims", ...) and singular
// names to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sku", "skus":
		return KindSKU, true
	case "claim", "claims":
		return KindClaim, true
	case "sale", "sales":
		return KindSale, true
	case "dealer", "dealers":
		return KindDealer, true
	}
	return "", false
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
