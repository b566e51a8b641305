package services

import (
	"context"
	"strings"

	"github.com/tbourn/go-dealer-assistant/internal/records"
)

// RecordPage is one tabular view of a record collection.
type RecordPage struct {
	Kind  records.Kind `json:"kind"`
	Query string       `json:"query,omitempty"`
	Count int          `json:"count"`
	Items any          `json:"items"`
}

// RecordsService serves the data tables. Searches run through the same
// gateway the assistant uses, so a cache in front of it serves both.
type RecordsService struct {
	Store records.Store
}

// Search lists up to limit rows of kind whose searchable fields contain
// any whitespace-separated word of q. Limits outside 1..records.LimitTable
// are clamped to records.LimitTable.
func (s *RecordsService) Search(ctx context.Context, kind, q string, limit int) (*RecordPage, error) {
	k, ok := records.ParseKind(kind)
	if !ok {
		return nil, ErrUnknownKind
	}
	if limit <= 0 || limit > records.LimitTable {
		limit = records.LimitTable
	}
	q = strings.TrimSpace(q)
	f := records.NewFilter(k, tableTerms(q), limit)

	page := &RecordPage{Kind: k, Query: q}
	switch k {
	case records.KindSKU:
		items, err := s.Store.SearchSKUs(ctx, f)
		if err != nil {
			return nil, err
		}
		page.Items, page.Count = items, len(items)
	case records.KindClaim:
		items, err := s.Store.SearchClaims(ctx, f)
		if err != nil {
			return nil, err
		}
		page.Items, page.Count = items, len(items)
	case records.KindSale:
		items, err := s.Store.SearchSales(ctx, f)
		if err != nil {
			return nil, err
		}
		page.Items, page.Count = items, len(items)
	default:
		items, err := s.Store.SearchDealers(ctx, f)
		if err != nil {
			return nil, err
		}
		page.Items, page.Count = items, len(items)
	}
	return page, nil
}

// tableTerms splits a table search box into lower-cased words. Unlike
// assistant queries, no words are dropped: "pending" is a useful filter on
// the claims table.
func tableTerms(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
