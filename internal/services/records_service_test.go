package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/records"
)

type captureStore struct {
	last records.Filter
	kind records.Kind
	err  error
}

func (s *captureStore) SearchSKUs(_ context.Context, f records.Filter) ([]domain.SKU, error) {
	s.last, s.kind = f, records.KindSKU
	return []domain.SKU{{ID: "SKU00001"}, {ID: "SKU00002"}}, s.err
}

func (s *captureStore) SearchClaims(_ context.Context, f records.Filter) ([]domain.Claim, error) {
	s.last, s.kind = f, records.KindClaim
	return []domain.Claim{{ID: "CLM00001"}}, s.err
}

func (s *captureStore) SearchSales(_ context.Context, f records.Filter) ([]domain.Sale, error) {
	s.last, s.kind = f, records.KindSale
	return nil, s.err
}

func (s *captureStore) SearchDealers(_ context.Context, f records.Filter) ([]domain.Dealer, error) {
	s.last, s.kind = f, records.KindDealer
	return []domain.Dealer{{ID: "D001"}}, s.err
}

func TestRecordsService_SearchRoutesByKind(t *testing.T) {
	st := &captureStore{}
	s := &RecordsService{Store: st}
	ctx := context.Background()

	cases := []struct {
		kind  string
		want  records.Kind
		count int
	}{
		{"skus", records.KindSKU, 2},
		{"Claims", records.KindClaim, 1},
		{"sale", records.KindSale, 0},
		{"dealers", records.KindDealer, 1},
	}
	for _, tc := range cases {
		page, err := s.Search(ctx, tc.kind, "", 0)
		if err != nil {
			t.Fatalf("%s: %v", tc.kind, err)
		}
		if st.kind != tc.want || page.Kind != tc.want || page.Count != tc.count {
			t.Fatalf("%s: routed to %s, page %+v", tc.kind, st.kind, page)
		}
		if st.last.Limit != records.LimitTable || st.last.Terms != nil {
			t.Fatalf("%s: unexpected filter %+v", tc.kind, st.last)
		}
		if !reflect.DeepEqual(st.last.Fields, records.SearchFields(tc.want)) {
			t.Fatalf("%s: fields %v", tc.kind, st.last.Fields)
		}
	}
}

func TestRecordsService_TermsAndLimit(t *testing.T) {
	st := &captureStore{}
	s := &RecordsService{Store: st}

	page, err := s.Search(context.Background(), "claims", "  Pending  chennai PENDING ", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(st.last.Terms, []string{"pending", "chennai"}) {
		t.Fatalf("terms = %v", st.last.Terms)
	}
	if st.last.Limit != 5 || page.Query != "Pending  chennai PENDING" {
		t.Fatalf("unexpected filter %+v page %+v", st.last, page)
	}

	if _, err := s.Search(context.Background(), "claims", "", 500); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if st.last.Limit != records.LimitTable {
		t.Fatalf("limit not capped: %d", st.last.Limit)
	}
}

func TestRecordsService_Errors(t *testing.T) {
	s := &RecordsService{Store: &captureStore{}}
	if _, err := s.Search(context.Background(), "invoices", "", 0); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}

	sentinel := errors.New("db down")
	s = &RecordsService{Store: &captureStore{err: sentinel}}
	if _, err := s.Search(context.Background(), "skus", "", 0); !errors.Is(err, sentinel) {
		t.Fatalf("expected store error, got %v", err)
	}
}
