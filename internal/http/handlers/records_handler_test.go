package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/llm"
	"github.com/tbourn/go-dealer-assistant/internal/records"
	"github.com/tbourn/go-dealer-assistant/internal/repo"
	"github.com/tbourn/go-dealer-assistant/internal/search"
	"github.com/tbourn/go-dealer-assistant/internal/services"
)

type stubRecords struct {
	kind, q string
	limit   int
	err     error
}

func (s *stubRecords) Search(_ context.Context, kind, q string, limit int) (*services.RecordPage, error) {
	s.kind, s.q, s.limit = kind, q, limit
	if s.err != nil {
		return nil, s.err
	}
	return &services.RecordPage{Kind: records.KindClaim, Query: q, Count: 0, Items: []domain.Claim{}}, nil
}

func TestListRecords(t *testing.T) {
	st := &stubRecords{}
	r := newRouter(New(Services{Records: st}))

	w := do(r, http.MethodGet, "/records/claims?q=pending&limit=5", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	if st.kind != "claims" || st.q != "pending" || st.limit != 5 {
		t.Fatalf("unexpected args %+v", st)
	}
	if w := do(r, http.MethodGet, "/records/skus?limit=abc", "", nil); w.Code != http.StatusOK || st.limit != 0 {
		t.Fatalf("bad limit should default, got %d limit=%d", w.Code, st.limit)
	}

	r400 := newRouter(New(Services{Records: &stubRecords{err: services.ErrUnknownKind}}))
	w = do(r400, http.MethodGet, "/records/widgets", "", nil)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), ErrCodeUnknownKind) {
		t.Fatalf("unknown kind -> %d %s", w.Code, w.Body.String())
	}
	r500 := newRouter(New(Services{Records: &stubRecords{err: errors.New("db")}}))
	if w := do(r500, http.MethodGet, "/records/sales", "", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("500 -> %d", w.Code)
	}
}

func TestListRecords_AgainstStore(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&domain.Dealer{ID: "D001", Name: "Raj Electronics", Region: "Chennai", Zone: "South", City: "Chennai", Status: domain.DealerActive}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := newRouter(New(Services{Records: &services.RecordsService{Store: repo.NewRecordStore(db)}}))

	w := do(r, http.MethodGet, "/records/dealers?q=chennai", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d %s", w.Code, w.Body.String())
	}
	var out struct {
		Kind  string          `json:"kind"`
		Count int             `json:"count"`
		Items []domain.Dealer `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Kind != "dealer" || out.Count != 1 || out.Items[0].ID != "D001" {
		t.Fatalf("unexpected page %+v", out)
	}
}

// ---------- analytics ----------

type stubAnalytics struct {
	got services.Viewer
	err error
}

func (s *stubAnalytics) Summary(_ context.Context, v services.Viewer) (*services.Summary, error) {
	s.got = v
	if s.err != nil {
		return nil, s.err
	}
	return &services.Summary{Role: v.Role, Welcome: services.WelcomeLine(v)}, nil
}

func TestAnalyticsSummary(t *testing.T) {
	st := &stubAnalytics{}
	r := newRouter(New(Services{Analytics: st}))

	w := do(r, http.MethodGet, "/analytics/summary", "", map[string]string{
		"X-User-Role": "dealer", "X-Dealer-ID": "D001", "X-User-Name": "Raj",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("summary -> %d", w.Code)
	}
	if st.got != (services.Viewer{Name: "Raj", Role: domain.RoleDealer, DealerID: "D001"}) {
		t.Fatalf("viewer = %+v", st.got)
	}

	if w := do(r, http.MethodGet, "/analytics/summary", "", map[string]string{"X-User-Role": "dealer"}); w.Code != http.StatusBadRequest {
		t.Fatalf("dealer without id -> %d", w.Code)
	}
	st.got = services.Viewer{}
	w = do(r, http.MethodGet, "/analytics/summary", "", map[string]string{"X-User-Role": "sales_rep"})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "X-User-Region") || st.got.Role != "" {
		t.Fatalf("sales rep without region -> %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/analytics/summary", "", map[string]string{"X-User-Role": "sales_rep", "X-User-Region": "Pune"}); w.Code != http.StatusOK || st.got.Region != "Pune" {
		t.Fatalf("sales rep -> %d %+v", w.Code, st.got)
	}

	r500 := newRouter(New(Services{Analytics: &stubAnalytics{err: errors.New("x")}}))
	if w := do(r500, http.MethodGet, "/analytics/summary", "", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("500 -> %d", w.Code)
	}
}

// ---------- settings ----------

func TestModelKeySettings(t *testing.T) {
	db := newTestDB(t)
	creds := llm.NewCredentials("")
	r := newRouter(New(Services{Settings: &services.SettingsService{DB: db, Creds: creds}}))

	w := do(r, http.MethodGet, "/settings/model-key", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"configured":false`) {
		t.Fatalf("status -> %d %s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodPut, "/settings/model-key", `{"api_key":"   "}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("blank key -> %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/settings/model-key", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing key -> %d", w.Code)
	}

	w = do(r, http.MethodPut, "/settings/model-key", `{"api_key":"sk-test-abcd1234"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("put -> %d %s", w.Code, w.Body.String())
	}
	var st services.KeyStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !st.Configured || strings.Contains(st.Masked, "abcd1") || creds.Get() != "sk-test-abcd1234" {
		t.Fatalf("unexpected status %+v", st)
	}

	if w := do(r, http.MethodDelete, "/settings/model-key", "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete -> %d", w.Code)
	}
	if creds.Configured() {
		t.Fatalf("credential not cleared")
	}
}

// ---------- suggestions ----------

func TestSuggestions(t *testing.T) {
	r := newRouter(New(Services{Suggestions: search.NewIndex(search.CommonQueries)}))

	w := do(r, http.MethodGet, "/suggestions?q=pending+claims&k=2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("suggest -> %d", w.Code)
	}
	var out SuggestionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.Suggestions) == 0 || len(out.Suggestions) > 2 || out.Suggestions[0].Query != "Show pending claims for approval" {
		t.Fatalf("unexpected suggestions %+v", out.Suggestions)
	}

	w = do(r, http.MethodGet, "/suggestions?k=50", "", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if len(out.Suggestions) != maxSuggestions {
		t.Fatalf("blank query should list defaults, got %d", len(out.Suggestions))
	}

	w = do(r, http.MethodGet, "/suggestions?q=zzzz", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"suggestions":[]`) {
		t.Fatalf("no match -> %s", w.Body.String())
	}
}
