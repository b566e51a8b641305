package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func Test_metricRole(t *testing.T) {
	for in, want := range map[string]string{
		"dealer": "dealer", "sales_rep": "sales_rep", "admin": "admin",
		"": "none", "root": "other", "Dealer": "other",
	} {
		if got := metricRole(in); got != want {
			t.Errorf("metricRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetrics_CountsByRouteAndRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(), Metrics())
	r.GET("/records/:kind", func(c *gin.Context) { c.String(http.StatusOK, "rows") })

	okLabels := []string{"GET", "/records/:kind", "200", "dealer"}
	missLabels := []string{"GET", "unmatched", "404", "none"}
	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues(okLabels...))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues(missLabels...))

	req := httptest.NewRequest(http.MethodGet, "/records/skus", nil)
	req.Header.Set(HeaderUserRole, "dealer")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/no/such/route/123", nil))

	if got := testutil.ToFloat64(httpReqs.WithLabelValues(okLabels...)); got != baseOK+1 {
		t.Fatalf("route counter = %v, want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues(missLabels...)); got != baseMiss+1 {
		t.Fatalf("unmatched counter = %v, want %v", got, baseMiss+1)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight = %v", got)
	}
}
