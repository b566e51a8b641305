package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIdentity_ReadsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())

	var got Caller
	var uid any
	r.GET("/me", func(c *gin.Context) {
		got = CallerFrom(c)
		uid, _ = c.Get("userID")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, " u-1 ")
	req.Header.Set(HeaderUserName, "Raj")
	req.Header.Set(HeaderUserRole, " Sales_Rep ")
	req.Header.Set(HeaderDealerID, "D001")
	req.Header.Set(HeaderRegion, "Chennai")
	r.ServeHTTP(httptest.NewRecorder(), req)

	want := Caller{UserID: "u-1", Name: "Raj", Role: "sales_rep", DealerID: "D001", Region: "Chennai"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if uid != "u-1" {
		t.Fatalf("userID context key = %v", uid)
	}
}

func TestIdentity_DefaultsAndFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	var got Caller
	r.GET("/me", func(c *gin.Context) {
		got = CallerFrom(c)
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))
	if got.UserID != DefaultUserID || got.Role != "" {
		t.Fatalf("unexpected defaults %+v", got)
	}

	// Without the middleware the headers are read directly.
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set(HeaderUserRole, "ADMIN")
	if who := CallerFrom(c); who.UserID != DefaultUserID || who.Role != "admin" {
		t.Fatalf("fallback = %+v", who)
	}

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	if who := CallerFrom(c2); who.UserID != DefaultUserID {
		t.Fatalf("nil request fallback = %+v", who)
	}
}

func TestIdentity_UnknownRolePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	var got Caller
	r.GET("/me", func(c *gin.Context) {
		got = CallerFrom(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserRole, " SuperUser ")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if got.Role != "superuser" {
		t.Fatalf("role = %q, want lower-cased passthrough", got.Role)
	}
}
