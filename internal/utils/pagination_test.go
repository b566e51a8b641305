package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s         string
		def, want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Errorf("AtoiDefault(%q, %d) = %d, want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct{ page, size, wantPage, wantSize int }{
		{1, 20, 1, 20},
		{0, 0, 1, DefaultPageSize},
		{-3, 500, 1, MaxPageSize},
		{7, 100, 7, 100},
		{2, 1, 2, 1},
	}
	for _, tc := range cases {
		if p, s := ClampPage(tc.page, tc.size); p != tc.wantPage || s != tc.wantSize {
			t.Errorf("ClampPage(%d, %d) = (%d, %d), want (%d, %d)", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
}

func TestOffsetAndTotalPages(t *testing.T) {
	if got := Offset(3, 25); got != 50 {
		t.Fatalf("Offset(3, 25) = %d", got)
	}
	if got := Offset(0, 0); got != 0 {
		t.Fatalf("Offset(0, 0) = %d", got)
	}
	for _, tc := range []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{1000, 0, 50},
		{1000, 1000, 10},
	} {
		if got := TotalPages(tc.total, tc.size); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.size, got, tc.want)
		}
	}
}
