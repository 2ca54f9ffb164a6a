package pagination

import "testing"

func TestNormalizeDefaults(t *testing.T) {
	got := Params{}.Normalize(0)
	if got.Page != DefaultPage || got.PageSize != DefaultPageSize {
		t.Fatalf("unexpected defaults %+v", got)
	}
}

func TestNormalizeClampsPageSize(t *testing.T) {
	got := Params{Page: 3, PageSize: 1000}.Normalize(50)
	if got.PageSize != 50 {
		t.Fatalf("expected page size 50, got %d", got.PageSize)
	}
	if got.Page != 3 {
		t.Fatalf("expected page 3, got %d", got.Page)
	}
	if got := (Params{PageSize: 1000}).Normalize(0); got.PageSize != MaxPageSize {
		t.Fatalf("expected fallback cap %d, got %d", MaxPageSize, got.PageSize)
	}
}

func TestOffset(t *testing.T) {
	cases := []struct {
		params Params
		want   int
	}{
		{Params{Page: 1, PageSize: 20}, 0},
		{Params{Page: 2, PageSize: 20}, 20},
		{Params{Page: 5, PageSize: 7}, 28},
	}
	for _, tc := range cases {
		if got := tc.params.Offset(); got != tc.want {
			t.Fatalf("offset for %+v: expected %d got %d", tc.params, tc.want, got)
		}
	}
}

func TestTotalPages(t *testing.T) {
	if got := TotalPages(45, 20); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := TotalPages(40, 20); got != 2 {
		t.Fatalf("expected 2 pages, got %d", got)
	}
	if got := TotalPages(0, 20); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
}
