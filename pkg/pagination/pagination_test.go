package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFromContext_Defaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Page != 1 {
		t.Errorf("expected default page 1, got %d", p.Page)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=50&page=3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Page != 3 {
		t.Errorf("expected page 3, got %d", p.Page)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativePage(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=-5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Page != 1 {
		t.Errorf("expected page 1 for negative input, got %d", p.Page)
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   int
	}{
		{"first page", Params{Page: 1, Limit: 20}, 0},
		{"second page", Params{Page: 2, Limit: 20}, 20},
		{"deep page", Params{Page: 5, Limit: 30}, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Offset(); got != tt.want {
				t.Errorf("Offset() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSQL(t *testing.T) {
	p := Params{Page: 3, Limit: 20}
	expected := "LIMIT 20 OFFSET 40"
	if p.SQL() != expected {
		t.Errorf("expected %q, got %q", expected, p.SQL())
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		total int
		want  int
	}{
		{"exact multiple", 10, 30, 3},
		{"partial last page", 10, 25, 3},
		{"single item", 10, 1, 1},
		{"empty", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params{Page: 1, Limit: tt.limit}
			if got := p.TotalPages(tt.total); got != tt.want {
				t.Errorf("TotalPages(%d) = %d, want %d", tt.total, got, tt.want)
			}
		})
	}
}

func TestNewResponse_Meta(t *testing.T) {
	data := []string{"a", "b", "c"}
	r := NewResponse(data, 25, Params{Page: 2, Limit: 10})

	if r.Meta.TotalItems != 25 {
		t.Errorf("expected total_items 25, got %d", r.Meta.TotalItems)
	}
	if r.Meta.TotalPages != 3 {
		t.Errorf("expected total_pages 3, got %d", r.Meta.TotalPages)
	}
	if !r.Meta.HasNext {
		t.Error("expected has_next on page 2 of 3")
	}
	if !r.Meta.HasPrev {
		t.Error("expected has_prev on page 2")
	}
}

func TestNewResponse_Boundaries(t *testing.T) {
	first := NewResponse(nil, 25, Params{Page: 1, Limit: 10})
	if first.Meta.HasPrev {
		t.Error("did not expect has_prev on first page")
	}
	if !first.Meta.HasNext {
		t.Error("expected has_next on first page of 3")
	}

	last := NewResponse(nil, 25, Params{Page: 3, Limit: 10})
	if last.Meta.HasNext {
		t.Error("did not expect has_next on last page")
	}
	if !last.Meta.HasPrev {
		t.Error("expected has_prev on last page")
	}

	empty := NewResponse(nil, 0, Params{Page: 1, Limit: 10})
	if empty.Meta.HasNext || empty.Meta.HasPrev {
		t.Error("did not expect navigation flags for empty result")
	}
	if empty.Meta.TotalPages != 0 {
		t.Errorf("expected 0 total_pages for empty result, got %d", empty.Meta.TotalPages)
	}
}
