package pagination

import "testing"

func TestValidateClampsParams(t *testing.T) {
	p := &PaginationParams{Page: 0, PerPage: 500}
	p.Validate()
	if p.Page != 1 || p.PerPage != 100 {
		t.Errorf("expected page 1 per_page 100, got %d %d", p.Page, p.PerPage)
	}
	if p.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset())
	}

	p = &PaginationParams{Page: 3, PerPage: 20}
	if p.Offset() != 40 {
		t.Errorf("expected offset 40, got %d", p.Offset())
	}
}

func TestNewPagination(t *testing.T) {
	pg := NewPagination(2, 15, 31)
	if pg.TotalPages != 3 || !pg.HasNext || !pg.HasPrev {
		t.Errorf("unexpected pagination %+v", pg)
	}

	pg = NewPagination(1, 15, 0)
	if pg.TotalPages != 0 || pg.HasNext || pg.HasPrev {
		t.Errorf("unexpected empty pagination %+v", pg)
	}
}

func TestNewPaginationGuardsZeroPerPage(t *testing.T) {
	pg := NewPagination(0, 0, 20)
	if pg.PerPage != DefaultPerPage || pg.CurrentPage != 1 || pg.TotalPages != 2 {
		t.Errorf("unexpected pagination %+v", pg)
	}
}

func TestNewPaginatedResultEmptyItems(t *testing.T) {
	res := NewPaginatedResult[int](nil, NewPagination(1, 15, 0))
	if res.Items == nil || len(res.Items) != 0 {
		t.Errorf("expected empty non-nil items, got %#v", res.Items)
	}
}
