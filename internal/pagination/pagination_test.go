package pagination

import "testing"

func TestPageRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var p PageRequest
		p.Defaults()
		if p.Page != 1 || p.PageSize != 20 {
			t.Errorf("expected page 1 size 20, got %d/%d", p.Page, p.PageSize)
		}
		if p.Offset() != 0 {
			t.Errorf("expected offset 0, got %d", p.Offset())
		}
	})

	t.Run("page_offset", func(t *testing.T) {
		p := PageRequest{Page: 3, PageSize: 10}
		if p.Offset() != 20 {
			t.Errorf("expected offset 20, got %d", p.Offset())
		}
	})

	t.Run("explicit_offset_wins", func(t *testing.T) {
		off := 7
		p := PageRequest{Page: 3, PageSize: 10, StartOffset: &off}
		if p.Offset() != 7 {
			t.Errorf("expected offset 7, got %d", p.Offset())
		}
	})
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[int](nil, 2, 10, 25)
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", resp.TotalPages)
	}
	if resp.Data == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestSortRequest_OrderClause(t *testing.T) {
	allowed := []string{"date", "amount", "description"}

	tests := []struct {
		name    string
		req     SortRequest
		want    string
		wantErr bool
	}{
		{"defaults", SortRequest{}, "date DESC", false},
		{"explicit", SortRequest{SortBy: "amount", SortOrder: "asc"}, "amount ASC", false},
		{"field_only", SortRequest{SortBy: "description"}, "description DESC", false},
		{"injection_rejected", SortRequest{SortBy: "date; DROP TABLE accounts"}, "", true},
		{"unknown_field", SortRequest{SortBy: "account_id"}, "", true},
		{"bad_order", SortRequest{SortBy: "date", SortOrder: "sideways"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.OrderClause(allowed, "date", "desc")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
