package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	filters "github.com/goliatone/go-filters"
)

func TestPaginate(t *testing.T) {
	items := DemoCatalog(30)("brand")

	cases := []struct {
		name       string
		search     string
		page       int
		wantPage   int
		wantPages  int
		wantTotal  int
		wantFirst  string
		wantLength int
	}{
		{name: "first page", page: 1, wantPage: 1, wantPages: 5, wantTotal: 30, wantFirst: "brand-opt-1", wantLength: 6},
		{name: "last page", page: 5, wantPage: 5, wantPages: 5, wantTotal: 30, wantFirst: "brand-opt-25", wantLength: 6},
		{name: "clamps high", page: 9, wantPage: 5, wantPages: 5, wantTotal: 30, wantFirst: "brand-opt-25", wantLength: 6},
		{name: "clamps low", page: 0, wantPage: 1, wantPages: 5, wantTotal: 30, wantFirst: "brand-opt-1", wantLength: 6},
		{name: "case insensitive search", search: "  OPTION 1", page: 1, wantPage: 1, wantPages: 2, wantTotal: 11, wantFirst: "brand-opt-1", wantLength: 6},
		{name: "no match", search: "zzz", page: 3, wantPage: 1, wantPages: 1, wantTotal: 0, wantLength: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Paginate(items, tc.search, tc.page, 0)
			if got.Page != tc.wantPage || got.TotalPages != tc.wantPages || got.TotalItems != tc.wantTotal {
				t.Fatalf("unexpected page metadata %+v", got)
			}
			if len(got.Items) != tc.wantLength {
				t.Fatalf("expected %d items, got %d", tc.wantLength, len(got.Items))
			}
			if tc.wantLength > 0 && got.Items[0].Value != tc.wantFirst {
				t.Fatalf("expected first item %q, got %q", tc.wantFirst, got.Items[0].Value)
			}
		})
	}
}

func TestPageHasMore(t *testing.T) {
	if !(Page{Page: 1, TotalPages: 2}).HasMore() {
		t.Fatalf("expected more pages")
	}
	if (Page{Page: 2, TotalPages: 2}).HasMore() {
		t.Fatalf("expected last page")
	}
}

func TestStaticProviderSources(t *testing.T) {
	fields := []filters.FieldDefinition{
		{Name: "brand", Kind: filters.KindOptions, StaticOptions: []filters.StaticOption{
			{Label: "Acme", Value: "acme"},
			{Label: "Globex", Value: "globex"},
		}},
		{Name: "q", Kind: filters.KindText, StaticOptions: []filters.StaticOption{{Label: "x", Value: "x"}}},
	}
	provider := NewStaticProvider(
		WithFieldOptions(fields...),
		WithItems("colour", Item{Label: "Red", Value: "red"}),
		WithFallback(DemoCatalog(3)),
		WithPageSize(2),
	)

	if got := provider.Fields(); len(got) != 2 || got[0] != "brand" || got[1] != "colour" {
		t.Fatalf("unexpected fields %v", got)
	}

	page, err := provider.FetchOptions(context.Background(), "brand", "glo", 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.TotalItems != 1 || page.Items[0].Value != "globex" {
		t.Fatalf("unexpected brand page %+v", page)
	}

	page, err = provider.FetchOptions(context.Background(), "size", "", 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.TotalItems != 3 || page.TotalPages != 2 || len(page.Items) != 1 || page.Items[0].Value != "size-opt-3" {
		t.Fatalf("unexpected fallback page %+v", page)
	}

	provider.SetItems("colour", nil)
	page, _ = provider.FetchOptions(context.Background(), "colour", "", 1)
	if page.TotalItems != 0 || page.TotalPages != 1 {
		t.Fatalf("expected empty colour page, got %+v", page)
	}
}

func TestStaticProviderLatencyHonoursCancel(t *testing.T) {
	provider := NewStaticProvider(WithLatency(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := provider.FetchOptions(ctx, "brand", "", 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProviderFuncNil(t *testing.T) {
	var fn ProviderFunc
	if _, err := fn.FetchOptions(context.Background(), "brand", "", 1); err == nil {
		t.Fatalf("expected error from nil provider func")
	}
}
