package filters

import (
	"context"
	"reflect"
	"testing"

	"github.com/goliatone/go-filters/pkg/state"
)

func TestRegistryStoresAreIsolated(t *testing.T) {
	kv := state.NewMemoryStore()
	registry := NewRegistry(WithStorage(kv))

	listing := registry.Store("listing")
	if registry.Store("listing") != listing {
		t.Fatalf("expected the same store for the same id")
	}
	if registry.Store("") != registry.Store(DefaultStoreID) {
		t.Fatalf("empty id must select the default store")
	}

	search := registry.Store("search")
	listing.Initialize(catalogFields())
	search.Initialize(catalogFields())
	listing.SetValue("search", Text("shoes"))
	if _, ok := search.Value("search"); ok {
		t.Fatalf("stores must not share values")
	}

	ctx := context.Background()
	listing.Persist(ctx)
	search.Persist(ctx)
	want := []string{"filter-store-listing", "filter-store-search"}
	if got := kv.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	registry := NewRegistry()
	if _, ok := registry.Lookup("a"); ok {
		t.Fatalf("lookup must not create stores")
	}
	first := registry.Store("b")
	registry.Store("a")
	if got := registry.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected sorted ids, got %v", got)
	}

	registry.Dispose("b")
	if _, ok := registry.Lookup("b"); ok {
		t.Fatalf("disposed store still registered")
	}
	if registry.Store("b") == first {
		t.Fatalf("expected a fresh store after dispose")
	}

	registry.Reset()
	if len(registry.IDs()) != 0 {
		t.Fatalf("expected no stores after reset")
	}
}
