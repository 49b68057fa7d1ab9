package cart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nawaweeb/storefront/pkg/kvstore"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	kv, err := kvstore.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	store, err := NewLocalStore(kv)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return store
}

func TestLocalStoreMissingReadsEmpty(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)
	lines, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestLocalStore(t)
	ctx := context.Background()

	want := []Item{{ProductID: "p1", VariantID: "v1", Title: "Oni Tee", Price: 1000, Qty: 2}}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("unexpected cart: %+v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load after clear: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected cleared cart, got %+v", got)
	}
}

func TestLocalStoreUnparsableReadsEmpty(t *testing.T) {
	t.Parallel()

	kv, err := kvstore.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := kv.Set(context.Background(), kvstore.KeyCart, "{broken"); err != nil {
		t.Fatalf("seed bad value: %v", err)
	}

	store, err := NewLocalStore(kv)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	lines, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("unparsable cart should read empty, got %+v", lines)
	}
}
