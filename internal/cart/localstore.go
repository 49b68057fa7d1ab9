package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nawaweeb/storefront/pkg/kvstore"
)

// LocalStore persists the guest cart as a JSON array under the fixed
// cart key. A missing or unparsable value reads as an empty cart.
type LocalStore struct {
	kv kvstore.Store
}

// NewLocalStore wraps the given key-value store.
func NewLocalStore(kv kvstore.Store) (*LocalStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store is required")
	}
	return &LocalStore{kv: kv}, nil
}

// Load reads the persisted cart.
func (s *LocalStore) Load(ctx context.Context) ([]Item, error) {
	raw, err := s.kv.Get(ctx, kvstore.KeyCart)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading local cart: %w", err)
	}
	var lines []Item
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return []Item{}, nil
	}
	return lines, nil
}

// Save replaces the persisted cart with lines.
func (s *LocalStore) Save(ctx context.Context, lines []Item) error {
	if lines == nil {
		lines = []Item{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encoding local cart: %w", err)
	}
	if err := s.kv.Set(ctx, kvstore.KeyCart, string(raw)); err != nil {
		return fmt.Errorf("writing local cart: %w", err)
	}
	return nil
}

// Clear removes the persisted cart entirely.
func (s *LocalStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, kvstore.KeyCart); err != nil {
		return fmt.Errorf("clearing local cart: %w", err)
	}
	return nil
}
