// Package kvstore is the client-side persistent key-value store: the
// staging area for the guest cart and the session token. Values are
// opaque strings keyed by well-known names; a missing key is reported
// with ErrNotFound rather than an empty value so callers can tell
// "absent" from "empty".
package kvstore

import (
	"context"
	"errors"
)

// Well-known storage keys. These match what the storefront has always
// persisted, so an existing state file keeps working.
const (
	KeyCart  = "cart"
	KeyToken = "token"
	KeyRole  = "role"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("kvstore: key not found")

// Store persists string values under fixed keys. Writes are whole-value
// replacement; the last writer wins.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
