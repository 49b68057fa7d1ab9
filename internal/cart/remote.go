package cart

import (
	"context"
	"fmt"

	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
)

// transport is the slice of the REST client the remote cart needs.
type transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// RemoteClient talks to the server-side cart, which is authoritative
// whenever a session exists.
type RemoteClient struct {
	api transport
}

// NewRemoteClient builds the remote cart client.
func NewRemoteClient(api transport) (*RemoteClient, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	return &RemoteClient{api: api}, nil
}

type cartEnvelope struct {
	Success bool   `json:"success"`
	Cart    []Item `json:"cart"`
	Message string `json:"message,omitempty"`
}

// Fetch downloads the authoritative cart for the current session.
func (c *RemoteClient) Fetch(ctx context.Context) ([]Item, error) {
	var env cartEnvelope
	if err := c.api.Get(ctx, "/user/cart", &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, rejectionError(env.Message, "cart fetch rejected")
	}
	if env.Cart == nil {
		return []Item{}, nil
	}
	return env.Cart, nil
}

// Sync uploads the full local cart for the one-shot login merge. The
// server sums quantities on identity collisions and returns the merged
// result.
func (c *RemoteClient) Sync(ctx context.Context, localCart []Item) ([]Item, error) {
	body := map[string]any{"localCart": localCart}
	var env cartEnvelope
	if err := c.api.Post(ctx, "/user/cart/sync", body, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, rejectionError(env.Message, "cart sync rejected")
	}
	return env.Cart, nil
}

// Upsert sets the absolute state of a single line. Routine quantity
// edits go through here so repeated calls stay idempotent, unlike the
// summing sync endpoint.
func (c *RemoteClient) Upsert(ctx context.Context, line Item) error {
	body := map[string]any{"item": line}
	var env cartEnvelope
	if err := c.api.Post(ctx, "/user/cart/upsert", body, &env); err != nil {
		return err
	}
	if !env.Success {
		return rejectionError(env.Message, "cart upsert rejected")
	}
	return nil
}

// Remove deletes one line, keyed the way the backend identifies items.
func (c *RemoteClient) Remove(ctx context.Context, productID, variantID string) error {
	body := map[string]any{
		"productId": productID,
		"variantId": variantID,
	}
	var env cartEnvelope
	if err := c.api.Post(ctx, "/user/cart/remove", body, &env); err != nil {
		return err
	}
	if !env.Success {
		return rejectionError(env.Message, "cart remove rejected")
	}
	return nil
}

func rejectionError(message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return pkgerrors.New(pkgerrors.CodeDependency, message)
}
