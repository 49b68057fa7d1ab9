package cart

import (
	"context"
	"fmt"

	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/money"
)

// View is the cart presentation surface: it reads the reconciled cart,
// computes the subtotal, and routes the per-line controls through the
// reconciler's mutations.
type View struct {
	reconciler *Reconciler
}

// NewView builds a cart view over the reconciler.
func NewView(reconciler *Reconciler) (*View, error) {
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	return &View{reconciler: reconciler}, nil
}

// Lines returns the displayed cart.
func (v *View) Lines() []Item {
	return v.reconciler.Lines()
}

// Empty reports whether the cart has no lines.
func (v *View) Empty() bool {
	return len(v.reconciler.Lines()) == 0
}

// Subtotal is Σ price × qty over all lines, exact in paise. Shipping is
// free, so this is also the order total.
func (v *View) Subtotal() money.Paise {
	return Subtotal(v.reconciler.Lines())
}

// Increment raises a line's quantity by one, clamped to the line's
// stock cap. Hitting the cap is not an error; the quantity just stays.
func (v *View) Increment(ctx context.Context, key Key) error {
	line, ok := v.find(key)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}
	next := line.Qty + 1
	if next > line.StockCap() {
		return nil
	}
	return v.reconciler.SetQuantity(ctx, key, next)
}

// Decrement lowers a line's quantity by one, clamped at 1.
func (v *View) Decrement(ctx context.Context, key Key) error {
	line, ok := v.find(key)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}
	if line.Qty <= 1 {
		return nil
	}
	return v.reconciler.SetQuantity(ctx, key, line.Qty-1)
}

// Remove deletes a line.
func (v *View) Remove(ctx context.Context, key Key) error {
	return v.reconciler.Remove(ctx, key)
}

func (v *View) find(key Key) (Item, bool) {
	lines := v.reconciler.Lines()
	idx := findIndex(lines, key)
	if idx < 0 {
		return Item{}, false
	}
	return lines[idx], true
}
