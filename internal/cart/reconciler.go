package cart

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/nawaweeb/storefront/internal/session"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
	"github.com/nawaweeb/storefront/pkg/metrics"
)

type remoteCart interface {
	Fetch(ctx context.Context) ([]Item, error)
	Sync(ctx context.Context, localCart []Item) ([]Item, error)
	Upsert(ctx context.Context, line Item) error
	Remove(ctx context.Context, productID, variantID string) error
}

type sessionSource interface {
	Current(ctx context.Context) session.Session
}

// Reconciler keeps the in-memory cart, the local persistence, and the
// server cart consistent. Exactly one side is authoritative at any
// instant: the server whenever a session exists, local storage
// otherwise.
//
// Mutations are optimistic: the in-memory list changes first, then the
// matching remote operation runs. Every mutation captures a rollback
// snapshot up front; a remote failure restores it, so the user never
// keeps an edit the server rejected.
type Reconciler struct {
	mu      sync.Mutex
	lines   []Item
	version uint64

	local    *LocalStore
	remote   remoteCart
	sessions sessionSource
	logg     *logger.Logger
	metrics  *metrics.CartMetrics
}

// NewReconciler wires the reconciler. metrics may be nil.
func NewReconciler(local *LocalStore, remote remoteCart, sessions sessionSource, logg *logger.Logger, m *metrics.CartMetrics) (*Reconciler, error) {
	if local == nil {
		return nil, fmt.Errorf("local store is required")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote cart client is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Reconciler{
		local:    local,
		remote:   remote,
		sessions: sessions,
		logg:     logg,
		metrics:  m,
	}, nil
}

// Load populates the in-memory cart. Authenticated sessions read the
// server cart and fall back to local persistence when the fetch fails
// (stale-but-available beats blocking the view); guests read local
// persistence directly.
func (r *Reconciler) Load(ctx context.Context) error {
	authed := r.sessions.Current(ctx).Authenticated()

	if authed {
		stamp := r.snapshotVersion()
		fetched, err := r.remote.Fetch(ctx)
		if err == nil {
			if !r.applyIfCurrent(stamp, fetched) {
				r.logg.Info(ctx, "discarding cart fetch that lost a race with a local edit")
			}
			return nil
		}
		r.logg.Warn(ctx, "server cart unavailable, showing local copy")
	}

	lines, err := r.local.Load(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.lines = lines
	r.version++
	r.mu.Unlock()
	return nil
}

// Lines returns a copy of the current cart.
func (r *Reconciler) Lines() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneLines(r.lines)
}

// Add folds a new line into the cart: same identity sums quantities,
// otherwise the line is appended. Authenticated carts push the absolute
// line state to the server; guests write through to local persistence.
func (r *Reconciler) Add(ctx context.Context, line Item) error {
	if line.ProductID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if line.Qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cmd := r.begin("add")
	r.mu.Lock()
	r.lines = MergeLine(r.lines, line)
	r.version++
	applied := r.lines[findIndex(r.lines, line.Key())]
	r.mu.Unlock()

	return r.commit(ctx, cmd, func(ctx context.Context) error {
		return r.remote.Upsert(ctx, applied)
	})
}

// SetQuantity changes one line to an absolute quantity.
func (r *Reconciler) SetQuantity(ctx context.Context, key Key, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cmd := r.begin("set_quantity")
	r.mu.Lock()
	idx := findIndex(r.lines, key)
	if idx < 0 {
		r.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}
	r.lines[idx].Qty = qty
	r.version++
	applied := r.lines[idx]
	r.mu.Unlock()

	return r.commit(ctx, cmd, func(ctx context.Context) error {
		return r.remote.Upsert(ctx, applied)
	})
}

// Remove deletes one line from the cart.
func (r *Reconciler) Remove(ctx context.Context, key Key) error {
	cmd := r.begin("remove")
	r.mu.Lock()
	idx := findIndex(r.lines, key)
	if idx < 0 {
		r.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}
	r.lines = append(r.lines[:idx:idx], r.lines[idx+1:]...)
	r.version++
	r.mu.Unlock()

	return r.commit(ctx, cmd, func(ctx context.Context) error {
		return r.remote.Remove(ctx, key.ProductID, key.VariantID)
	})
}

// SyncOnLogin runs the one-shot local-to-remote merge after a session
// is established: upload the guest cart if it has anything in it, then
// always download the merged result and overwrite local persistence
// with it. It must never block the login transition, so every failure
// is logged and swallowed.
func (r *Reconciler) SyncOnLogin(ctx context.Context) {
	var errs error

	localLines, err := r.local.Load(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
		localLines = nil
	}

	stamp := r.snapshotVersion()

	if len(localLines) > 0 {
		if _, err := r.remote.Sync(ctx, localLines); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	merged, err := r.remote.Fetch(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		if !r.applyIfCurrent(stamp, merged) {
			r.logg.Info(ctx, "login sync superseded by a newer cart edit")
		} else if err := r.local.Save(ctx, merged); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		r.logg.Error(ctx, "cart sync on login failed", errs)
	}
}

// Clear empties the in-memory cart and local persistence. Called once,
// after payment verification succeeds; the server clears its own copy
// when it converts the cart into an order.
func (r *Reconciler) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.lines = nil
	r.version++
	r.mu.Unlock()
	return r.local.Clear(ctx)
}

// mutation is the rollback descriptor captured before an optimistic
// change is applied.
type mutation struct {
	op       string
	snapshot []Item
}

func (r *Reconciler) begin(op string) mutation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return mutation{op: op, snapshot: cloneLines(r.lines)}
}

// commit finishes an optimistic mutation: authenticated carts run the
// remote operation and roll back on failure, guest carts persist
// locally.
func (r *Reconciler) commit(ctx context.Context, cmd mutation, remoteOp func(context.Context) error) error {
	if r.sessions.Current(ctx).Authenticated() {
		if err := remoteOp(ctx); err != nil {
			r.rollback(cmd)
			r.metrics.IncMutation(cmd.op, "failed")
			r.logg.Error(ctx, "remote cart mutation failed, rolled back", err)
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart update was not saved")
		}
		r.metrics.IncMutation(cmd.op, "ok")
		return nil
	}

	if err := r.local.Save(ctx, r.Lines()); err != nil {
		r.rollback(cmd)
		r.metrics.IncMutation(cmd.op, "failed")
		return err
	}
	r.metrics.IncMutation(cmd.op, "ok")
	return nil
}

func (r *Reconciler) rollback(cmd mutation) {
	r.mu.Lock()
	r.lines = cmd.snapshot
	r.version++
	r.mu.Unlock()
	r.metrics.IncRollback(cmd.op)
}

func (r *Reconciler) snapshotVersion() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// applyIfCurrent installs a downloaded cart only when no local edit
// happened since the request was issued; a stale download is discarded
// so it cannot overwrite the newer state.
func (r *Reconciler) applyIfCurrent(stamp uint64, lines []Item) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version != stamp {
		return false
	}
	r.lines = lines
	r.version++
	return true
}
