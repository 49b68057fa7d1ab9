package catalog

import (
	"context"
	"fmt"

	"github.com/nawaweeb/storefront/internal/session"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
	"github.com/nawaweeb/storefront/pkg/money"
)

// VariantInput is one size row of a product draft.
type VariantInput struct {
	ID            string      `json:"id,omitempty"`
	Size          string      `json:"size"`
	Price         money.Paise `json:"price"`
	StockQuantity int         `json:"stock_quantity"`
}

// ProductInput is the create/update payload for a catalog record. Images are
// URLs the caller already hosts; this client does not upload binaries.
type ProductInput struct {
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Price            money.Paise    `json:"price"`
	Images           []string       `json:"images"`
	Collection       string         `json:"collection"`
	IsActive         bool           `json:"is_active"`
	IsLimitedEdition bool           `json:"is_limited_edition"`
	Variants         []VariantInput `json:"product_variants"`
}

func (in ProductInput) validate() error {
	if in.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if in.Price <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	for i, v := range in.Variants {
		if v.Size == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant size is required").WithDetails(map[string]int{"index": i})
		}
		if v.Price < 0 || v.StockQuantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant price and stock must not be negative").WithDetails(map[string]int{"index": i})
		}
	}
	return nil
}

type adminTransport interface {
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type adminSessionSource interface {
	Current(ctx context.Context) session.Session
}

// Admin manages the catalog: create, update, delete. Every call is
// role-guarded; the backend enforces the same rule, this just fails fast.
type Admin interface {
	Create(ctx context.Context, input ProductInput) (*Product, error)
	Update(ctx context.Context, productID string, input ProductInput) (*Product, error)
	Delete(ctx context.Context, productID string) error
}

type admin struct {
	api      adminTransport
	sessions adminSessionSource
	logg     *logger.Logger
}

func NewAdmin(api adminTransport, sessions adminSessionSource, logg *logger.Logger) (Admin, error) {
	if api == nil {
		return nil, fmt.Errorf("catalog admin requires an api client")
	}
	if sessions == nil {
		return nil, fmt.Errorf("catalog admin requires a session manager")
	}
	if logg == nil {
		return nil, fmt.Errorf("catalog admin requires a logger")
	}
	return &admin{api: api, sessions: sessions, logg: logg}, nil
}

func (a *admin) Create(ctx context.Context, input ProductInput) (*Product, error) {
	if err := a.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	var env detailEnvelope
	if err := a.api.Post(ctx, "/products/add", input, &env); err != nil {
		return nil, err
	}
	if env.Data.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "created product missing from response")
	}
	a.logg.Info(a.logg.WithField(ctx, "product_id", env.Data.Product.ID), "product created")
	return env.Data.Product, nil
}

func (a *admin) Update(ctx context.Context, productID string, input ProductInput) (*Product, error) {
	if err := a.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	var env detailEnvelope
	if err := a.api.Patch(ctx, "/products/"+productID, input, &env); err != nil {
		return nil, err
	}
	if env.Data.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "updated product missing from response")
	}
	return env.Data.Product, nil
}

func (a *admin) Delete(ctx context.Context, productID string) error {
	if err := a.requireAdmin(ctx); err != nil {
		return err
	}
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := a.api.Delete(ctx, "/products/"+productID, nil); err != nil {
		return err
	}
	a.logg.Info(a.logg.WithField(ctx, "product_id", productID), "product deleted")
	return nil
}

func (a *admin) requireAdmin(ctx context.Context) error {
	current := a.sessions.Current(ctx)
	if !current.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	if !current.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}
