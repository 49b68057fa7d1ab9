package catalog

import (
	"context"
	"fmt"

	"github.com/nawaweeb/storefront/internal/cart"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
	"github.com/nawaweeb/storefront/pkg/money"
)

// Variant is one purchasable size of a product.
type Variant struct {
	ID            string      `json:"id"`
	Size          string      `json:"size"`
	Price         money.Paise `json:"price"`
	StockQuantity int         `json:"stock_quantity"`
}

// Product mirrors the backend catalog record. Price fields are paise.
type Product struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Price            money.Paise `json:"price"`
	Images           []string    `json:"images"`
	Collection       string      `json:"collection"`
	IsActive         bool        `json:"is_active"`
	IsLimitedEdition bool        `json:"is_limited_edition"`
	Variants         []Variant   `json:"product_variants"`
}

// DefaultVariant picks the first variant with stock, falling back to the
// first listed one so sold-out products still render a selection.
func (p Product) DefaultVariant() (Variant, bool) {
	if len(p.Variants) == 0 {
		return Variant{}, false
	}
	for _, v := range p.Variants {
		if v.StockQuantity > 0 {
			return v, true
		}
	}
	return p.Variants[0], true
}

// TotalStock sums stock across every variant.
func (p Product) TotalStock() int {
	total := 0
	for _, v := range p.Variants {
		total += v.StockQuantity
	}
	return total
}

type transport interface {
	Get(ctx context.Context, path string, out any) error
}

// Service reads the product catalog and snapshots lines for the cart.
type Service interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, productID string) (*Product, error)
}

type service struct {
	api  transport
	logg *logger.Logger
}

// NewService builds a catalog client on the shared API transport.
func NewService(api transport, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("catalog service requires an api client")
	}
	if logg == nil {
		return nil, fmt.Errorf("catalog service requires a logger")
	}
	return &service{api: api, logg: logg}, nil
}

type listEnvelope struct {
	Data struct {
		Products []Product `json:"products"`
	} `json:"data"`
}

type detailEnvelope struct {
	Data struct {
		Product *Product `json:"product"`
	} `json:"data"`
}

// List returns active products only. Inactive records stay server-side
// concerns and are dropped here.
func (s *service) List(ctx context.Context) ([]Product, error) {
	var env listEnvelope
	if err := s.api.Get(ctx, "/products", &env); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(env.Data.Products))
	for _, p := range env.Data.Products {
		if !p.IsActive {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, productID string) (*Product, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var env detailEnvelope
	if err := s.api.Get(ctx, "/products/"+productID, &env); err != nil {
		return nil, err
	}
	if env.Data.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return env.Data.Product, nil
}

// LinePrice resolves the unit price for a selection. Handmade pieces carry
// a 1.5x markup over the variant (or product) base price.
func LinePrice(p Product, variant *Variant, handmade bool) money.Paise {
	base := p.Price
	if variant != nil && variant.Price > 0 {
		base = variant.Price
	}
	if handmade {
		return money.HandmadeMarkup(base)
	}
	return base
}

// BuildLine snapshots a selection into a cart line. Title, image, size and
// price are frozen at add-time so later catalog edits do not rewrite carts.
func BuildLine(p Product, variant *Variant, qty int, handmade bool) (cart.Item, error) {
	if qty < 1 {
		return cart.Item{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	line := cart.Item{
		ProductID:  p.ID,
		Title:      p.Title,
		Price:      LinePrice(p, variant, handmade),
		Qty:        qty,
		IsHandmade: handmade,
	}
	if len(p.Images) > 0 {
		line.Image = p.Images[0]
	}
	if variant != nil {
		line.VariantID = variant.ID
		line.Size = variant.Size
		line.MaxStock = variant.StockQuantity
	}
	return line, nil
}
