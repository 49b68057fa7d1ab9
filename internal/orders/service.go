package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/nawaweeb/storefront/internal/cart"
	"github.com/nawaweeb/storefront/internal/session"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
	"github.com/nawaweeb/storefront/pkg/money"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]struct{}{
	StatusPending:   {},
	StatusShipped:   {},
	StatusDelivered: {},
	StatusCancelled: {},
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// LineProduct is the catalog snapshot nested inside an order line.
type LineProduct struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Images []string    `json:"images"`
	Price  money.Paise `json:"price"`
}

// LineVariant carries the purchased variant, with its parent product when
// the backend joined it through the variant rather than directly.
type LineVariant struct {
	Size    string       `json:"size"`
	Price   money.Paise  `json:"price"`
	Product *LineProduct `json:"products"`
}

type Line struct {
	VariantID       string       `json:"variant_id"`
	Quantity        int          `json:"quantity"`
	PriceAtPurchase money.Paise  `json:"price_at_purchase"`
	Variant         *LineVariant `json:"product_variants"`
	Product         *LineProduct `json:"products"`
}

// product resolves the catalog snapshot regardless of which join shape the
// backend used for this line.
func (l Line) product() *LineProduct {
	if l.Variant != nil && l.Variant.Product != nil {
		return l.Variant.Product
	}
	return l.Product
}

type Order struct {
	ID            string        `json:"id"`
	CreatedAt     time.Time     `json:"created_at"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalAmount   money.Paise   `json:"total_amount"`
	City          string        `json:"city"`
	Lines         []Line        `json:"order_items"`
}

type transport interface {
	Get(ctx context.Context, path string, out any) error
	Patch(ctx context.Context, path string, body, out any) error
}

type cartSink interface {
	Add(ctx context.Context, line cart.Item) error
}

type sessionSource interface {
	Current(ctx context.Context) session.Session
}

// Service exposes the buyer's order history plus the admin order inbox.
type Service interface {
	History(ctx context.Context) ([]Order, error)
	Reorder(ctx context.Context, line Line) error
	All(ctx context.Context) ([]Order, error)
	SetStatus(ctx context.Context, orderID string, status Status) error
}

type service struct {
	api      transport
	basket   cartSink
	sessions sessionSource
	logg     *logger.Logger
}

func NewService(api transport, basket cartSink, sessions sessionSource, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("orders service requires an api client")
	}
	if basket == nil {
		return nil, fmt.Errorf("orders service requires cart access")
	}
	if sessions == nil {
		return nil, fmt.Errorf("orders service requires a session manager")
	}
	if logg == nil {
		return nil, fmt.Errorf("orders service requires a logger")
	}
	return &service{api: api, basket: basket, sessions: sessions, logg: logg}, nil
}

type ordersEnvelope struct {
	Orders []Order `json:"orders"`
}

func (s *service) History(ctx context.Context) ([]Order, error) {
	if !s.sessions.Current(ctx).Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to see your orders")
	}
	var env ordersEnvelope
	if err := s.api.Get(ctx, "/orders", &env); err != nil {
		return nil, err
	}
	return env.Orders, nil
}

// Reorder folds one unit of a past purchase back into the cart. Quantity
// resets to 1 and the handmade tier is not carried over.
func (s *service) Reorder(ctx context.Context, line Line) error {
	product := line.product()
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order line has no product snapshot")
	}
	item := cart.Item{
		ProductID: product.ID,
		VariantID: line.VariantID,
		Title:     product.Title,
		Size:      "One Size",
		Price:     product.Price,
		Qty:       1,
	}
	if len(product.Images) > 0 {
		item.Image = product.Images[0]
	}
	if line.Variant != nil {
		if line.Variant.Size != "" {
			item.Size = line.Variant.Size
		}
		if line.Variant.Price > 0 {
			item.Price = line.Variant.Price
		}
	}
	return s.basket.Add(ctx, item)
}

// All lists every order in the store. Admin only.
func (s *service) All(ctx context.Context) ([]Order, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	var env ordersEnvelope
	if err := s.api.Get(ctx, "/orders/all", &env); err != nil {
		return nil, err
	}
	return env.Orders, nil
}

func (s *service) SetStatus(ctx context.Context, orderID string, status Status) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if orderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if _, ok := validStatuses[status]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").WithDetails(map[string]string{"status": string(status)})
	}
	body := map[string]Status{"status": status}
	if err := s.api.Patch(ctx, "/orders/"+orderID+"/status", body, nil); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"order_id": orderID, "status": status}), "order status updated")
	return nil
}

func (s *service) requireAdmin(ctx context.Context) error {
	current := s.sessions.Current(ctx)
	if !current.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	if !current.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}
