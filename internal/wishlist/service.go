package wishlist

import (
	"context"
	"fmt"

	"github.com/nawaweeb/storefront/internal/catalog"
	"github.com/nawaweeb/storefront/internal/session"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
)

// Entry is one saved product, wrapped the way the backend joins it.
type Entry struct {
	ID      string          `json:"id"`
	Product catalog.Product `json:"products"`
}

type transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

type sessionSource interface {
	Current(ctx context.Context) session.Session
}

// Service lists and toggles the signed-in user's wishlist.
type Service interface {
	List(ctx context.Context) ([]Entry, error)
	Toggle(ctx context.Context, productID string) error
}

type service struct {
	api      transport
	sessions sessionSource
	logg     *logger.Logger
}

func NewService(api transport, sessions sessionSource, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("wishlist service requires an api client")
	}
	if sessions == nil {
		return nil, fmt.Errorf("wishlist service requires a session manager")
	}
	if logg == nil {
		return nil, fmt.Errorf("wishlist service requires a logger")
	}
	return &service{api: api, sessions: sessions, logg: logg}, nil
}

type listEnvelope struct {
	Wishlist []Entry `json:"wishlist"`
}

func (s *service) List(ctx context.Context) ([]Entry, error) {
	if !s.sessions.Current(ctx).Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to see your wishlist")
	}
	var env listEnvelope
	if err := s.api.Get(ctx, "/user/getwishlist", &env); err != nil {
		return nil, err
	}
	return env.Wishlist, nil
}

// Toggle flips the saved state of a product. The server decides whether the
// call adds or removes.
func (s *service) Toggle(ctx context.Context, productID string) error {
	if !s.sessions.Current(ctx).Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to save products")
	}
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	body := map[string]string{"productId": productID}
	return s.api.Post(ctx, "/user/togglewish", body, nil)
}
