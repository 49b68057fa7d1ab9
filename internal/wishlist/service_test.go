package wishlist

import (
	"context"
	"io"
	"testing"

	"github.com/nawaweeb/storefront/internal/session"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
)

type stubTransport struct {
	entries   []Entry
	getPaths  []string
	postPaths []string
	postBody  any
}

func (s *stubTransport) Get(_ context.Context, path string, out any) error {
	s.getPaths = append(s.getPaths, path)
	out.(*listEnvelope).Wishlist = s.entries
	return nil
}

func (s *stubTransport) Post(_ context.Context, path string, body, _ any) error {
	s.postPaths = append(s.postPaths, path)
	s.postBody = body
	return nil
}

type stubSessions struct {
	sess session.Session
}

func (s *stubSessions) Current(context.Context) session.Session { return s.sess }

func newTestService(t *testing.T, api *stubTransport, sessions *stubSessions) Service {
	t.Helper()
	svc, err := NewService(api, sessions, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestListRequiresSession(t *testing.T) {
	t.Parallel()

	api := &stubTransport{}
	svc := newTestService(t, api, &stubSessions{})

	_, err := svc.List(context.Background())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(api.getPaths) != 0 {
		t.Fatal("wishlist fetched without a session")
	}
}

func TestListReturnsEntries(t *testing.T) {
	t.Parallel()

	api := &stubTransport{entries: []Entry{{ID: "w1"}}}
	svc := newTestService(t, api, &stubSessions{sess: session.Session{Token: "t", Role: session.RoleUser}})

	entries, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "w1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if api.getPaths[0] != "/user/getwishlist" {
		t.Fatalf("unexpected path %q", api.getPaths[0])
	}
}

func TestToggle(t *testing.T) {
	t.Parallel()

	api := &stubTransport{}
	svc := newTestService(t, api, &stubSessions{sess: session.Session{Token: "t", Role: session.RoleUser}})

	if err := svc.Toggle(context.Background(), ""); err == nil {
		t.Fatal("expected missing product id rejection")
	}
	if err := svc.Toggle(context.Background(), "p1"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if api.postPaths[0] != "/user/togglewish" {
		t.Fatalf("unexpected path %q", api.postPaths[0])
	}
	if body := api.postBody.(map[string]string); body["productId"] != "p1" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestToggleRequiresSession(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubTransport{}, &stubSessions{})
	err := svc.Toggle(context.Background(), "p1")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
