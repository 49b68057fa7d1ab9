package catalog

import (
	"context"
	"io"
	"testing"

	"github.com/nawaweeb/storefront/internal/session"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
)

type stubAdminTransport struct {
	product *Product

	postPaths   []string
	patchPaths  []string
	deletePaths []string
	lastBody    any
}

func (s *stubAdminTransport) Post(_ context.Context, path string, body, out any) error {
	s.postPaths = append(s.postPaths, path)
	s.lastBody = body
	out.(*detailEnvelope).Data.Product = s.product
	return nil
}

func (s *stubAdminTransport) Patch(_ context.Context, path string, body, out any) error {
	s.patchPaths = append(s.patchPaths, path)
	s.lastBody = body
	out.(*detailEnvelope).Data.Product = s.product
	return nil
}

func (s *stubAdminTransport) Delete(_ context.Context, path string, _ any) error {
	s.deletePaths = append(s.deletePaths, path)
	return nil
}

type stubAdminSessions struct {
	sess session.Session
}

func (s *stubAdminSessions) Current(context.Context) session.Session { return s.sess }

func newTestAdmin(t *testing.T, api *stubAdminTransport, sessions *stubAdminSessions) Admin {
	t.Helper()
	adm, err := NewAdmin(api, sessions, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewAdmin: %v", err)
	}
	return adm
}

func adminSession() *stubAdminSessions {
	return &stubAdminSessions{sess: session.Session{Token: "t", Role: session.RoleAdmin}}
}

func draftInput() ProductInput {
	return ProductInput{
		Title:    "Oversized tee",
		Price:    1999,
		IsActive: true,
		Variants: []VariantInput{
			{Size: "M", Price: 2099, StockQuantity: 4},
		},
	}
}

func TestAdminCreateRequiresAdminRole(t *testing.T) {
	t.Parallel()

	api := &stubAdminTransport{}
	user := &stubAdminSessions{sess: session.Session{Token: "t", Role: session.RoleUser}}
	adm := newTestAdmin(t, api, user)

	_, err := adm.Create(context.Background(), draftInput())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	_, err = newTestAdmin(t, api, &stubAdminSessions{}).Create(context.Background(), draftInput())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for guest, got %v", err)
	}
	if len(api.postPaths) != 0 {
		t.Fatal("create reached the backend without an admin session")
	}
}

func TestAdminCreatePostsDraft(t *testing.T) {
	t.Parallel()

	api := &stubAdminTransport{product: &Product{ID: "p1", Title: "Oversized tee"}}
	adm := newTestAdmin(t, api, adminSession())

	created, err := adm.Create(context.Background(), draftInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "p1" {
		t.Fatalf("unexpected product %+v", created)
	}
	if api.postPaths[0] != "/products/add" {
		t.Fatalf("unexpected path %q", api.postPaths[0])
	}
	sent := api.lastBody.(ProductInput)
	if sent.Title != "Oversized tee" || len(sent.Variants) != 1 || sent.Variants[0].Size != "M" {
		t.Fatalf("unexpected payload %+v", sent)
	}
}

func TestAdminCreateValidatesDraft(t *testing.T) {
	t.Parallel()

	adm := newTestAdmin(t, &stubAdminTransport{}, adminSession())

	cases := []ProductInput{
		{Price: 1999},
		{Title: "No price"},
		{Title: "Bad variant", Price: 1999, Variants: []VariantInput{{Price: 100}}},
		{Title: "Negative stock", Price: 1999, Variants: []VariantInput{{Size: "M", StockQuantity: -1}}},
	}
	for _, input := range cases {
		_, err := adm.Create(context.Background(), input)
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestAdminUpdatePatchesProduct(t *testing.T) {
	t.Parallel()

	api := &stubAdminTransport{product: &Product{ID: "p1", Title: "Renamed"}}
	adm := newTestAdmin(t, api, adminSession())

	updated, err := adm.Update(context.Background(), "p1", draftInput())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("unexpected product %+v", updated)
	}
	if api.patchPaths[0] != "/products/p1" {
		t.Fatalf("unexpected path %q", api.patchPaths[0])
	}

	if _, err := adm.Update(context.Background(), "", draftInput()); err == nil {
		t.Fatal("expected missing id rejection")
	}
}

func TestAdminDelete(t *testing.T) {
	t.Parallel()

	api := &stubAdminTransport{}
	adm := newTestAdmin(t, api, adminSession())

	if err := adm.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if api.deletePaths[0] != "/products/p1" {
		t.Fatalf("unexpected path %q", api.deletePaths[0])
	}
	if err := adm.Delete(context.Background(), ""); err == nil {
		t.Fatal("expected missing id rejection")
	}
}
