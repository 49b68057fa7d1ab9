package checkout

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/nawaweeb/storefront/internal/cart"
	"github.com/nawaweeb/storefront/pkg/config"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
	"github.com/nawaweeb/storefront/pkg/money"
)

type stubTransport struct {
	createResp createOrderResponse
	createErr  error
	verifyResp verifyResponse
	verifyErr  error

	createReqs []createOrderRequest
	verifyReqs []verifyRequest
}

func (s *stubTransport) Post(_ context.Context, path string, body, out any) error {
	switch path {
	case "/checkout/create-razorpay-order":
		s.createReqs = append(s.createReqs, body.(createOrderRequest))
		if s.createErr != nil {
			return s.createErr
		}
		*out.(*createOrderResponse) = s.createResp
	case "/checkout/verify-razorpay":
		s.verifyReqs = append(s.verifyReqs, body.(verifyRequest))
		if s.verifyErr != nil {
			return s.verifyErr
		}
		*out.(*verifyResponse) = s.verifyResp
	}
	return nil
}

type stubCart struct {
	lines   []cart.Item
	cleared bool
}

func (s *stubCart) Lines() []cart.Item { return s.lines }

func (s *stubCart) Clear(context.Context) error {
	s.cleared = true
	return nil
}

type stubWidget struct {
	result WidgetResult
	err    error

	gotSession PaymentSession
	gotPrefill Prefill
	opens      int
}

func (s *stubWidget) Open(_ context.Context, sess PaymentSession, prefill Prefill) (WidgetResult, error) {
	s.opens++
	s.gotSession = sess
	s.gotPrefill = prefill
	return s.result, s.err
}

func checkoutLines() []cart.Item {
	return []cart.Item{
		{ProductID: "p1", VariantID: "v1", Title: "Oversized tee", Price: 1999, Qty: 2},
		{ProductID: "p2", Title: "Handmade tote", Price: 2999, Qty: 1, IsHandmade: true},
	}
}

func newTestOrchestrator(t *testing.T, api *stubTransport, basket *stubCart, widget *stubWidget) *Orchestrator {
	t.Helper()
	cfg := config.PaymentConfig{
		MerchantName: "NAWAWEEB",
		Description:  "Secure Premium Checkout",
		ThemeColor:   "#000000",
		Currency:     "INR",
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	orch, err := NewOrchestrator(api, basket, widget, cfg, logg, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orch
}

func TestExecuteHappyPath(t *testing.T) {
	t.Parallel()

	api := &stubTransport{
		createResp: createOrderResponse{RazorpayOrderID: "order_rzp1", Amount: 6997, Currency: "INR", KeyID: "rzp_test_key"},
		verifyResp: verifyResponse{Success: true, OrderID: "ord_42"},
	}
	basket := &stubCart{lines: checkoutLines()}
	widget := &stubWidget{result: WidgetResult{OrderID: "order_rzp1", PaymentID: "pay_1", Signature: "sig_1"}}
	orch := newTestOrchestrator(t, api, basket, widget)

	conf, err := orch.Execute(context.Background(), validAddress())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if conf == nil || conf.OrderID != "ord_42" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if want := money.Paise(1999*2 + 2999); conf.Amount != want {
		t.Fatalf("confirmation amount = %d, want %d", conf.Amount, want)
	}
	if !basket.cleared {
		t.Fatal("cart was not cleared after verified payment")
	}
	if got := orch.State(); got != StateSucceeded {
		t.Fatalf("state = %q, want %q", got, StateSucceeded)
	}

	if len(api.createReqs) != 1 {
		t.Fatalf("expected one order creation, got %d", len(api.createReqs))
	}
	created := api.createReqs[0]
	if created.TotalAmount != conf.Amount || len(created.Items) != 2 {
		t.Fatalf("unexpected create request %+v", created)
	}
	if created.Receipt == "" {
		t.Fatal("order creation carried no receipt key")
	}
	if widget.gotSession.OrderID != "order_rzp1" || widget.gotSession.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected widget session %+v", widget.gotSession)
	}
	if widget.gotSession.Merchant != "NAWAWEEB" || widget.gotSession.ThemeColor != "#000000" {
		t.Fatalf("widget session missing merchant branding: %+v", widget.gotSession)
	}
	if widget.gotPrefill.Contact != "98765 43210" {
		t.Fatalf("unexpected prefill %+v", widget.gotPrefill)
	}
	verified := api.verifyReqs[0]
	if verified.RazorpayOrderID != "order_rzp1" || verified.RazorpayPaymentID != "pay_1" || verified.RazorpaySignature != "sig_1" {
		t.Fatalf("unexpected verify request %+v", verified)
	}
	if verified.ShippingAddress.City != "Bengaluru" {
		t.Fatalf("verify request lost the shipping address: %+v", verified)
	}
}

func TestExecuteInvalidAddressTouchesNothing(t *testing.T) {
	t.Parallel()

	api := &stubTransport{}
	basket := &stubCart{lines: checkoutLines()}
	orch := newTestOrchestrator(t, api, basket, &stubWidget{})

	_, err := orch.Execute(context.Background(), ShippingAddress{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	if len(api.createReqs) != 0 {
		t.Fatal("order creation attempted with invalid address")
	}
	if basket.cleared {
		t.Fatal("cart cleared on validation failure")
	}
	if got := orch.State(); got != StateIdle {
		t.Fatalf("state = %q, want %q", got, StateIdle)
	}
}

func TestExecuteEmptyCart(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(t, &stubTransport{}, &stubCart{}, &stubWidget{})
	_, err := orch.Execute(context.Background(), validAddress())
	if err == nil || err.Error() != "VALIDATION_ERROR: cart is empty" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestExecuteDismissalLeavesCartAndReusesReceipt(t *testing.T) {
	t.Parallel()

	api := &stubTransport{
		createResp: createOrderResponse{RazorpayOrderID: "order_rzp1", Amount: 6997, Currency: "INR", KeyID: "k"},
		verifyResp: verifyResponse{Success: true, OrderID: "ord_42"},
	}
	basket := &stubCart{lines: checkoutLines()}
	widget := &stubWidget{result: WidgetResult{Dismissed: true}}
	orch := newTestOrchestrator(t, api, basket, widget)

	conf, err := orch.Execute(context.Background(), validAddress())
	if err != nil {
		t.Fatalf("dismissal must not be an error: %v", err)
	}
	if conf != nil {
		t.Fatalf("dismissal returned a confirmation: %+v", conf)
	}
	if basket.cleared {
		t.Fatal("cart cleared on dismissal")
	}
	if got := orch.State(); got != StateIdle {
		t.Fatalf("state = %q, want %q", got, StateIdle)
	}
	if len(api.verifyReqs) != 0 {
		t.Fatal("verification attempted after dismissal")
	}

	widget.result = WidgetResult{OrderID: "order_rzp1", PaymentID: "pay_1", Signature: "sig_1"}
	if _, err := orch.Execute(context.Background(), validAddress()); err != nil {
		t.Fatalf("retry after dismissal: %v", err)
	}
	if api.createReqs[0].Receipt != api.createReqs[1].Receipt {
		t.Fatal("retry did not reuse the receipt key")
	}
}

func TestExecuteVerificationFailureKeepsCart(t *testing.T) {
	t.Parallel()

	api := &stubTransport{
		createResp: createOrderResponse{RazorpayOrderID: "order_rzp1", Amount: 6997, Currency: "INR", KeyID: "k"},
		verifyResp: verifyResponse{Success: false, Message: "signature mismatch"},
	}
	basket := &stubCart{lines: checkoutLines()}
	widget := &stubWidget{result: WidgetResult{OrderID: "order_rzp1", PaymentID: "pay_1", Signature: "tampered"}}
	orch := newTestOrchestrator(t, api, basket, widget)

	_, err := orch.Execute(context.Background(), validAddress())
	if err == nil {
		t.Fatal("expected verification failure")
	}
	if err.Error() != "DEPENDENCY_ERROR: signature mismatch" {
		t.Fatalf("unexpected error %v", err)
	}
	if basket.cleared {
		t.Fatal("cart cleared without server verification")
	}
	if got := orch.State(); got != StateIdle {
		t.Fatalf("state = %q, want %q", got, StateIdle)
	}
}

func TestExecuteOrderCreationFailure(t *testing.T) {
	t.Parallel()

	api := &stubTransport{createErr: errors.New("boom")}
	basket := &stubCart{lines: checkoutLines()}
	widget := &stubWidget{}
	orch := newTestOrchestrator(t, api, basket, widget)

	if _, err := orch.Execute(context.Background(), validAddress()); err == nil {
		t.Fatal("expected order creation error")
	}
	if widget.opens != 0 {
		t.Fatal("widget opened without a payment session")
	}
	if got := orch.State(); got != StateIdle {
		t.Fatalf("state = %q, want %q", got, StateIdle)
	}
}

func TestExecuteMissingPaymentSession(t *testing.T) {
	t.Parallel()

	api := &stubTransport{createResp: createOrderResponse{}}
	orch := newTestOrchestrator(t, api, &stubCart{lines: checkoutLines()}, &stubWidget{})

	_, err := orch.Execute(context.Background(), validAddress())
	if err == nil || err.Error() != "DEPENDENCY_ERROR: payment session was not created" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestExecuteWidgetError(t *testing.T) {
	t.Parallel()

	api := &stubTransport{
		createResp: createOrderResponse{RazorpayOrderID: "order_rzp1", Amount: 6997, Currency: "INR", KeyID: "k"},
	}
	basket := &stubCart{lines: checkoutLines()}
	orch := newTestOrchestrator(t, api, basket, &stubWidget{err: errors.New("widget crashed")})

	_, err := orch.Execute(context.Background(), validAddress())
	if err == nil {
		t.Fatal("expected widget error")
	}
	if basket.cleared {
		t.Fatal("cart cleared after widget failure")
	}
	if got := orch.State(); got != StateIdle {
		t.Fatalf("state = %q, want %q", got, StateIdle)
	}
}

func TestExecuteSuccessRotatesReceipt(t *testing.T) {
	t.Parallel()

	api := &stubTransport{
		createResp: createOrderResponse{RazorpayOrderID: "order_rzp1", Amount: 6997, Currency: "INR", KeyID: "k"},
		verifyResp: verifyResponse{Success: true, OrderID: "ord_42"},
	}
	basket := &stubCart{lines: checkoutLines()}
	widget := &stubWidget{result: WidgetResult{OrderID: "order_rzp1", PaymentID: "pay_1", Signature: "sig_1"}}
	orch := newTestOrchestrator(t, api, basket, widget)

	if _, err := orch.Execute(context.Background(), validAddress()); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	basket.lines = checkoutLines()
	if _, err := orch.Execute(context.Background(), validAddress()); err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if api.createReqs[0].Receipt == api.createReqs[1].Receipt {
		t.Fatal("receipt key was not rotated after success")
	}
}
