package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nawaweeb/storefront/internal/cart"
	"github.com/nawaweeb/storefront/pkg/config"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
	"github.com/nawaweeb/storefront/pkg/metrics"
	"github.com/nawaweeb/storefront/pkg/money"
)

// State names the step a checkout attempt is currently in. Every failure
// edge leads back to StateIdle with the cart untouched.
type State string

const (
	StateIdle                  State = "idle"
	StateValidating            State = "validating"
	StateAwaitingOrderCreation State = "awaiting_order_creation"
	StateAwaitingPaymentWidget State = "awaiting_payment_widget"
	StateVerifyingPayment      State = "verifying_payment"
	StateSucceeded             State = "succeeded"
)

// PaymentSession is everything the payment widget needs to collect a payment
// against a server-created order.
type PaymentSession struct {
	OrderID     string
	Amount      money.Paise
	Currency    string
	KeyID       string
	Merchant    string
	Description string
	ThemeColor  string
}

// Prefill seeds the widget's contact form from the shipping address.
type Prefill struct {
	Name    string
	Email   string
	Contact string
}

// WidgetResult is what the widget hands back. Dismissed means the buyer
// closed it without paying; the credential fields are only set on completion.
type WidgetResult struct {
	Dismissed bool
	OrderID   string
	PaymentID string
	Signature string
}

// PaymentWidget is the port to whatever collects the payment. Implementations
// block until the buyer completes or dismisses the flow.
type PaymentWidget interface {
	Open(ctx context.Context, sess PaymentSession, prefill Prefill) (WidgetResult, error)
}

// Confirmation is returned once the backend has verified the payment.
type Confirmation struct {
	OrderID string
	Amount  money.Paise
}

type transport interface {
	Post(ctx context.Context, path string, body, out any) error
}

type cartAccess interface {
	Lines() []cart.Item
	Clear(ctx context.Context) error
}

// Orchestrator drives a checkout attempt through order creation, the payment
// widget, and server-side verification. The cart is cleared only after the
// backend confirms the payment signature.
type Orchestrator struct {
	mu      sync.Mutex
	state   State
	receipt string

	api     transport
	cart    cartAccess
	widget  PaymentWidget
	cfg     config.PaymentConfig
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
}

func NewOrchestrator(api transport, cartAcc cartAccess, widget PaymentWidget, cfg config.PaymentConfig, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Orchestrator, error) {
	if api == nil {
		return nil, fmt.Errorf("checkout orchestrator requires an api client")
	}
	if cartAcc == nil {
		return nil, fmt.Errorf("checkout orchestrator requires cart access")
	}
	if widget == nil {
		return nil, fmt.Errorf("checkout orchestrator requires a payment widget")
	}
	if logg == nil {
		return nil, fmt.Errorf("checkout orchestrator requires a logger")
	}
	return &Orchestrator{
		state:   StateIdle,
		api:     api,
		cart:    cartAcc,
		widget:  widget,
		cfg:     cfg,
		logg:    logg,
		metrics: m,
	}, nil
}

// State reports the current step of the attempt in flight, or StateIdle.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

type createOrderRequest struct {
	Items           []cart.Item     `json:"items"`
	TotalAmount     money.Paise     `json:"totalAmount"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Receipt         string          `json:"receipt"`
}

type createOrderResponse struct {
	RazorpayOrderID string      `json:"razorpay_order_id"`
	Amount          money.Paise `json:"amount"`
	Currency        string      `json:"currency"`
	KeyID           string      `json:"key_id"`
}

type verifyRequest struct {
	RazorpayOrderID   string          `json:"razorpay_order_id"`
	RazorpayPaymentID string          `json:"razorpay_payment_id"`
	RazorpaySignature string          `json:"razorpay_signature"`
	ShippingAddress   ShippingAddress `json:"shipping_address"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

// Execute runs one checkout attempt. It returns (nil, nil) when the buyer
// dismisses the payment widget; every other non-success path returns an error
// and leaves the cart as it was.
func (o *Orchestrator) Execute(ctx context.Context, addr ShippingAddress) (*Confirmation, error) {
	if !o.begin() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a checkout is already in progress")
	}
	start := time.Now()
	ctx = o.logg.WithOperation(ctx, "checkout")

	if err := ValidateAddress(addr); err != nil {
		o.finish(StateIdle, "validation_failed", start)
		return nil, err
	}
	lines := o.cart.Lines()
	if len(lines) == 0 {
		o.finish(StateIdle, "validation_failed", start)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	total := cart.Subtotal(lines)

	o.setState(StateAwaitingOrderCreation)
	sess, err := o.createPaymentSession(ctx, lines, total, addr)
	if err != nil {
		o.finish(StateIdle, "order_creation_failed", start)
		return nil, err
	}

	o.setState(StateAwaitingPaymentWidget)
	result, err := o.widget.Open(ctx, sess, Prefill{Name: addr.FullName, Email: addr.Email, Contact: addr.Phone})
	if err != nil {
		o.finish(StateIdle, "widget_failed", start)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment widget failed")
	}
	if result.Dismissed {
		o.logg.Info(ctx, "payment widget dismissed")
		o.finish(StateIdle, "dismissed", start)
		return nil, nil
	}

	o.setState(StateVerifyingPayment)
	orderID, err := o.verify(ctx, sess.OrderID, result, addr)
	if err != nil {
		o.finish(StateIdle, "verification_failed", start)
		return nil, err
	}

	if err := o.cart.Clear(ctx); err != nil {
		o.logg.Error(ctx, "clearing cart after paid order", err)
	}
	o.clearReceipt()
	o.logg.Info(o.logg.WithField(ctx, "order_id", orderID), "checkout verified")
	o.finish(StateSucceeded, "success", start)
	return &Confirmation{OrderID: orderID, Amount: total}, nil
}

func (o *Orchestrator) createPaymentSession(ctx context.Context, lines []cart.Item, total money.Paise, addr ShippingAddress) (PaymentSession, error) {
	var resp createOrderResponse
	req := createOrderRequest{
		Items:           lines,
		TotalAmount:     total,
		ShippingAddress: addr,
		Receipt:         o.receiptKey(),
	}
	if err := o.api.Post(ctx, "/checkout/create-razorpay-order", req, &resp); err != nil {
		return PaymentSession{}, err
	}
	if resp.RazorpayOrderID == "" {
		return PaymentSession{}, pkgerrors.New(pkgerrors.CodeDependency, "payment session was not created")
	}
	return PaymentSession{
		OrderID:     resp.RazorpayOrderID,
		Amount:      resp.Amount,
		Currency:    resp.Currency,
		KeyID:       resp.KeyID,
		Merchant:    o.cfg.MerchantName,
		Description: o.cfg.Description,
		ThemeColor:  o.cfg.ThemeColor,
	}, nil
}

func (o *Orchestrator) verify(ctx context.Context, orderID string, result WidgetResult, addr ShippingAddress) (string, error) {
	var resp verifyResponse
	req := verifyRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: result.PaymentID,
		RazorpaySignature: result.Signature,
		ShippingAddress:   addr,
	}
	if err := o.api.Post(ctx, "/checkout/verify-razorpay", req, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		message := resp.Message
		if message == "" {
			message = "payment verification failed"
		}
		return "", pkgerrors.New(pkgerrors.CodeDependency, message)
	}
	return resp.OrderID, nil
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle && o.state != StateSucceeded {
		return false
	}
	o.state = StateValidating
	return true
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) finish(s State, outcome string, start time.Time) {
	o.setState(s)
	o.metrics.Observe(outcome, time.Since(start))
}

// receiptKey returns the idempotency key for the current attempt. The key
// survives failed attempts so a retry resumes the same payment session, and
// rotates only after a verified success.
func (o *Orchestrator) receiptKey() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.receipt == "" {
		o.receipt = uuid.NewString()
	}
	return o.receipt
}

func (o *Orchestrator) clearReceipt() {
	o.mu.Lock()
	o.receipt = ""
	o.mu.Unlock()
}
