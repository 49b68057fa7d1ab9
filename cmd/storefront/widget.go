package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nawaweeb/storefront/internal/checkout"
)

// terminalWidget plays the role of the hosted payment widget: it shows the
// payment session and reads the gateway's completion credentials from the
// terminal. An empty line dismisses the payment.
type terminalWidget struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalWidget(in io.Reader, out io.Writer) *terminalWidget {
	return &terminalWidget{in: bufio.NewReader(in), out: out}
}

func (w *terminalWidget) Open(ctx context.Context, sess checkout.PaymentSession, prefill checkout.Prefill) (checkout.WidgetResult, error) {
	fmt.Fprintf(w.out, "%s - %s\n", sess.Merchant, sess.Description)
	fmt.Fprintf(w.out, "order %s  amount %s %s  key %s\n", sess.OrderID, sess.Amount.Format(), sess.Currency, sess.KeyID)
	fmt.Fprintf(w.out, "paying as %s <%s> %s\n", prefill.Name, prefill.Email, prefill.Contact)
	fmt.Fprint(w.out, "enter '<payment_id> <signature>' to complete, or an empty line to cancel: ")

	line, err := w.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return checkout.WidgetResult{}, fmt.Errorf("reading payment result: %w", err)
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return checkout.WidgetResult{Dismissed: true}, nil
	}
	return checkout.WidgetResult{
		OrderID:   sess.OrderID,
		PaymentID: fields[0],
		Signature: fields[1],
	}, nil
}
