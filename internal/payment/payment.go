// Package payment defines the capability every payment gateway adapter
// exposes to the order pipeline, and the values exchanged through it.
package payment

import (
	"context"

	"payu-adapter/internal/money"
	"payu-adapter/internal/order"
)

// Provider is implemented by each payment gateway adapter.
type Provider interface {
	// Name returns the display name of the gateway, e.g. "PayU".
	Name() string

	// StartPayment registers the payment with the gateway and returns where
	// the customer must be redirected to complete it.
	StartPayment(ctx context.Context, price money.Price, req StartRequest) (*URLResponse, error)

	// HandleResponse maps an asynchronous gateway notification to the final
	// payment status. lookup resolves the local order the notification
	// refers to. The caller persists the returned Status.
	HandleResponse(ctx context.Context, payload []byte, lookup OrderLookup) (*Status, error)

	// ExecuteCredit refunds a captured payment.
	ExecuteCredit(ctx context.Context, price money.Price, reference, transactionID string) (*Status, error)
}

// OrderLookup resolves a local order by its external order id.
type OrderLookup func(ctx context.Context, extOrderID string) (*order.Order, error)

// StartRequest carries the caller-supplied fields a hosted checkout needs.
type StartRequest struct {
	ExtOrderID  string
	NotifyURL   string
	CustomerIP  string
	Description string
	ContinueURL string
	Order       *order.Order
}

// URLResponse wraps the redirect URL returned by a hosted checkout.
type URLResponse struct {
	Order *order.Order
	URL   string
}

// Status is the outcome of a payment confirmation cycle.
type Status struct {
	InternalPaymentID string
	PaymentReference  string
	Message           string
	State             order.State
	Data              map[string]string
}

func (s *Status) Committed() bool {
	return s.State == order.StateCommitted
}
