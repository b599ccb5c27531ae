package payu

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"payu-adapter/internal/money"
	"payu-adapter/internal/order"
	"payu-adapter/internal/payment"

	"github.com/shopspring/decimal"
)

const (
	StatusCompleted = "COMPLETED"

	DataPaymentType = "payu_PaymentType"
	DataAmount      = "payu_amount"
)

// Notification is the body PayU posts to the notify URL.
type Notification struct {
	Order *NotificationOrder `json:"order"`
}

type PayMethod struct {
	Type string `json:"type"`
}

// Amount is totalAmount exactly as PayU sent it, a JSON string or number.
// It is parsed only after the required fields are known to be present.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Amount(s)
		return nil
	}
	*a = Amount(bytes.TrimSpace(b))
	return nil
}

func (a Amount) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(a)))
}

// NotificationOrder uses pointers so that absent fields can be told apart
// from empty ones. A field sent as JSON null decodes to nil and therefore
// counts as missing.
type NotificationOrder struct {
	PayMethod    *PayMethod `json:"payMethod"`
	OrderID      *string    `json:"orderId"`
	ExtOrderID   *string    `json:"extOrderId"`
	InvoiceID    *string    `json:"InvoiceID"`
	TotalAmount  *Amount    `json:"totalAmount"`
	CurrencyCode *string    `json:"currencyCode"`
	Status       *string    `json:"status"`

	// LocalOrder is the merchant order the notification refers to. It is
	// attached by the receiver and reported as "order" when absent.
	LocalOrder *order.Order `json:"-"`
}

// AuthorizedData correlates later operations with the PayU order.
type AuthorizedData struct {
	OrderID string `json:"orderId"`
}

// localOrderField names the attached local order in validation errors.
const localOrderField = "order"

// wireFields are the required fields PayU itself sends.
var wireFields = []string{
	"payMethod",
	"orderId",
	"extOrderId",
	"InvoiceID",
	"totalAmount",
	"currencyCode",
	"status",
}

var notificationFields = append(append([]string(nil), wireFields...), localOrderField)

// missingWireFields checks the fields PayU sends, leaving out the local order.
func (n Notification) missingWireFields() []string {
	o := n.Order
	if o == nil {
		return append([]string(nil), wireFields...)
	}

	present := []bool{
		o.PayMethod != nil,
		o.OrderID != nil,
		o.ExtOrderID != nil,
		o.InvoiceID != nil,
		o.TotalAmount != nil,
		o.CurrencyCode != nil,
		o.Status != nil,
	}

	var missing []string
	for i, ok := range present {
		if !ok {
			missing = append(missing, wireFields[i])
		}
	}
	return missing
}

func (n Notification) missingFields() []string {
	missing := n.missingWireFields()
	if n.Order == nil || n.Order.LocalOrder == nil {
		missing = append(missing, localOrderField)
	}
	return missing
}

// notificationPrice rebuilds the reported price. totalAmount is already in
// minor units. Unparsable or negative amounts are input errors.
func notificationPrice(o *NotificationOrder) (money.Price, error) {
	amount, err := o.TotalAmount.Decimal()
	if err != nil {
		return money.Price{}, payment.NewInvalidFieldError("totalAmount", err)
	}

	price, err := money.NewPrice(amount, money.NewCurrency(*o.CurrencyCode))
	switch {
	case errors.Is(err, money.ErrNegativeAmount):
		return money.Price{}, payment.NewInvalidFieldError("totalAmount", err)
	case errors.Is(err, money.ErrMissingCurrency):
		return money.Price{}, payment.NewInvalidFieldError("currencyCode", err)
	case err != nil:
		return money.Price{}, err
	}
	return price, nil
}

// decodeNotification parses a raw notification body. Bodies that are not
// JSON, or carry a field of the wrong type, are reported as invalid input.
func decodeNotification(payload []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		field := localOrderField
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			if f := strings.TrimPrefix(typeErr.Field, "order."); f != "" {
				field = f
			}
		}
		return Notification{}, payment.NewInvalidFieldError(field, err)
	}
	return n, nil
}

// executeDebit decides the terminal state of the order. A payment is
// committed only when PayU reports it completed and the reported gross
// amount equals the local order total in minor units.
func executeDebit(price money.Price, o *NotificationOrder) *payment.Status {
	expected := money.ToMinorUnits(o.LocalOrder.TotalPrice)

	if *o.Status == StatusCompleted && price.GrossAmount().Equal(expected) {
		return &payment.Status{
			InternalPaymentID: *o.ExtOrderID,
			PaymentReference:  *o.OrderID,
			State:             order.StateCommitted,
			Data: map[string]string{
				DataPaymentType: o.PayMethod.Type,
				DataAmount:      price.String(),
			},
		}
	}

	return &payment.Status{
		InternalPaymentID: *o.ExtOrderID,
		PaymentReference:  *o.OrderID,
		Message:           *o.Status,
		State:             order.StateAborted,
	}
}
