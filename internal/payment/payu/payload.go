package payu

import (
	"encoding/json"

	"payu-adapter/internal/money"
	"payu-adapter/internal/payment"
)

type Buyer struct {
	Email string `json:"email"`
}

type Product struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// OrderPayload is the body of an order-creation request.
type OrderPayload struct {
	ContinueURL   string    `json:"continueUrl"`
	ExtOrderID    string    `json:"extOrderId"`
	NotifyURL     string    `json:"notifyUrl"`
	Description   string    `json:"description"`
	CustomerIP    string    `json:"customerIp"`
	MerchantPosID string    `json:"merchantPosId"`
	Buyer         Buyer     `json:"buyer"`
	CurrencyCode  string    `json:"currencyCode"`
	TotalAmount   string    `json:"totalAmount"`
	Products      []Product `json:"products"`

	// Additional holds extra top-level fields such as mcpData for
	// multi-currency payments. Entries are merged into the encoded object.
	Additional map[string]any `json:"-"`
}

// AdditionalDataFunc may add gateway specific fields to a payload before it
// is sent.
type AdditionalDataFunc func(OrderPayload) OrderPayload

func noAdditionalData(p OrderPayload) OrderPayload { return p }

func (p OrderPayload) MarshalJSON() ([]byte, error) {
	type plain OrderPayload
	raw, err := json.Marshal(plain(p))
	if err != nil || len(p.Additional) == 0 {
		return raw, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for k, v := range p.Additional {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[k] = b
	}
	return json.Marshal(fields)
}

// missingStartFields lists the empty caller-supplied fields of req in the
// order PayU documents them.
func missingStartFields(req payment.StartRequest) []string {
	var missing []string
	if req.ExtOrderID == "" {
		missing = append(missing, "extOrderId")
	}
	if req.NotifyURL == "" {
		missing = append(missing, "notifyUrl")
	}
	if req.CustomerIP == "" {
		missing = append(missing, "customerIp")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if req.ContinueURL == "" {
		missing = append(missing, "continueUrl")
	}
	if req.Order == nil {
		missing = append(missing, "order")
	}
	return missing
}

// buildOrderPayload converts a local order into the order-creation body.
// All amounts are sent in minor units.
func buildOrderPayload(posID string, price money.Price, req payment.StartRequest) (OrderPayload, error) {
	if missing := missingStartFields(req); len(missing) > 0 {
		return OrderPayload{}, payment.NewValidationError(missing...)
	}

	o := req.Order
	products := make([]Product, 0, len(o.Items))
	for _, item := range o.Items {
		products = append(products, Product{
			Name:      item.ProductName,
			UnitPrice: money.MinorUnits(item.UnitPrice),
			Quantity:  item.Quantity,
		})
	}

	return OrderPayload{
		ContinueURL:   req.ContinueURL,
		ExtOrderID:    req.ExtOrderID,
		NotifyURL:     req.NotifyURL,
		Description:   req.Description,
		CustomerIP:    req.CustomerIP,
		MerchantPosID: posID,
		Buyer:         Buyer{Email: o.Customer.Email},
		CurrencyCode:  price.Currency.ShortName,
		TotalAmount:   price.MinorUnits(),
		Products:      products,
	}, nil
}
