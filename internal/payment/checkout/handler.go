// Package checkout serves the API host systems call to send a customer to a
// gateway's hosted payment page.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"payu-adapter/internal/logger"
	"payu-adapter/internal/money"
	"payu-adapter/internal/order"
	"payu-adapter/internal/payment"
	"payu-adapter/internal/transport"
	"payu-adapter/internal/utils"

	"go.uber.org/zap"
)

// PaymentStarter is the part of payment.Manager the checkout needs.
type PaymentStarter interface {
	StartPayment(ctx context.Context, provider string, price money.Price, req payment.StartRequest) (*payment.URLResponse, error)
}

type Request struct {
	ExtOrderID  string `json:"extOrderId"`
	CustomerIP  string `json:"customerIp,omitempty"`
	Description string `json:"description"`
	ContinueURL string `json:"continueUrl"`
}

type Response struct {
	RedirectURI string `json:"redirectUri"`
	ExtOrderID  string `json:"extOrderId"`
}

type Handler struct {
	OrderSvc      order.Service
	Payments      PaymentStarter
	NotifyBaseURL string
}

func NewHandler(orderSvc order.Service, payments PaymentStarter, notifyBaseURL string) *Handler {
	return &Handler{
		OrderSvc:      orderSvc,
		Payments:      payments,
		NotifyBaseURL: strings.TrimRight(notifyBaseURL, "/"),
	}
}

// NotifyURL is where provider posts its notifications.
func (h *Handler) NotifyURL(provider string) string {
	return fmt.Sprintf("%s/payments/%s/notify", h.NotifyBaseURL, provider)
}

// StartPaymentHandler serves POST /payments/{provider}.
func (h *Handler) StartPaymentHandler(w http.ResponseWriter, r *http.Request) {
	provider := strings.ToLower(r.PathValue("provider"))
	ctx := logger.WithProvider(r.Context(), provider)

	var body Request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if body.ExtOrderID == "" {
		transport.WriteError(ctx, w, payment.NewValidationError("extOrderId"))
		return
	}

	log := logger.FromCtx(ctx).With(zap.String("ext_order_id", body.ExtOrderID))

	o, err := h.OrderSvc.GetByExtOrderID(ctx, body.ExtOrderID)
	if err != nil {
		transport.WriteError(ctx, w, err)
		return
	}
	if o.State != order.StatePending {
		transport.WriteError(ctx, w, fmt.Errorf("%w: %s", order.ErrOrderNotPending, o.State))
		return
	}

	price, err := money.NewPrice(o.TotalPrice, money.NewCurrency(o.Currency))
	if err != nil {
		transport.WriteError(ctx, w, fmt.Errorf("order %s price: %w", o.ExtOrderID, err))
		return
	}

	customerIP := body.CustomerIP
	if customerIP == "" {
		customerIP = utils.ClientIP(r)
	}

	resp, err := h.Payments.StartPayment(ctx, provider, price, payment.StartRequest{
		ExtOrderID:  o.ExtOrderID,
		NotifyURL:   h.NotifyURL(provider),
		CustomerIP:  customerIP,
		Description: body.Description,
		ContinueURL: body.ContinueURL,
		Order:       o,
	})
	if err != nil {
		transport.WriteError(ctx, w, err)
		return
	}

	log.Info("payment started", zap.String("amount", price.String()), zap.String("currency", price.Currency.ShortName))

	utils.WriteJSON(w, http.StatusOK, Response{
		RedirectURI: resp.URL,
		ExtOrderID:  o.ExtOrderID,
	})
}
