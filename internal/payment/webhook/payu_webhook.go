package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"payu-adapter/internal/logger"
	"payu-adapter/internal/metrics"
	"payu-adapter/internal/order"
	"payu-adapter/internal/payment"
	"payu-adapter/internal/transport"
	"payu-adapter/internal/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// PaymentHandler is the part of payment.Manager the webhook needs.
type PaymentHandler interface {
	Provider(name string) (payment.Provider, error)
	HandleResponse(ctx context.Context, provider string, payload []byte, lookup payment.OrderLookup) (*payment.Status, error)
}

// envelope is the part of a PayU notification needed to log it before it
// is validated.
type envelope struct {
	Order struct {
		OrderID    string `json:"orderId"`
		ExtOrderID string `json:"extOrderId"`
		Status     string `json:"status"`
	} `json:"order"`
}

type Handler struct {
	OrderSvc order.Service
	Payments PaymentHandler
	Repo     payment.Repository
}

func NewWebhookHandler(orderSvc order.Service, payments PaymentHandler, repo payment.Repository) *Handler {
	return &Handler{
		OrderSvc: orderSvc,
		Payments: payments,
		Repo:     repo,
	}
}

// PaymentWebhookHandler serves POST /payments/{provider}/notify. Committed
// and aborted outcomes are both acknowledged with 200 so the gateway stops
// re-sending; failures answer non-2xx so it retries.
func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	providerName := strings.ToLower(r.PathValue("provider"))
	ctx := logger.WithProvider(r.Context(), providerName)
	log := logger.FromCtx(ctx)

	if _, err := h.Payments.Provider(providerName); err != nil {
		transport.WriteError(ctx, w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.WriteJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Warn("invalid notification payload", zap.Error(err))
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	log = log.With(
		zap.String("payu_order_id", env.Order.OrderID),
		zap.String("ext_order_id", env.Order.ExtOrderID),
		zap.String("payu_status", env.Order.Status),
	)

	n := &payment.Notification{
		Provider:   providerName,
		OrderID:    env.Order.OrderID,
		ExtOrderID: env.Order.ExtOrderID,
		Status:     env.Order.Status,
		Payload:    json.RawMessage(body),
	}

	duplicate, err := h.Repo.SaveNotification(ctx, n)
	if err != nil {
		log.Error("failed to save notification", zap.Error(err))
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if duplicate {
		log.Info("duplicate notification ignored")
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	status, err := h.Payments.HandleResponse(ctx, providerName, body, h.OrderSvc.GetByExtOrderID)
	if err != nil {
		h.markFailed(ctx, n.ID, err)
		transport.WriteError(ctx, w, err)
		return
	}

	err = h.OrderSvc.ApplyPaymentStatus(ctx, status.InternalPaymentID, status.State, status.PaymentReference)
	switch {
	case errors.Is(err, order.ErrStateDowngraded):
		log.Warn("late notification for committed order acknowledged", zap.String("state", string(status.State)))
	case err != nil:
		h.markFailed(ctx, n.ID, err)
		transport.WriteError(ctx, w, err)
		return
	}

	if err := h.Repo.MarkNotificationProcessed(ctx, n.ID, string(status.State)); err != nil {
		log.Error("failed to mark notification processed", zap.Error(err))
	}

	metrics.Notifications.WithLabelValues(providerName, string(status.State)).Inc()
	log.Info("payment notification processed",
		zap.String("state", string(status.State)),
		zap.String("message", status.Message),
	)

	utils.WriteJSON(w, http.StatusOK, map[string]string{"state": string(status.State)})
}

func (h *Handler) markFailed(ctx context.Context, id int64, cause error) {
	if err := h.Repo.MarkNotificationFailed(ctx, id, cause.Error()); err != nil {
		logger.FromCtx(ctx).Error("failed to mark notification failed",
			zap.Int64("notification_id", id),
			zap.Error(err),
		)
	}
}
