// Package transport maps payment and order errors onto HTTP responses.
package transport

import (
	"context"
	"errors"
	"net/http"

	"payu-adapter/internal/logger"
	"payu-adapter/internal/order"
	"payu-adapter/internal/payment"
	"payu-adapter/internal/utils"

	"go.uber.org/zap"
)

func StatusFromError(err error) int {
	if _, ok := payment.IsValidationError(err); ok {
		return http.StatusBadRequest
	}
	if _, ok := payment.IsAuthError(err); ok {
		return http.StatusBadGateway
	}
	if _, ok := payment.IsGatewayError(err); ok {
		return http.StatusBadGateway
	}

	switch {
	case errors.Is(err, payment.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, payment.ErrUnknownProvider), errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrStateDowngraded), errors.Is(err, order.ErrOrderNotPending):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError logs err and writes it as a JSON error body. Internal errors
// are not echoed to the client.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	code := StatusFromError(err)

	log := logger.FromCtx(ctx).With(zap.Int("status", code), zap.Error(err))
	if code >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Warn("request rejected")
	}

	message := err.Error()
	if code == http.StatusInternalServerError {
		message = http.StatusText(code)
	}
	utils.WriteJSONError(w, message, code)
}
