package payu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"payu-adapter/internal/logger"
	"payu-adapter/internal/metrics"
	"payu-adapter/internal/payment"

	"go.uber.org/zap"
)

const (
	opCreateOrder = "create_order"

	statusSuccess = "SUCCESS"
)

type orderStatus struct {
	StatusCode  string `json:"statusCode"`
	StatusDesc  string `json:"statusDesc"`
	Code        string `json:"code"`
	CodeLiteral string `json:"codeLiteral"`
}

type orderResponse struct {
	Status           orderStatus `json:"status"`
	RedirectURI      string      `json:"redirectUri"`
	OrderID          string      `json:"orderId"`
	ExtOrderID       string      `json:"extOrderId"`
	ErrorDescription string      `json:"error_description"`
}

func (r orderResponse) description() string {
	switch {
	case r.ErrorDescription != "":
		return r.ErrorDescription
	case r.Status.StatusDesc != "":
		return r.Status.StatusDesc
	default:
		return r.Status.StatusCode
	}
}

// withoutRedirects returns a copy of c that hands 3xx responses back to the
// caller. PayU answers a created order with 302 and a JSON body.
func withoutRedirects(c *http.Client) *http.Client {
	cp := *c
	cp.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &cp
}

// createOrder posts payload with the bearer token. The body is inspected
// whatever the HTTP status; only statusCode SUCCESS yields a redirect.
func createOrder(ctx context.Context, client *http.Client, orderURL, token string, payload OrderPayload) (*orderResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("gateway", gatewayName),
		zap.String("ext_order_id", payload.ExtOrderID),
		zap.String("total_amount", payload.TotalAmount),
		zap.String("currency", payload.CurrencyCode),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("Failed to marshal PayU order", zap.Error(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, orderURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build payu order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	log.Info("Sending order to PayU")

	timer := metrics.StartTimer(opCreateOrder)
	resp, err := client.Do(req)
	if err != nil {
		timer.ObserveResult(metrics.ResultError)
		log.Error("PayU order request failed", zap.Error(err))
		return nil, fmt.Errorf("payu order request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		timer.ObserveResult(metrics.ResultError)
		return nil, fmt.Errorf("read payu order response: %w", err)
	}

	var res orderResponse
	if err := json.Unmarshal(respBody, &res); err != nil {
		timer.ObserveResult(metrics.ResultError)
		log.Error("Failed decoding PayU order response",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", respBody),
			zap.Error(err),
		)
		return nil, &payment.GatewayError{
			Provider:    gatewayName,
			HTTPStatus:  resp.StatusCode,
			Description: "malformed response body",
		}
	}

	if res.Status.StatusCode != statusSuccess {
		timer.ObserveResult(metrics.ResultError)
		log.Error("PayU rejected order",
			zap.Int("http_status", resp.StatusCode),
			zap.String("status_code", res.Status.StatusCode),
			zap.String("description", res.description()),
		)
		return nil, &payment.GatewayError{
			Provider:    gatewayName,
			StatusCode:  res.Status.StatusCode,
			HTTPStatus:  resp.StatusCode,
			Description: res.description(),
		}
	}

	if res.RedirectURI == "" {
		timer.ObserveResult(metrics.ResultError)
		return nil, &payment.GatewayError{
			Provider:    gatewayName,
			StatusCode:  res.Status.StatusCode,
			HTTPStatus:  resp.StatusCode,
			Description: "redirectUri missing from response",
		}
	}

	timer.ObserveResult(metrics.ResultSuccess)
	log.Info("PayU order created",
		zap.Int("http_status", resp.StatusCode),
		zap.String("payu_order_id", res.OrderID),
		zap.Duration("duration", timer.Duration()),
	)

	return &res, nil
}
