package payu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"payu-adapter/internal/logger"
	"payu-adapter/internal/metrics"
	"payu-adapter/internal/payment"

	"go.uber.org/zap"
)

const (
	opAuthorize = "authorize"

	unknownAuthError = "unknown error"
)

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	GrantType        string `json:"grant_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type accessToken struct {
	value string
	// zero when the gateway did not report expires_in
	expiresAt time.Time
}

func (t accessToken) expired(now time.Time) bool {
	return !t.expiresAt.IsZero() && !now.Before(t.expiresAt)
}

func authorizeBody(clientID, clientSecret string) string {
	return "grant_type=client_credentials" +
		"&client_id=" + url.QueryEscape(clientID) +
		"&client_secret=" + url.QueryEscape(clientSecret)
}

// fetchToken performs one client-credentials exchange against authorizeURL.
func fetchToken(ctx context.Context, client *http.Client, authorizeURL, clientID, clientSecret string, now time.Time) (accessToken, error) {
	log := logger.FromCtx(ctx).With(zap.String("gateway", gatewayName))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authorizeURL, strings.NewReader(authorizeBody(clientID, clientSecret)))
	if err != nil {
		return accessToken{}, fmt.Errorf("build payu authorize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	timer := metrics.StartTimer(opAuthorize)
	resp, err := client.Do(req)
	if err != nil {
		timer.ObserveResult(metrics.ResultError)
		log.Error("PayU authorize request failed", zap.Error(err))
		return accessToken{}, fmt.Errorf("payu authorize request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		timer.ObserveResult(metrics.ResultError)
		return accessToken{}, fmt.Errorf("read payu authorize response: %w", err)
	}

	var res tokenResponse
	if err := json.Unmarshal(body, &res); err != nil {
		log.Warn("PayU authorize response is not JSON",
			zap.Int("http_status", resp.StatusCode),
			zap.Error(err),
		)
	}

	if res.AccessToken == "" {
		timer.ObserveResult(metrics.ResultError)
		desc := res.ErrorDescription
		if desc == "" {
			desc = unknownAuthError
		}
		log.Error("PayU did not issue an access token",
			zap.Int("http_status", resp.StatusCode),
			zap.String("error", res.Error),
			zap.String("error_description", desc),
		)
		return accessToken{}, &payment.AuthError{Provider: gatewayName, Description: desc}
	}

	timer.ObserveResult(metrics.ResultSuccess)

	tok := accessToken{value: res.AccessToken}
	if res.ExpiresIn > 0 {
		tok.expiresAt = now.Add(time.Duration(res.ExpiresIn) * time.Second)
	}

	log.Info("PayU access token obtained",
		zap.Int64("expires_in", res.ExpiresIn),
		zap.Duration("auth_duration", timer.Duration()),
	)
	return tok, nil
}
