package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	providerKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithProvider tags ctx with the payment provider serving the request, so
// gateway calls made further down log it without passing it along.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, providerKey, provider)
}

func ProviderFrom(ctx context.Context) string {
	p, _ := ctx.Value(providerKey).(string)
	return p
}

// FromCtx returns the global logger with the request_id and provider
// carried by ctx.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if id := RequestIDFrom(ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if p := ProviderFrom(ctx); p != "" {
		l = l.With(zap.String("provider", p))
	}
	return l
}
