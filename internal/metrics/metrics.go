// Package metrics exposes the prometheus collectors shared by the payment
// adapters and HTTP handlers.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payu_gateway_requests_total",
		Help: "Outbound calls to the PayU REST API by operation and result.",
	}, []string{"operation", "result"})

	GatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payu_gateway_request_duration_seconds",
		Help:    "Latency of outbound calls to the PayU REST API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_notifications_total",
		Help: "Handled payment notifications by provider and resulting order state.",
	}, []string{"provider", "state"})
)

// Timer measures one outbound gateway call.
type Timer struct {
	operation string
	start     time.Time
}

func StartTimer(operation string) *Timer {
	return &Timer{operation: operation, start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveResult records the call latency and counts it under result.
func (t *Timer) ObserveResult(result string) {
	GatewayDuration.WithLabelValues(t.operation).Observe(t.Duration().Seconds())
	GatewayRequests.WithLabelValues(t.operation, result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
