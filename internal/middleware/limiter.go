package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"payu-adapter/internal/logger"
	"payu-adapter/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Payment initiation (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// Gateway notifications, one bucket per provider. PayU sends every
	// merchant's notifications from a handful of addresses.
	limitNotify = rate.Limit(50)
	burstNotify = 100

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

const (
	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex
)

func init() {
	go cleanupVisitors()
}

// getVisitor retrieves or creates a rate limiter for the given key.
func getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func cleanupVisitors() {
	for {
		time.Sleep(cleanupInterval)
		evictStale(time.Now())
	}
}

func evictStale(now time.Time) {
	mu.Lock()
	defer mu.Unlock()

	for key, v := range visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(visitors, key)
		}
	}
}

// RateLimitMiddleware checks if the request is allowed by the rate limiter.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := resolveRateTier(r)

		// Notifications are limited per provider, authenticated clients per
		// client, everyone else per IP
		var identity string
		if provider, ok := notifyProvider(r); ok {
			identity = "provider:" + provider
		} else if clientID, ok := utils.GetClientIDFromContext(r.Context()); ok {
			identity = "client:" + clientID
		} else {
			identity = "ip:" + utils.ClientIP(r)
		}

		// Separate buckets per tier, e.g. "ip:1.2.3.4:strict"
		key := fmt.Sprintf("%s:%s", identity, tier)

		limiter := getVisitor(key, limit, burst)
		if !limiter.Allow() {
			logger.FromCtx(r.Context()).Warn("rate limit exceeded",
				zap.String("key", key),
				zap.String("path", r.URL.Path),
			)
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveRateTier determines which rate limit policy applies to the request.
func resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	if _, ok := notifyProvider(r); ok {
		return limitNotify, burstNotify, "notify"
	}
	if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/payments/") {
		return limitStrict, burstStrict, "strict"
	}

	return limitGeneral, burstGeneral, "general"
}

// notifyProvider reports the provider of a POST /payments/{provider}/notify
// request.
func notifyProvider(r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		return "", false
	}
	rest, ok := strings.CutPrefix(r.URL.Path, "/payments/")
	if !ok {
		return "", false
	}
	provider, ok := strings.CutSuffix(rest, "/notify")
	if !ok || provider == "" || strings.Contains(provider, "/") {
		return "", false
	}
	return strings.ToLower(provider), true
}
