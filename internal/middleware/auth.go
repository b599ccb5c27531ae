package middleware

import (
	"context"
	"net/http"

	"payu-adapter/internal/auth"
	"payu-adapter/internal/logger"
	"payu-adapter/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const TokenClaimsKey contextKey = "jwtClaims"

// RequireAuth rejects requests that do not carry a valid JWT signed with
// secret. The token subject becomes the client id of the request.
func RequireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := auth.ParseToken(auth.ExtractAccessToken(r), secret)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("unauthorized request",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), TokenClaimsKey, claims)
			ctx = utils.SetClientContext(ctx, auth.Subject(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(TokenClaimsKey).(jwt.MapClaims)
	return claims, ok
}
