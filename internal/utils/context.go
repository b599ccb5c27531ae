package utils

import "context"

type contextKey string

const ClientIDKey contextKey = "client_id"

// SetClientContext stores the authenticated API client (the JWT subject).
func SetClientContext(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDKey, clientID)
}

func GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ClientIDKey).(string)
	return id, ok && id != ""
}
