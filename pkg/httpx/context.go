package httpx

import "context"

type ctxKey string

// CtxKeyUserID carries the authenticated user's ID. The auth middleware sets
// it; rate limiting and handlers read it.
const CtxKeyUserID ctxKey = "user_id"

// UserIDFromContext returns the authenticated user ID, or "" when the request
// is unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}
