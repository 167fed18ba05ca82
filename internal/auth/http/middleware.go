package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/pkg/httpx"
	"github.com/openfab/gatekeeper/pkg/metricx"
	"github.com/openfab/gatekeeper/pkg/slogx"
)

type ctxKey string

// ctxKeyIdentity carries the resolved domain.Identity for guard checks.
const ctxKeyIdentity ctxKey = "identity"

// IdentityFromContext returns the authenticated identity. The second return
// is false on unauthenticated requests, which downstream of AuthnMiddleware
// means a middleware ordering bug.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(domain.Identity)
	return id, ok
}

// BearerToken extracts the token from the Authorization header. Empty when
// the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthnMiddleware resolves the bearer token to an identity and attaches it to
// the request context. Every rejection is a stable reason code; the pipeline
// order (token, session, user) is fixed and the first failure wins.
func AuthnMiddleware(auth *service.AuthService, metrics *metricx.Collector) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			identity, err := auth.Authenticate(ctx, BearerToken(r))
			if err != nil {
				rejectAuthn(w, r, err, metrics)
				return
			}

			ctx = context.WithValue(ctx, ctxKeyIdentity, identity)
			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, identity.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectAuthn(w http.ResponseWriter, r *http.Request, err error, metrics *metricx.Collector) {
	var code int
	var reason string

	switch {
	case errors.Is(err, service.ErrMissingCredential):
		code, reason = http.StatusUnauthorized, "missing_credential"
	case errors.Is(err, service.ErrInvalidCredential):
		code, reason = http.StatusUnauthorized, "invalid_credential"
	case errors.Is(err, service.ErrUserInactiveOrMissing):
		code, reason = http.StatusUnauthorized, "user_inactive_or_missing"
	case errors.Is(err, service.ErrSessionUnavailable):
		code, reason = http.StatusServiceUnavailable, "session_unavailable"
	default:
		slogx.FromContext(r.Context()).Error("authentication failed unexpectedly", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "unexpected error")
		return
	}

	if metrics != nil {
		metrics.RecordAuthnRejection(reason)
	}
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="gatekeeper"`)
	}
	httpx.WriteError(w, code, reason, "authentication failed")
}
