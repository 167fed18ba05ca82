package http

import (
	"errors"
	"net/http"

	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/pkg/httpx"
	"github.com/openfab/gatekeeper/pkg/slogx"
)

type errorMapping struct {
	sentinel    error
	status      int
	code        string
	description string
}

var errorMappings = []errorMapping{
	{service.ErrInvalidLogin, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect"},
	{service.ErrMissingCredential, http.StatusUnauthorized, "missing_credential", "authentication required"},
	{service.ErrInvalidCredential, http.StatusUnauthorized, "invalid_credential", "token is invalid or expired"},
	{service.ErrUserInactiveOrMissing, http.StatusUnauthorized, "user_inactive_or_missing", "account is unavailable"},
	{service.ErrSessionUnavailable, http.StatusServiceUnavailable, "session_unavailable", "session store is unavailable"},
	{service.ErrCodeInvalid, http.StatusUnauthorized, "invite_code_invalid", "invite code is invalid or expired"},
	{service.ErrCodeExhausted, http.StatusUnauthorized, "invite_code_exhausted", "invite code has no uses left"},
	{service.ErrEmailTaken, http.StatusConflict, "email_taken", "email is already registered"},
	{service.ErrInvalidRole, http.StatusBadRequest, "invalid_role", "role is not recognised"},
	{service.ErrBootstrapped, http.StatusConflict, "already_bootstrapped", "system already has users"},
	{service.ErrBootstrapToken, http.StatusUnauthorized, "invalid_bootstrap_token", "bootstrap token is missing or wrong"},
}

// writeServiceError maps service sentinels to their stable wire codes. Only
// the taxonomy above reaches clients with detail; anything else is logged and
// collapsed to a generic server error so internals never leak.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			httpx.WriteError(w, m.status, m.code, m.description)
			return
		}
	}

	slogx.FromContext(r.Context()).Error("request failed unexpectedly", "error", err)
	httpx.WriteError(w, http.StatusInternalServerError, "server_error", "unexpected error")
}
