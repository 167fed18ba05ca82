package http

import (
	"net/http"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/pkg/httpx"
)

// Authorization guards. Each is a pure predicate over the identity attached
// by AuthnMiddleware; they mutate nothing and can be composed freely. A guard
// reached without an identity in context is a wiring bug and rejects as
// unauthenticated rather than panicking.

// RequirePermission allows the request only when the caller's role grants the
// permission. The admin wildcard satisfies every permission, including ones
// never enumerated anywhere.
func RequirePermission(p domain.Permission) httpx.Middleware {
	return guard(func(id domain.Identity) bool {
		return id.Role.Can(p)
	}, "insufficient_permission")
}

// RequireAnyPermission allows the request when any one of the permissions is
// granted.
func RequireAnyPermission(perms ...domain.Permission) httpx.Middleware {
	return guard(func(id domain.Identity) bool {
		for _, p := range perms {
			if id.Role.Can(p) {
				return true
			}
		}
		return false
	}, "insufficient_permission")
}

// RequireRole requires the caller's role to be exactly the given one.
func RequireRole(role domain.Role) httpx.Middleware {
	return guard(func(id domain.Identity) bool {
		return id.Role == role
	}, "insufficient_role")
}

// RequireAnyRole requires exact membership in the given set.
func RequireAnyRole(roles ...domain.Role) httpx.Middleware {
	return guard(func(id domain.Identity) bool {
		for _, role := range roles {
			if id.Role == role {
				return true
			}
		}
		return false
	}, "insufficient_role")
}

// RequireMinimumRank requires the caller's role rank to meet or exceed the
// given role's rank.
func RequireMinimumRank(role domain.Role) httpx.Middleware {
	return guard(func(id domain.Identity) bool {
		return id.Role.AtLeast(role)
	}, "insufficient_role")
}

func guard(allow func(domain.Identity) bool, reason string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "missing_credential", "authentication required")
				return
			}
			if !allow(id) {
				httpx.WriteError(w, http.StatusForbidden, reason, "you do not have access to this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
