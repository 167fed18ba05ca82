package service

import "errors"

// Failure taxonomy. Everything here is recovered at the request boundary and
// mapped to a stable client-facing reason; none of these should ever reach a
// panic or process exit.
var (
	// ErrMissingCredential: no bearer token on the request.
	ErrMissingCredential = errors.New("missing_credential")

	// ErrInvalidCredential: token failed signature, shape or expiry checks.
	ErrInvalidCredential = errors.New("invalid_credential")

	// ErrSessionUnavailable: the session store failed while self-healing a
	// missing session row.
	ErrSessionUnavailable = errors.New("session_unavailable")

	// ErrUserInactiveOrMissing: token was fine but the user is gone or
	// deactivated.
	ErrUserInactiveOrMissing = errors.New("user_inactive_or_missing")

	// ErrInvalidLogin: generic login failure. Deliberately covers unknown
	// email, wrong password and deactivated accounts so the response never
	// reveals which one it was.
	ErrInvalidLogin = errors.New("invalid_login")

	// ErrCodeInvalid: invite code unknown, deactivated or expired.
	ErrCodeInvalid = errors.New("invite_code_invalid")

	// ErrCodeExhausted: invite code specifically at its use limit. Distinct
	// from ErrCodeInvalid for user-facing messaging.
	ErrCodeExhausted = errors.New("invite_code_exhausted")

	// ErrEmailTaken: signup email already registered.
	ErrEmailTaken = errors.New("email_taken")

	// ErrInvalidRole: role string outside the closed set, or a request that
	// is not allowed for the target role.
	ErrInvalidRole = errors.New("invalid_role")

	// ErrBootstrapped: the system already has users; bootstrap refused.
	ErrBootstrapped = errors.New("already_bootstrapped")

	// ErrBootstrapToken: bootstrap token missing or wrong.
	ErrBootstrapToken = errors.New("invalid_bootstrap_token")
)
