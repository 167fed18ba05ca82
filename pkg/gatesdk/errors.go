package gatesdk

import "fmt"

// Stable reason codes shared by the server and this client.
const (
	ErrorCodeInvalidRequest         = "invalid_request"
	ErrorCodeInvalidCredentials     = "invalid_credentials"
	ErrorCodeMissingCredential      = "missing_credential"
	ErrorCodeInvalidCredential      = "invalid_credential"
	ErrorCodeSessionUnavailable     = "session_unavailable"
	ErrorCodeUserInactiveOrMissing  = "user_inactive_or_missing"
	ErrorCodeInsufficientPermission = "insufficient_permission"
	ErrorCodeInsufficientRole       = "insufficient_role"
	ErrorCodeInviteInvalid          = "invite_code_invalid"
	ErrorCodeInviteExhausted        = "invite_code_exhausted"
	ErrorCodeEmailTaken             = "email_taken"
	ErrorCodeInvalidRole            = "invalid_role"
	ErrorCodeBootstrapped           = "already_bootstrapped"
	ErrorCodeBootstrapToken         = "invalid_bootstrap_token"
	ErrorCodeServerError            = "server_error"
)

// APIError is a non-2xx response decoded into an error value.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Code is the stable reason code from the body.
	Code string

	// Description is the human-readable message from the body.
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gatekeeper: %s (%d): %s", e.Code, e.StatusCode, e.Description)
}

// Is makes errors.Is match two APIErrors by reason code so callers can write
// errors.Is(err, &APIError{Code: ErrorCodeInviteExhausted}).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
