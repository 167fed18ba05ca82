package gatesdk

import "time"

// ErrorResponse is the wire shape of every non-2xx response.
type ErrorResponse struct {
	// Error is the stable machine-checkable reason code.
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string `json:"error_description"`
}

// LoginRequest is the POST /v1/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token and the authenticated user.
type LoginResponse struct {
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`

	User UserResponse `json:"user"`
}

// UserResponse is the public view of a user record. The password hash never
// leaves the server.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MeResponse is UserResponse plus the caller's resolved permission set.
type MeResponse struct {
	UserResponse
	Permissions []string `json:"permissions"`
}

// SignupRequest is the POST /v1/signup body. The invite code decides the
// granted role.
type SignupRequest struct {
	InviteCode string `json:"invite_code"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

// UpdateProfileRequest is the PATCH /v1/me body.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ChangePasswordRequest is the POST /v1/me/password body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// MintInviteRequest is the POST /v1/invites body.
type MintInviteRequest struct {
	// Role granted at signup. Must not outrank the minter's own role.
	Role string `json:"role"`

	// MaxUses defaults to 1 when omitted or zero.
	MaxUses int `json:"max_uses,omitempty"`

	// ExpiresInSec makes the code time-limited; zero means no expiry.
	ExpiresInSec int `json:"expires_in_sec,omitempty"`
}

// MintInviteResponse returns the plaintext code. This is the only time the
// code is ever visible; the server keeps just a fingerprint.
type MintInviteResponse struct {
	Code   string         `json:"code"`
	Invite InviteResponse `json:"invite"`
}

// InviteResponse is the audit view of an invite code.
type InviteResponse struct {
	ID          string     `json:"id"`
	Role        string     `json:"role"`
	MaxUses     int        `json:"max_uses"`
	CurrentUses int        `json:"current_uses"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedBy   string     `json:"created_by"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ChangeRoleRequest is the PATCH /v1/users/{id}/role body.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// BootstrapRequest is the POST /v1/bootstrap body. The bootstrap token
// travels in the X-Bootstrap-Token header, not the body.
type BootstrapRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}
