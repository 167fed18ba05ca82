// Package gatesdk is a small Go client for the gatekeeper HTTP API. It also
// owns the request/response wire types so the server handlers and consumers
// share one definition.
package gatesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to one gatekeeper instance. The zero value is not usable;
// construct with NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/v1/login", "", LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup redeems an invite code for a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*UserResponse, error) {
	var out UserResponse
	if err := c.do(ctx, http.MethodPost, "/v1/signup", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bootstrap creates the first admin on an empty deployment.
func (c *Client) Bootstrap(ctx context.Context, bootstrapToken string, req BootstrapRequest) (*UserResponse, error) {
	var out UserResponse
	err := c.doWithHeaders(ctx, http.MethodPost, "/v1/bootstrap", "", req, &out,
		map[string]string{"X-Bootstrap-Token": bootstrapToken})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Session is an authenticated view of the client bound to one bearer token.
func (c *Client) Session(token string) *Session {
	return &Session{client: c, token: token}
}

// Session wraps Client with a bearer token attached to every request.
type Session struct {
	client *Client
	token  string
}

// Token returns the session's raw bearer token.
func (s *Session) Token() string { return s.token }

// Me fetches the caller's profile plus resolved permissions.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := s.client.do(ctx, http.MethodGet, "/v1/me", s.token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the session server-side.
func (s *Session) Logout(ctx context.Context) error {
	return s.client.do(ctx, http.MethodPost, "/v1/logout", s.token, nil, nil)
}

// UpdateProfile changes the caller's display names.
func (s *Session) UpdateProfile(ctx context.Context, firstName, lastName string) (*UserResponse, error) {
	var out UserResponse
	req := UpdateProfileRequest{FirstName: firstName, LastName: lastName}
	if err := s.client.do(ctx, http.MethodPatch, "/v1/me", s.token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword rotates the caller's password, revoking all other sessions.
func (s *Session) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	req := ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	return s.client.do(ctx, http.MethodPost, "/v1/me/password", s.token, req, nil)
}

// MintInvite creates an invite code. Needs the manage_invites permission.
func (s *Session) MintInvite(ctx context.Context, req MintInviteRequest) (*MintInviteResponse, error) {
	var out MintInviteResponse
	if err := s.client.do(ctx, http.MethodPost, "/v1/invites", s.token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInvites returns every invite code record, newest first.
func (s *Session) ListInvites(ctx context.Context) ([]InviteResponse, error) {
	var out []InviteResponse
	if err := s.client.do(ctx, http.MethodGet, "/v1/invites", s.token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RevokeInvite deactivates a code regardless of remaining uses.
func (s *Session) RevokeInvite(ctx context.Context, code string) error {
	return s.client.do(ctx, http.MethodDelete, "/v1/invites/"+code, s.token, nil, nil)
}

// ListUsers returns every user. Needs the manage_users permission.
func (s *Session) ListUsers(ctx context.Context) ([]UserResponse, error) {
	var out []UserResponse
	if err := s.client.do(ctx, http.MethodGet, "/v1/users", s.token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChangeUserRole moves a user to another role.
func (s *Session) ChangeUserRole(ctx context.Context, userID, role string) (*UserResponse, error) {
	var out UserResponse
	req := ChangeRoleRequest{Role: role}
	if err := s.client.do(ctx, http.MethodPatch, "/v1/users/"+userID+"/role", s.token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateUser permanently disables an account.
func (s *Session) DeactivateUser(ctx context.Context, userID string) error {
	return s.client.do(ctx, http.MethodDelete, "/v1/users/"+userID, s.token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	return c.doWithHeaders(ctx, method, path, token, body, out, nil)
}

func (c *Client) doWithHeaders(ctx context.Context, method, path, token string, body, out any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gatesdk: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeServerError,
			Description: resp.Status,
		}
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        body.Error,
		Description: body.ErrorDescription,
	}
}
