package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/pkg/gatesdk"
	"github.com/openfab/gatekeeper/pkg/httpx"
	"github.com/openfab/gatekeeper/pkg/metricx"
)

type LoginHandler struct {
	AuthService *service.AuthService
	Metrics     *metricx.Collector
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Exchange an email/password pair for a bearer token. The response never distinguishes unknown emails from wrong passwords.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	gatesdk.LoginResponse	"access_token, token_type, expires_in, user"
//	@Failure		400		{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req gatesdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	token, user, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if h.Metrics != nil && errors.Is(err, service.ErrInvalidLogin) {
			h.Metrics.RecordLogin("failure")
		}
		writeServiceError(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordLogin("success")
	}
	httpx.WriteJSON(w, http.StatusOK, gatesdk.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.AuthService.Codec.TTL().Seconds()),
		User:        toUserResponse(user),
	})
}

type LogoutHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Logout Endpoint
//	@Description	Revoke the session backing the presented token. Idempotent.
//	@Tags			Auth
//	@Produce		json
//	@Success		204	"session revoked"
//	@Failure		401	{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), BearerToken(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
