package http

import (
	"encoding/json"
	"net/http"

	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/pkg/gatesdk"
	"github.com/openfab/gatekeeper/pkg/httpx"
	"github.com/openfab/gatekeeper/pkg/metricx"
)

type SignupHandler struct {
	InviteService *service.InviteService
	Metrics       *metricx.Collector
}

// ServeHTTP godoc
//
//	@Summary		Signup Endpoint
//	@Description	Redeem an invite code for a new account. The code decides the granted role and the signup burns one of its uses atomically.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.SignupRequest	true	"Invite code and credentials"
//	@Success		201		{object}	gatesdk.UserResponse	"created user"
//	@Failure		400		{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	gatesdk.ErrorResponse	"invite_code_invalid or invite_code_exhausted"
//	@Failure		409		{object}	gatesdk.ErrorResponse	"email_taken"
//	@Router			/v1/signup [post].
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req gatesdk.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.InviteCode == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invite_code is required")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	user, err := h.InviteService.Redeem(ctx, req.InviteCode, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordInviteConsumed()
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}
