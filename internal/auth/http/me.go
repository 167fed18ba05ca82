package http

import (
	"encoding/json"
	"net/http"

	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/pkg/gatesdk"
	"github.com/openfab/gatekeeper/pkg/httpx"
)

type MeHandler struct {
	AuthService *service.AuthService
	UserService *service.UserService
}

// HandleGet godoc
//
//	@Summary		Current User Endpoint
//	@Description	Return the authenticated user's profile and resolved permission set.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	gatesdk.MeResponse		"profile plus permissions"
//	@Failure		401	{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/me [get].
func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_credential", "authentication required")
		return
	}

	user, err := h.UserService.GetUserByID(ctx, id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.MeResponse{
		UserResponse: toUserResponse(user),
		Permissions:  toPermissionStrings(id.Role.Permissions()),
	})
}

// HandlePatch godoc
//
//	@Summary		Update Profile Endpoint
//	@Description	Update the authenticated user's display names. Email and role are not self-serviceable.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.UpdateProfileRequest	true	"New display names"
//	@Success		200		{object}	gatesdk.UserResponse			"updated profile"
//	@Failure		401		{object}	gatesdk.ErrorResponse			"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/me [patch].
func (h *MeHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_credential", "authentication required")
		return
	}

	var req gatesdk.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.UserService.UpdateProfile(ctx, id.UserID, req.FirstName, req.LastName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleChangePassword godoc
//
//	@Summary		Change Password Endpoint
//	@Description	Rotate the password after verifying the current one. Every other session is revoked; only the session making this call survives.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body	gatesdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		204		"password changed"
//	@Failure		401		{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/me/password [post].
func (h *MeHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_credential", "authentication required")
		return
	}

	var req gatesdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "current_password and new_password are required")
		return
	}

	err := h.AuthService.ChangePassword(ctx, id.UserID, req.CurrentPassword, req.NewPassword, BearerToken(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
