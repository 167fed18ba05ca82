package http

import (
	"encoding/json"
	"net/http"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/pkg/gatesdk"
	"github.com/openfab/gatekeeper/pkg/httpx"
)

type UsersHandler struct {
	UserService *service.UserService
}

// HandleList godoc
//
//	@Summary		List Users Endpoint
//	@Description	Return every user record, newest first.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{array}		gatesdk.UserResponse	"user records"
//	@Failure		403	{object}	gatesdk.ErrorResponse	"insufficient_permission"
//	@Security		BearerAuth
//	@Router			/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]gatesdk.UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleChangeRole godoc
//
//	@Summary		Change Role Endpoint
//	@Description	Move a user to another role in the closed set. The change takes effect on the target's next authenticated request.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"User ID"
//	@Param			request	body		gatesdk.ChangeRoleRequest	true	"New role"
//	@Success		200		{object}	gatesdk.UserResponse	"updated user"
//	@Failure		400		{object}	gatesdk.ErrorResponse	"invalid_role"
//	@Failure		401		{object}	gatesdk.ErrorResponse	"user_inactive_or_missing"
//	@Security		BearerAuth
//	@Router			/v1/users/{id}/role [patch].
func (h *UsersHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.UserService.ChangeRole(r.Context(), r.PathValue("id"), domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleDeactivate godoc
//
//	@Summary		Deactivate User Endpoint
//	@Description	Permanently disable an account and drop its sessions. Terminal; the record stays for audit. Deactivating yourself is refused.
//	@Tags			Users
//	@Produce		json
//	@Param			id	path	string	true	"User ID"
//	@Success		204	"user deactivated"
//	@Failure		400	{object}	gatesdk.ErrorResponse	"invalid_request"
//	@Failure		401	{object}	gatesdk.ErrorResponse	"user_inactive_or_missing"
//	@Security		BearerAuth
//	@Router			/v1/users/{id} [delete].
func (h *UsersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	targetID := r.PathValue("id")

	if id, ok := IdentityFromContext(ctx); ok && id.UserID == targetID {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "cannot deactivate your own account")
		return
	}

	if err := h.UserService.Deactivate(ctx, targetID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
