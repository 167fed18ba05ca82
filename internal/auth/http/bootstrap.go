package http

import (
	"encoding/json"
	"net/http"

	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/pkg/gatesdk"
	"github.com/openfab/gatekeeper/pkg/httpx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP godoc
//
//	@Summary		Bootstrap Endpoint
//	@Description	Create the first admin account on an empty deployment. Guarded by the deploy-time X-Bootstrap-Token header and refused once any user exists.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string					true	"Deploy-time bootstrap secret"
//	@Param			request				body		gatesdk.BootstrapRequest	true	"Admin credentials"
//	@Success		201					{object}	gatesdk.UserResponse	"created admin"
//	@Failure		401					{object}	gatesdk.ErrorResponse	"invalid_bootstrap_token"
//	@Failure		409					{object}	gatesdk.ErrorResponse	"already_bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	user, err := h.BootstrapService.Bootstrap(
		r.Context(),
		r.Header.Get("X-Bootstrap-Token"),
		req.Email, req.Password, req.FirstName, req.LastName,
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}
