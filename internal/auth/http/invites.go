package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/pkg/gatesdk"
	"github.com/openfab/gatekeeper/pkg/httpx"
	"github.com/openfab/gatekeeper/pkg/metricx"
)

type InviteHandler struct {
	InviteService *service.InviteService
	Metrics       *metricx.Collector
}

// HandleMint godoc
//
//	@Summary		Mint Invite Endpoint
//	@Description	Create an invite code granting a role at signup. The plaintext code appears in this response exactly once. The granted role must not outrank the caller's own role.
//	@Tags			Invites
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.MintInviteRequest	true	"Role, max uses, optional expiry"
//	@Success		201		{object}	gatesdk.MintInviteResponse	"code and invite record"
//	@Failure		400		{object}	gatesdk.ErrorResponse		"error, error_description"
//	@Failure		403		{object}	gatesdk.ErrorResponse		"insufficient_role"
//	@Security		BearerAuth
//	@Router			/v1/invites [post].
func (h *InviteHandler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_credential", "authentication required")
		return
	}

	var req gatesdk.MintInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_role", "role is not recognised")
		return
	}
	// An invite must not grant more than its minter holds.
	if role.Rank() > id.Role.Rank() {
		httpx.WriteError(w, http.StatusForbidden, "insufficient_role", "cannot mint an invite for a higher role than your own")
		return
	}

	var expiresAt *time.Time
	if req.ExpiresInSec > 0 {
		t := time.Now().Add(time.Duration(req.ExpiresInSec) * time.Second)
		expiresAt = &t
	}

	code, invite, err := h.InviteService.Issue(ctx, id.UserID, role, req.MaxUses, expiresAt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordInviteIssued()
	}
	httpx.WriteJSON(w, http.StatusCreated, gatesdk.MintInviteResponse{
		Code:   code,
		Invite: toInviteResponse(invite),
	})
}

// HandleList godoc
//
//	@Summary		List Invites Endpoint
//	@Description	Return every invite code record, newest first, fingerprints only.
//	@Tags			Invites
//	@Produce		json
//	@Success		200	{array}		gatesdk.InviteResponse	"invite records"
//	@Failure		403	{object}	gatesdk.ErrorResponse	"insufficient_permission"
//	@Security		BearerAuth
//	@Router			/v1/invites [get].
func (h *InviteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	invites, err := h.InviteService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]gatesdk.InviteResponse, len(invites))
	for i, invite := range invites {
		out[i] = toInviteResponse(invite)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleRevoke godoc
//
//	@Summary		Revoke Invite Endpoint
//	@Description	Deactivate a code unconditionally, regardless of remaining uses.
//	@Tags			Invites
//	@Produce		json
//	@Param			code	path	string	true	"Plaintext invite code"
//	@Success		204		"code deactivated"
//	@Failure		401		{object}	gatesdk.ErrorResponse	"invite_code_invalid"
//	@Security		BearerAuth
//	@Router			/v1/invites/{code} [delete].
func (h *InviteHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := h.InviteService.Deactivate(r.Context(), r.PathValue("code")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
