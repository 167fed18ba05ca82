package http

import (
	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/pkg/gatesdk"
)

func toUserResponse(u domain.User) gatesdk.UserResponse {
	return gatesdk.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role.String(),
		Active:    u.Active,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toInviteResponse(c domain.InviteCode) gatesdk.InviteResponse {
	return gatesdk.InviteResponse{
		ID:          c.ID,
		Role:        c.Role.String(),
		MaxUses:     c.MaxUses,
		CurrentUses: c.CurrentUses,
		ExpiresAt:   c.ExpiresAt,
		CreatedBy:   c.CreatedBy,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
	}
}

func toPermissionStrings(perms []domain.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
