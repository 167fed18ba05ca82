package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/store"
	"github.com/openfab/gatekeeper/pkg/slogx"
)

// UserService covers profile self-service and the admin user operations.
type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id, active or not.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserInactiveOrMissing
	}
	return user, err
}

// ListUsers returns every user, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// UpdateProfile changes the display names. Email and role are not
// self-serviceable.
func (s *UserService) UpdateProfile(ctx context.Context, userID, firstName, lastName string) (domain.User, error) {
	if err := s.Store.Users().UpdateUserName(ctx, userID, firstName, lastName); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserInactiveOrMissing
		}
		return domain.User{}, err
	}
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ChangeRole moves a user to another role in the closed set. Takes effect on
// the user's very next authenticated request since permissions are resolved
// from the stored role, never from the token.
func (s *UserService) ChangeRole(ctx context.Context, userID string, role domain.Role) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, ErrInvalidRole
	}
	if err := s.Store.Users().UpdateUserRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserInactiveOrMissing
		}
		return domain.User{}, err
	}
	slogx.FromContext(ctx).Info("user role changed",
		slog.String("user_id", userID),
		slog.String("role", role.String()),
	)
	return s.Store.Users().GetUserByID(ctx, userID)
}

// Deactivate flips the user's active flag off and drops all their sessions.
// Deactivation is terminal; the row stays for audit but no token for this
// user will ever validate again.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().DeactivateUser(ctx, userID); err != nil {
			return err
		}
		// Drop every session; the empty keep-hash matches no row.
		return tx.Sessions().DeleteUserSessionsExcept(ctx, userID, "")
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserInactiveOrMissing
	}
	if err == nil {
		slogx.FromContext(ctx).Info("user deactivated", slog.String("user_id", userID))
	}
	return err
}
