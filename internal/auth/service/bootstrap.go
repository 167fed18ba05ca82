package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/store"
	"github.com/openfab/gatekeeper/pkg/cryptox"
	"github.com/openfab/gatekeeper/pkg/idx"
	"github.com/openfab/gatekeeper/pkg/slogx"
)

// BootstrapService creates the very first admin account on an empty database.
// Invites need an admin to mint them, so a fresh deployment has no other way
// in. The operation is guarded by a deploy-time shared token and refuses to
// run once any user exists.
type BootstrapService struct {
	Store store.Store

	// Token is the deploy-time bootstrap secret. Empty disables bootstrap
	// entirely.
	Token string
}

// Bootstrap creates the initial admin. The emptiness check runs inside the
// same transaction as the insert, so two racing bootstrap calls cannot both
// succeed.
func (s *BootstrapService) Bootstrap(ctx context.Context, providedToken, email, password, firstName, lastName string) (domain.User, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	if s.Token == "" {
		return domain.User{}, ErrBootstrapToken
	}
	if subtle.ConstantTimeCompare([]byte(providedToken), []byte(s.Token)) != 1 {
		l.Warn("bootstrap rejected", slog.String("reason", "bad_token"))
		return domain.User{}, ErrBootstrapToken
	}
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidLogin
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	var user domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapped
		}

		user = domain.User{
			ID:           idx.New().String(),
			Email:        email,
			PasswordHash: passwordHash,
			Role:         domain.RoleAdmin,
			Active:       true,
			FirstName:    firstName,
			LastName:     lastName,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrBootstrapped
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	l.Info("bootstrap admin created", slog.String("user_id", user.ID))
	return user, nil
}
