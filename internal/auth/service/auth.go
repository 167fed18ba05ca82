package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/store"
	"github.com/openfab/gatekeeper/pkg/cryptox"
	"github.com/openfab/gatekeeper/pkg/idx"
	"github.com/openfab/gatekeeper/pkg/jwtx"
	"github.com/openfab/gatekeeper/pkg/slogx"
)

// dummyHash is a valid argon2id digest for a throwaway password. Login burns
// a verification against it when the email is unknown so the response time
// does not reveal whether the account exists.
const dummyHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// AuthService owns the credential lifecycle: issuing tokens at login,
// resolving tokens back to identities, and revoking sessions. A token is only
// accepted while a matching server-side session row exists, so revocation
// takes effect before the token's embedded expiry.
type AuthService struct {
	Store store.Store
	Codec *jwtx.Codec

	// SessionTTL bounds the server-side session row. Zero means match the
	// token TTL, which keeps the two expiries aligned.
	SessionTTL time.Duration
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return s.Codec.TTL()
}

// Login verifies an email/password pair and, on success, issues a signed
// token plus its backing session row. Every failure path returns the same
// ErrInvalidLogin so callers cannot probe which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Equalise timing with the found-user path.
			_ = cryptox.VerifyPassword(password, dummyHash)
			return "", domain.User{}, ErrInvalidLogin
		}
		return "", domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login rejected", slog.String("reason", "password_mismatch"))
			return "", domain.User{}, ErrInvalidLogin
		}
		return "", domain.User{}, err
	}

	if !user.Active {
		l.Info("login rejected", slog.String("reason", "user_inactive"), slog.String("user_id", user.ID))
		return "", domain.User{}, ErrInvalidLogin
	}

	token, err := s.Codec.Issue(user.ID, now)
	if err != nil {
		return "", domain.User{}, err
	}

	session := domain.Session{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(s.sessionTTL()),
		CreatedAt: now,
	}
	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return "", domain.User{}, err
	}

	l.Info("login succeeded", slog.String("user_id", user.ID))
	return token, user, nil
}

// Logout revokes the session backing the given token. Revoking an already
// revoked or unknown token is a no-op; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	err := s.Store.Sessions().DeleteSessionByTokenHash(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Authenticate resolves a bearer token to the caller's identity. The checks
// run in a fixed order and the first failure wins:
//
//  1. token signature, issuer and expiry (ErrInvalidCredential)
//  2. server-side session row (self-healed when absent, see below)
//  3. user exists and is active (ErrUserInactiveOrMissing)
//
// A cryptographically valid token whose session row is missing gets a fresh
// session created for it rather than being rejected. The token remains the
// source of truth for authenticity; the session row only exists to make
// revocation possible, so its absence is treated as recoverable state loss.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	if token == "" {
		return domain.Identity{}, ErrMissingCredential
	}

	userID, err := s.Codec.Verify(token, now)
	if err != nil {
		return domain.Identity{}, ErrInvalidCredential
	}

	tokenHash := cryptox.FingerprintToken(token)
	_, err = s.Store.Sessions().FindValidSession(ctx, userID, tokenHash, now)
	if errors.Is(err, store.ErrNotFound) {
		session := domain.Session{
			ID:        idx.New().String(),
			UserID:    userID,
			TokenHash: tokenHash,
			ExpiresAt: now.Add(s.sessionTTL()),
			CreatedAt: now,
		}
		if cerr := s.Store.Sessions().CreateSession(ctx, session); cerr != nil {
			l.Warn("session self-heal failed", slog.String("user_id", userID), slog.Any("error", cerr))
			return domain.Identity{}, ErrSessionUnavailable
		}
		l.Info("session self-healed", slog.String("user_id", userID))
	} else if err != nil {
		return domain.Identity{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrUserInactiveOrMissing
		}
		return domain.Identity{}, err
	}
	if !user.Active {
		return domain.Identity{}, ErrUserInactiveOrMissing
	}

	return domain.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Name:   user.DisplayName(),
	}, nil
}

// ChangePassword verifies the current password before swapping in the new
// hash, then revokes every session except the one performing the change.
// Other devices are forced to log in again with the new password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, currentToken string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserInactiveOrMissing
		}
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidLogin
		}
		return err
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	keepHash := cryptox.FingerprintToken(currentToken)
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateUserPasswordHash(ctx, userID, newHash); err != nil {
			return err
		}
		return tx.Sessions().DeleteUserSessionsExcept(ctx, userID, keepHash)
	})
}
