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
	"github.com/openfab/gatekeeper/pkg/slogx"
)

// DefaultInviteMaxUses applies when the issuer does not specify a limit.
const DefaultInviteMaxUses = 1

// InviteService issues, validates and consumes signup codes. The plaintext
// code leaves this service exactly once, at issue time; every later operation
// works off the sha256 fingerprint.
type InviteService struct {
	Store store.Store
}

// Issue mints a high-entropy code granting the given role. A nil expiresAt
// means the code never expires on its own; it still dies when its uses run
// out or it is manually deactivated.
func (s *InviteService) Issue(ctx context.Context, createdBy string, role domain.Role, maxUses int, expiresAt *time.Time) (string, domain.InviteCode, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	if !role.Valid() {
		return "", domain.InviteCode{}, ErrInvalidRole
	}
	if maxUses <= 0 {
		maxUses = DefaultInviteMaxUses
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return "", domain.InviteCode{}, ErrCodeInvalid
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.InviteCode{}, err
	}

	invite := domain.InviteCode{
		ID:          idx.New().String(),
		CodeHash:    cryptox.FingerprintToken(code),
		Role:        role,
		MaxUses:     maxUses,
		CurrentUses: 0,
		ExpiresAt:   expiresAt,
		CreatedBy:   createdBy,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.InviteCodes().CreateInviteCode(ctx, invite); err != nil {
		return "", domain.InviteCode{}, err
	}

	l.Info("invite code issued",
		slog.String("invite_id", invite.ID),
		slog.String("role", role.String()),
		slog.Int("max_uses", maxUses),
	)
	return code, invite, nil
}

// Validate resolves a plaintext code to its record, re-checking all three
// usability conditions against the current row. The result is advisory only;
// consumption re-runs the checks atomically.
func (s *InviteService) Validate(ctx context.Context, code string) (domain.InviteCode, error) {
	invite, err := s.Store.InviteCodes().GetInviteCodeByHash(ctx, cryptox.FingerprintToken(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.InviteCode{}, ErrCodeInvalid
		}
		return domain.InviteCode{}, err
	}
	if invite.Usable(time.Now()) {
		return invite, nil
	}
	if invite.Exhausted() {
		return domain.InviteCode{}, ErrCodeExhausted
	}
	return domain.InviteCode{}, ErrCodeInvalid
}

// Consume burns one use of the code. The increment, the limit check and the
// active flip happen in a single guarded store update, so concurrent callers
// of a nearly spent code cannot over-redeem it. When the guarded update
// reports no match the code is re-read once to say why.
func (s *InviteService) Consume(ctx context.Context, code string) (domain.InviteCode, error) {
	return s.consume(ctx, s.Store, code)
}

func (s *InviteService) consume(ctx context.Context, st store.Store, code string) (domain.InviteCode, error) {
	now := time.Now()
	hash := cryptox.FingerprintToken(code)

	err := st.InviteCodes().ConsumeInviteCode(ctx, hash, now)
	if err == nil {
		invite, gerr := st.InviteCodes().GetInviteCodeByHash(ctx, hash)
		if gerr != nil {
			return domain.InviteCode{}, gerr
		}
		slogx.FromContext(ctx).Info("invite code consumed",
			slog.String("invite_id", invite.ID),
			slog.Int("current_uses", invite.CurrentUses),
		)
		return invite, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.InviteCode{}, err
	}

	// The guarded update matched nothing. Distinguish exhausted from plain
	// invalid for the caller's error message.
	invite, gerr := st.InviteCodes().GetInviteCodeByHash(ctx, hash)
	if gerr != nil {
		if errors.Is(gerr, store.ErrNotFound) {
			return domain.InviteCode{}, ErrCodeInvalid
		}
		return domain.InviteCode{}, gerr
	}
	if invite.Exhausted() {
		return domain.InviteCode{}, ErrCodeExhausted
	}
	return domain.InviteCode{}, ErrCodeInvalid
}

// Redeem runs the invite signup flow: consume the code and create the new
// user with the code's granted role, in one transaction. If user creation
// fails the consumed use rolls back with it.
func (s *InviteService) Redeem(ctx context.Context, code, email, password, firstName, lastName string) (domain.User, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	if email == "" || password == "" {
		return domain.User{}, ErrInvalidLogin
	}

	// Hash outside the transaction; argon2id is deliberately slow and must
	// not hold a write transaction open.
	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	var user domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		invite, err := s.consume(ctx, tx, code)
		if err != nil {
			return err
		}

		user = domain.User{
			ID:           idx.New().String(),
			Email:        email,
			PasswordHash: passwordHash,
			Role:         invite.Role,
			Active:       true,
			FirstName:    firstName,
			LastName:     lastName,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	l.Info("user signed up via invite",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role.String()),
	)
	return user, nil
}

// Deactivate revokes a code by its plaintext value regardless of remaining
// uses.
func (s *InviteService) Deactivate(ctx context.Context, code string) error {
	err := s.Store.InviteCodes().DeactivateInviteCode(ctx, cryptox.FingerprintToken(code))
	if errors.Is(err, store.ErrNotFound) {
		return ErrCodeInvalid
	}
	return err
}

// List returns every code, newest first, for the admin audit view.
func (s *InviteService) List(ctx context.Context) ([]domain.InviteCode, error) {
	return s.Store.InviteCodes().ListInviteCodes(ctx)
}
