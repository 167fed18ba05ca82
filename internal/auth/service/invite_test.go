package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/pkg/cryptox"
)

func newInviteService(t *testing.T) (*InviteService, *AuthService) {
	t.Helper()

	st := newTestStore(t)
	return &InviteService{Store: st}, &AuthService{Store: st, Codec: newTestCodec(t)}
}

func TestIssueReturnsPlaintextCodeOnce(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)
	ctx := context.Background()

	code, invite, err := svc.Issue(ctx, "creator-id", domain.RoleMember, 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, code)
	require.Equal(t, cryptox.FingerprintToken(code), invite.CodeHash)
	require.Equal(t, 3, invite.MaxUses)
	require.Zero(t, invite.CurrentUses)
	require.True(t, invite.Active)
	require.Nil(t, invite.ExpiresAt)

	// Only the fingerprint is persisted.
	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotEqual(t, code, listed[0].CodeHash)
}

func TestIssueValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)
	ctx := context.Background()

	t.Run("unknown role", func(t *testing.T) {
		_, _, err := svc.Issue(ctx, "creator-id", domain.Role("superuser"), 1, nil)
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("expiry in the past", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, _, err := svc.Issue(ctx, "creator-id", domain.RoleMember, 1, &past)
		require.ErrorIs(t, err, ErrCodeInvalid)
	})

	t.Run("zero max uses defaults to one", func(t *testing.T) {
		_, invite, err := svc.Issue(ctx, "creator-id", domain.RoleMember, 0, nil)
		require.NoError(t, err)
		require.Equal(t, DefaultInviteMaxUses, invite.MaxUses)
	})
}

func TestValidateRechecksEveryCall(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, "creator-id", domain.RoleStaff, 1, nil)
	require.NoError(t, err)

	// Valid now.
	invite, err := svc.Validate(ctx, code)
	require.NoError(t, err)
	require.Equal(t, domain.RoleStaff, invite.Role)

	// State changed between calls: the same code is now spent.
	_, err = svc.Consume(ctx, code)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, code)
	require.ErrorIs(t, err, ErrCodeExhausted)
}

func TestValidateUnknownCode(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)

	_, err := svc.Validate(context.Background(), "no-such-code")
	require.ErrorIs(t, err, ErrCodeInvalid)
}

func TestConsumeLifecycle(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, "creator-id", domain.RoleMember, 2, nil)
	require.NoError(t, err)

	first, err := svc.Consume(ctx, code)
	require.NoError(t, err)
	require.Equal(t, 1, first.CurrentUses)
	require.True(t, first.Active)

	second, err := svc.Consume(ctx, code)
	require.NoError(t, err)
	require.Equal(t, 2, second.CurrentUses)
	require.False(t, second.Active)

	_, err = svc.Consume(ctx, code)
	require.ErrorIs(t, err, ErrCodeExhausted)
}

func TestConsumeExpiredCode(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)
	ctx := context.Background()

	soon := time.Now().Add(30 * time.Millisecond)
	code, _, err := svc.Issue(ctx, "creator-id", domain.RoleMember, 5, &soon)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, err = svc.Consume(ctx, code)
	require.ErrorIs(t, err, ErrCodeInvalid)
}

func TestConsumeConcurrentSingleUse(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, "creator-id", domain.RoleMember, 1, nil)
	require.NoError(t, err)

	const callers = 50
	var successes atomic.Int32
	var wg sync.WaitGroup
	wg.Add(callers)
	for range callers {
		go func() {
			defer wg.Done()
			if _, err := svc.Consume(ctx, code); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, successes.Load())
}

func TestDeactivateBeatsRemainingUses(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, "creator-id", domain.RoleMember, 10, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, code))

	_, err = svc.Validate(ctx, code)
	require.ErrorIs(t, err, ErrCodeInvalid)
	_, err = svc.Consume(ctx, code)
	require.ErrorIs(t, err, ErrCodeInvalid)
}

func TestDeactivateUnknownCode(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)

	err := svc.Deactivate(context.Background(), "never-issued")
	require.ErrorIs(t, err, ErrCodeInvalid)
}

func TestRedeemCreatesUserWithGrantedRole(t *testing.T) {
	t.Parallel()
	svc, authSvc := newInviteService(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, "creator-id", domain.RoleStaff, 1, nil)
	require.NoError(t, err)

	user, err := svc.Redeem(ctx, code, "newbie@example.com", "newbie-password-1", "New", "Bee")
	require.NoError(t, err)
	require.Equal(t, domain.RoleStaff, user.Role)
	require.True(t, user.Active)

	// The new credentials work immediately.
	_, _, err = authSvc.Login(ctx, "newbie@example.com", "newbie-password-1")
	require.NoError(t, err)

	// And the single use is spent.
	_, err = svc.Validate(ctx, code)
	require.ErrorIs(t, err, ErrCodeExhausted)
}

func TestRedeemDuplicateEmailRollsBackConsumption(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, "creator-id", domain.RoleMember, 1, nil)
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, code, "taken@example.com", "password-number-1", "", "")
	require.NoError(t, err)

	code2, _, err := svc.Issue(ctx, "creator-id", domain.RoleMember, 1, nil)
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, code2, "taken@example.com", "password-number-2", "", "")
	require.ErrorIs(t, err, ErrEmailTaken)

	// The failed signup did not burn the code.
	invite, err := svc.Validate(ctx, code2)
	require.NoError(t, err)
	require.Zero(t, invite.CurrentUses)
}

func TestRedeemInvalidCode(t *testing.T) {
	t.Parallel()
	svc, _ := newInviteService(t)

	_, err := svc.Redeem(context.Background(), "bogus", "x@example.com", "password-123456", "", "")
	require.ErrorIs(t, err, ErrCodeInvalid)
}
