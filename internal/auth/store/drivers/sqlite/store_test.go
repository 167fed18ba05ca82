package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/store"
	"github.com/openfab/gatekeeper/pkg/cryptox"
	"github.com/openfab/gatekeeper/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, email string, role domain.Role) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         role,
		Active:       true,
		FirstName:    "Test",
		LastName:     "User",
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, s, "ada@example.com", domain.RoleMember)

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)
	require.Equal(t, domain.RoleMember, byID.Role)
	require.True(t, byID.Active)

	byEmail, err := s.Users().GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestEmailLookupIsCaseSensitive(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "Ada@example.com", domain.RoleMember)

	_, err := s.Users().GetUserByEmail(ctx, "ada@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDuplicateEmailRejected(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "ada@example.com", domain.RoleMember)

	err := s.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Email:        "ada@example.com",
		PasswordHash: "x",
		Role:         domain.RoleMember,
		Active:       true,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUserMutations(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "ada@example.com", domain.RoleMember)

	require.NoError(t, s.Users().UpdateUserRole(ctx, u.ID, domain.RoleStaff))
	require.NoError(t, s.Users().UpdateUserName(ctx, u.ID, "Grace", "Hopper"))
	require.NoError(t, s.Users().DeactivateUser(ctx, u.ID))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleStaff, got.Role)
	require.Equal(t, "Grace", got.FirstName)
	require.False(t, got.Active)

	// Mutations on unknown users surface as not found.
	require.ErrorIs(t, s.Users().UpdateUserRole(ctx, "nope", domain.RoleAdmin), store.ErrNotFound)
}

func TestFindValidSession(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, s, "ada@example.com", domain.RoleMember)
	hash := cryptox.FingerprintToken("some-token")

	require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(time.Hour),
	}))

	got, err := s.Sessions().FindValidSession(ctx, u.ID, hash, now)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)

	t.Run("wrong token hash", func(t *testing.T) {
		_, err := s.Sessions().FindValidSession(ctx, u.ID, cryptox.FingerprintToken("other"), now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("wrong user", func(t *testing.T) {
		_, err := s.Sessions().FindValidSession(ctx, idx.New().String(), hash, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expired session never returned even on exact match", func(t *testing.T) {
		_, err := s.Sessions().FindValidSession(ctx, u.ID, hash, now.Add(2*time.Hour))
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

// Expiry must hold regardless of the zone the process clock reports in.
// Stored timestamps are text, so an un-normalised offset would make the
// driver's comparisons lexicographic instead of temporal.
func TestExpiryHonoursNonUTCOffsets(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	east := time.FixedZone("UTC+10", 10*60*60)
	west := time.FixedZone("UTC-7", -7*60*60)
	now := time.Now().In(east)

	u := seedUser(t, s, "ada@example.com", domain.RoleMember)

	t.Run("expired session in a positive-offset zone", func(t *testing.T) {
		hash := cryptox.FingerprintToken("stale")
		require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: hash,
			ExpiresAt: now.Add(-time.Hour),
		}))

		_, err := s.Sessions().FindValidSession(ctx, u.ID, hash, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("live session in a negative-offset zone", func(t *testing.T) {
		hash := cryptox.FingerprintToken("fresh")
		require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: hash,
			ExpiresAt: now.In(west).Add(time.Hour),
		}))

		got, err := s.Sessions().FindValidSession(ctx, u.ID, hash, now.In(west))
		require.NoError(t, err)
		require.Equal(t, u.ID, got.UserID)
	})

	t.Run("expired invite in a positive-offset zone", func(t *testing.T) {
		past := now.Add(-time.Hour)
		_, inv := seedInvite(t, s, 5, &past)

		require.ErrorIs(t, s.InviteCodes().ConsumeInviteCode(ctx, inv.CodeHash, now), store.ErrNotFound)
	})
}

func TestDeleteExpiredSessions(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, s, "ada@example.com", domain.RoleMember)

	liveHash := cryptox.FingerprintToken("live")
	deadHash := cryptox.FingerprintToken("dead")

	require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
		ID: idx.New().String(), UserID: u.ID, TokenHash: liveHash, ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
		ID: idx.New().String(), UserID: u.ID, TokenHash: deadHash, ExpiresAt: now.Add(-time.Hour),
	}))

	require.NoError(t, s.Sessions().DeleteExpiredSessions(ctx, now))

	_, err := s.Sessions().FindValidSession(ctx, u.ID, liveHash, now)
	require.NoError(t, err)
	_, err = s.Sessions().FindValidSession(ctx, u.ID, deadHash, now)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUserSessionsExcept(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, s, "ada@example.com", domain.RoleMember)

	keep := cryptox.FingerprintToken("keep")
	drop := cryptox.FingerprintToken("drop")
	for _, h := range []string{keep, drop} {
		require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
			ID: idx.New().String(), UserID: u.ID, TokenHash: h, ExpiresAt: now.Add(time.Hour),
		}))
	}

	require.NoError(t, s.Sessions().DeleteUserSessionsExcept(ctx, u.ID, keep))

	_, err := s.Sessions().FindValidSession(ctx, u.ID, keep, now)
	require.NoError(t, err)
	_, err = s.Sessions().FindValidSession(ctx, u.ID, drop, now)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func seedInvite(t *testing.T, s *Store, maxUses int, expiresAt *time.Time) (string, domain.InviteCode) {
	t.Helper()

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)

	inv := domain.InviteCode{
		ID:        idx.New().String(),
		CodeHash:  cryptox.FingerprintToken(code),
		Role:      domain.RoleMember,
		MaxUses:   maxUses,
		ExpiresAt: expiresAt,
		CreatedBy: idx.New().String(),
		Active:    true,
	}
	require.NoError(t, s.InviteCodes().CreateInviteCode(context.Background(), inv))
	return code, inv
}

func TestConsumeInviteCodeFlipsActiveAtLimit(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, inv := seedInvite(t, s, 2, nil)

	require.NoError(t, s.InviteCodes().ConsumeInviteCode(ctx, inv.CodeHash, now))

	mid, err := s.InviteCodes().GetInviteCodeByHash(ctx, inv.CodeHash)
	require.NoError(t, err)
	require.Equal(t, 1, mid.CurrentUses)
	require.True(t, mid.Active)

	require.NoError(t, s.InviteCodes().ConsumeInviteCode(ctx, inv.CodeHash, now))

	done, err := s.InviteCodes().GetInviteCodeByHash(ctx, inv.CodeHash)
	require.NoError(t, err)
	require.Equal(t, 2, done.CurrentUses)
	require.False(t, done.Active, "active must flip off in the same update that reaches max uses")

	require.ErrorIs(t, s.InviteCodes().ConsumeInviteCode(ctx, inv.CodeHash, now), store.ErrNotFound)
}

func TestConsumeInviteCodeRejectsExpired(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)

	_, inv := seedInvite(t, s, 5, &past)

	require.ErrorIs(t, s.InviteCodes().ConsumeInviteCode(ctx, inv.CodeHash, now), store.ErrNotFound)
}

// Over-redemption race: a single-use code hammered by 50 concurrent consumers
// must be consumed exactly once.
func TestConsumeInviteCodeRace(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, inv := seedInvite(t, s, 1, nil)

	const attempts = 50

	var (
		wg        sync.WaitGroup
		successes int64
		mu        sync.Mutex
	)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.InviteCodes().ConsumeInviteCode(ctx, inv.CodeHash, now); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, successes)

	final, err := s.InviteCodes().GetInviteCodeByHash(ctx, inv.CodeHash)
	require.NoError(t, err)
	require.Equal(t, 1, final.CurrentUses)
	require.False(t, final.Active)
}

func TestDeactivateInviteCode(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, inv := seedInvite(t, s, 5, nil)

	require.NoError(t, s.InviteCodes().DeactivateInviteCode(ctx, inv.CodeHash))

	got, err := s.InviteCodes().GetInviteCodeByHash(ctx, inv.CodeHash)
	require.NoError(t, err)
	require.False(t, got.Active)
	require.Equal(t, 0, got.CurrentUses, "deactivation ignores remaining uses")

	require.ErrorIs(t, s.InviteCodes().ConsumeInviteCode(ctx, inv.CodeHash, now), store.ErrNotFound)
}

func TestDeactivateExpiredInviteCodes(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	_, expired := seedInvite(t, s, 5, &past)
	_, live := seedInvite(t, s, 5, &future)
	_, forever := seedInvite(t, s, 5, nil)

	require.NoError(t, s.InviteCodes().DeactivateExpiredInviteCodes(ctx, now))

	got, err := s.InviteCodes().GetInviteCodeByHash(ctx, expired.CodeHash)
	require.NoError(t, err)
	require.False(t, got.Active)

	for _, h := range []string{live.CodeHash, forever.CodeHash} {
		got, err := s.InviteCodes().GetInviteCodeByHash(ctx, h)
		require.NoError(t, err)
		require.True(t, got.Active)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, domain.User{
			ID:           idx.New().String(),
			Email:        "ghost@example.com",
			PasswordHash: "x",
			Role:         domain.RoleMember,
			Active:       true,
		}); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.Users().GetUserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}
