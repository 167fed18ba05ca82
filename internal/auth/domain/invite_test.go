package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestInviteCodeExpiry(t *testing.T) {
	t.Parallel()

	now := testNow()

	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	expired := InviteCode{Active: true, MaxUses: 5, ExpiresAt: &past}
	require.False(t, expired.Usable(now))

	live := InviteCode{Active: true, MaxUses: 5, ExpiresAt: &future}
	require.True(t, live.Usable(now))

	// Expiry exactly at now counts as expired.
	boundary := InviteCode{Active: true, MaxUses: 5, ExpiresAt: &now}
	require.False(t, boundary.Usable(now))

	noExpiry := InviteCode{Active: true, MaxUses: 5}
	require.True(t, noExpiry.Usable(now))
}

func TestSessionValidBasic(t *testing.T) {
	t.Parallel()

	now := testNow()

	require.True(t, Session{ExpiresAt: now.Add(time.Second)}.Valid(now))
	require.False(t, Session{ExpiresAt: now}.Valid(now))
	require.False(t, Session{ExpiresAt: now.Add(-time.Second)}.Valid(now))
}

func TestUserDisplayName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	require.Equal(t, "Ada", User{FirstName: "Ada"}.DisplayName())
	require.Equal(t, "Lovelace", User{LastName: "Lovelace"}.DisplayName())
	require.Equal(t, "ada@example.com", User{Email: "ada@example.com"}.DisplayName())
}
