package gatekeeper_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfab/gatekeeper/pkg/gatesdk"
)

func TestBootstrapThenLogin(t *testing.T) {
	t.Parallel()
	client := gatesdk.NewClient(setupServer(t))
	ctx := context.Background()

	admin := bootstrapAdmin(t, client)

	me, err := admin.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, adminEmail, me.Email)
	require.Equal(t, "admin", me.Role)
	require.Equal(t, []string{"*"}, me.Permissions)

	// A second bootstrap is refused.
	_, err = client.Bootstrap(ctx, bootstrapToken, gatesdk.BootstrapRequest{
		Email:    "other@example.com",
		Password: "other-password-1",
	})
	requireAPIError(t, err, gatesdk.ErrorCodeBootstrapped)

	// As is a bootstrap with a bad token on a fresh instance.
	fresh := gatesdk.NewClient(setupServer(t))
	_, err = fresh.Bootstrap(ctx, "wrong-token", gatesdk.BootstrapRequest{
		Email:    "root@example.com",
		Password: "root-password-12",
	})
	requireAPIError(t, err, gatesdk.ErrorCodeBootstrapToken)
}

func TestSignupFlowGrantsInviteRole(t *testing.T) {
	t.Parallel()
	client := gatesdk.NewClient(setupServer(t))
	ctx := context.Background()

	admin := bootstrapAdmin(t, client)
	staff := signupViaInvite(t, client, admin, "staff", "staff@example.com", "staff-password-1")

	me, err := staff.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "staff", me.Role)
	require.Contains(t, me.Permissions, "manage_invites")
	require.NotContains(t, me.Permissions, "manage_users")
	require.NotContains(t, me.Permissions, "*")
}

func TestSignupRejectsBadCodes(t *testing.T) {
	t.Parallel()
	client := gatesdk.NewClient(setupServer(t))
	ctx := context.Background()

	bootstrapAdmin(t, client)

	_, err := client.Signup(ctx, gatesdk.SignupRequest{
		InviteCode: "never-issued",
		Email:      "x@example.com",
		Password:   "x-password-12345",
	})
	requireAPIError(t, err, gatesdk.ErrorCodeInviteInvalid)
}

func TestSignupDuplicateEmail(t *testing.T) {
	t.Parallel()
	client := gatesdk.NewClient(setupServer(t))
	ctx := context.Background()

	admin := bootstrapAdmin(t, client)
	signupViaInvite(t, client, admin, "member", "dupe@example.com", "dupe-password-12")

	mint, err := admin.MintInvite(ctx, gatesdk.MintInviteRequest{Role: "member", MaxUses: 1})
	require.NoError(t, err)

	_, err = client.Signup(ctx, gatesdk.SignupRequest{
		InviteCode: mint.Code,
		Email:      "dupe@example.com",
		Password:   "other-password-1",
	})
	requireAPIError(t, err, gatesdk.ErrorCodeEmailTaken)

	// The failed signup rolled back, so the code still works.
	_, err = client.Signup(ctx, gatesdk.SignupRequest{
		InviteCode: mint.Code,
		Email:      "fresh@example.com",
		Password:   "fresh-password-1",
	})
	require.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	client := gatesdk.NewClient(setupServer(t))
	ctx := context.Background()

	bootstrapAdmin(t, client)

	_, err := client.Login(ctx, adminEmail, "wrong-password-1")
	requireAPIError(t, err, gatesdk.ErrorCodeInvalidCredentials)

	_, err = client.Login(ctx, "nobody@example.com", adminPassword)
	requireAPIError(t, err, gatesdk.ErrorCodeInvalidCredentials)
}
