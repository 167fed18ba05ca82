package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/internal/auth/store"
	"github.com/openfab/gatekeeper/internal/auth/store/drivers/sqlite"
	"github.com/openfab/gatekeeper/pkg/cryptox"
	"github.com/openfab/gatekeeper/pkg/httpx"
	"github.com/openfab/gatekeeper/pkg/idx"
	"github.com/openfab/gatekeeper/pkg/jwtx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "gatekeeper-http-test")
	if err != nil {
		os.Exit(1)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newAuthFixture(t *testing.T) (*service.AuthService, store.Store) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec([]byte("http-test-signing-key-0123456789"), "gatekeeper-test", time.Hour)
	require.NoError(t, err)

	return &service.AuthService{Store: st, Codec: codec}, st
}

func seedActiveUser(t *testing.T, st store.Store, email string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword("seed-password-123")
	require.NoError(t, err)

	now := time.Now()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleMember,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		header string
		want   string
	}{
		"absent":            {"", ""},
		"bearer":            {"Bearer abc.def.ghi", "abc.def.ghi"},
		"case-insensitive":  {"bearer abc", "abc"},
		"wrong scheme":      {"Basic dXNlcjpwYXNz", ""},
		"scheme only":       {"Bearer", ""},
		"surrounding space": {"Bearer   abc  ", "abc"},
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			require.Equal(t, tc.want, BearerToken(r))
		})
	}
}

func TestAuthnMiddlewareAttachesIdentity(t *testing.T) {
	t.Parallel()
	auth, st := newAuthFixture(t)
	u := seedActiveUser(t, st, "mw@example.com")

	token, _, err := auth.Login(context.Background(), "mw@example.com", "seed-password-123")
	require.NoError(t, err)

	var seen domain.Identity
	var seenUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		seenUserID = httpx.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthnMiddleware(auth, nil)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, u.ID, seen.UserID)
	require.Equal(t, u.ID, seenUserID)
	require.Equal(t, domain.RoleMember, seen.Role)
}

func TestAuthnMiddlewareRejections(t *testing.T) {
	t.Parallel()
	auth, st := newAuthFixture(t)
	u := seedActiveUser(t, st, "rej@example.com")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached on a rejected request")
	})
	mw := AuthnMiddleware(auth, nil)(next)

	t.Run("no header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "missing_credential")
		require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid_credential")
	})

	t.Run("deactivated user", func(t *testing.T) {
		token, _, err := auth.Login(context.Background(), "rej@example.com", "seed-password-123")
		require.NoError(t, err)
		require.NoError(t, st.Users().DeactivateUser(context.Background(), u.ID))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "user_inactive_or_missing")
	})
}

func TestAuthnMiddlewareSelfHeal(t *testing.T) {
	t.Parallel()
	auth, st := newAuthFixture(t)
	u := seedActiveUser(t, st, "heal@example.com")

	// A valid token with no session row behind it.
	token, err := auth.Codec.Issue(u.ID, time.Now())
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthnMiddleware(auth, nil)(next).ServeHTTP(rec, req)

	// Request succeeds and the session row now exists.
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = st.Sessions().FindValidSession(
		context.Background(), u.ID, cryptox.FingerprintToken(token), time.Now())
	require.NoError(t, err)
}
