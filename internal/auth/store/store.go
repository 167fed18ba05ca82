package store

import (
	"context"
	"errors"
	"time"

	"github.com/openfab/gatekeeper/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and let a Tx expose the
// same surface as the root store.
type Store interface {
	Users() Users
	Sessions() Sessions
	InviteCodes() InviteCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn returns an
	// error and committing otherwise. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repositories, plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by the caller via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id, active or not.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by exact email. Case-sensitive.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ListUsers returns all users, newest first.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// UpdateUserName mutates the display names and bumps updated_at.
	UpdateUserName(ctx context.Context, userID, firstName, lastName string) error

	// UpdateUserPasswordHash sets the password_hash and bumps updated_at.
	UpdateUserPasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateUserRole changes the user's role.
	UpdateUserRole(ctx context.Context, userID string, role domain.Role) error

	// DeactivateUser flips active to false. Terminal; there is no reactivate.
	DeactivateUser(ctx context.Context, userID string) error

	// IsEmpty reports whether no users exist yet (bootstrap check).
	IsEmpty(ctx context.Context) (bool, error)
}

type Sessions interface {
	// CreateSession inserts a session row.
	CreateSession(ctx context.Context, s domain.Session) error

	// FindValidSession returns the session only when user id and token hash
	// match exactly and the expiry is strictly in the future.
	FindValidSession(ctx context.Context, userID, tokenHash string, now time.Time) (domain.Session, error)

	// DeleteSessionByTokenHash removes the session for one token (logout).
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteUserSessionsExcept removes all of a user's sessions other than
	// the one holding keepTokenHash (password change revocation).
	DeleteUserSessionsExcept(ctx context.Context, userID, keepTokenHash string) error

	// DeleteExpiredSessions removes rows with expiry at or before now.
	// Housekeeping sweep; races harmlessly with FindValidSession.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

type InviteCodes interface {
	// CreateInviteCode writes a new code (code_hash is the sha256
	// fingerprint of the opaque code string).
	CreateInviteCode(ctx context.Context, c domain.InviteCode) error

	// GetInviteCodeByHash returns the code row regardless of usability; the
	// caller re-derives usability from the row.
	GetInviteCodeByHash(ctx context.Context, hash string) (domain.InviteCode, error)

	// ListInviteCodes returns all codes, newest first (admin audit view).
	ListInviteCodes(ctx context.Context) ([]domain.InviteCode, error)

	// ConsumeInviteCode atomically increments current_uses and flips active
	// off when the limit is reached, all in one guarded UPDATE. Returns
	// ErrNotFound when the code is missing or not currently usable; the
	// database's row-level atomicity is what prevents over-redemption.
	ConsumeInviteCode(ctx context.Context, hash string, now time.Time) error

	// DeactivateInviteCode unconditionally sets active to false.
	DeactivateInviteCode(ctx context.Context, hash string) error

	// DeactivateExpiredInviteCodes flips active off for codes past their
	// expiry (housekeeping).
	DeactivateExpiredInviteCodes(ctx context.Context, now time.Time) error
}
