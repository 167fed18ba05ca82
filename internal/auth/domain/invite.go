package domain

import "time"

// InviteCode is a bounded-use, optionally time-limited signup grant. The code
// string itself is high entropy and returned to the creator exactly once;
// only its fingerprint is persisted.
//
// Invariants: CurrentUses <= MaxUses always, and Active flips to false in the
// same update that brings CurrentUses to MaxUses. Usability is re-derived
// from all three conditions on every check, never cached.
type InviteCode struct {
	ID          string
	CodeHash    string // sha256 fingerprint of the opaque code
	Role        Role   // role granted at signup
	MaxUses     int
	CurrentUses int
	ExpiresAt   *time.Time // nil means no expiry
	CreatedBy   string     // audit only; the creator's continued existence is not required
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Usable re-checks the three independent conditions: active, not expired,
// under max uses.
func (c InviteCode) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return c.CurrentUses < c.MaxUses
}

// Exhausted reports whether the code has reached its use limit. Kept distinct
// from general invalidity for user-facing messaging.
func (c InviteCode) Exhausted() bool {
	return c.CurrentUses >= c.MaxUses
}
