package domain

import "time"

// User is the identity record. Users are never hard-deleted; deactivation is
// the terminal state and blocks all future authentication.
type User struct {
	ID           string
	Email        string // unique, case-sensitive lookup key
	PasswordHash string // argon2id PHC encoded
	Role         Role
	Active       bool
	FirstName    string // display only
	LastName     string // display only
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName joins the name parts, falling back to the email when both are
// empty.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Email
	}
}
