package domain

// Identity is the resolved authenticated caller attached to the request
// context by the auth middleware. It carries exactly what downstream guards
// and handlers need, nothing more.
type Identity struct {
	UserID string
	Email  string
	Role   Role
	Name   string
}
