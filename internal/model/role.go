package model

import "strings"

// Role is the closed set of account kinds.  Every permission decision in
// the application dispatches on a Role value rather than on raw strings.
type Role string

const (
	RoleArtist Role = "artist" // performs and publishes events
	RoleFan    Role = "fan"    // browses and books events
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleArtist, RoleFan:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
