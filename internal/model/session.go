package model

// Session is the authenticated identity resolved from an access token.  It
// is attached to each request by the JWT middleware and passed explicitly
// into services; nothing reads identity from ambient state.
type Session struct {
	AccountID uint64
	Role      Role
	Email     string
}

// IsArtist and IsFan keep role checks in one place.
func (s Session) IsArtist() bool { return s.Role == RoleArtist }
func (s Session) IsFan() bool    { return s.Role == RoleFan }
