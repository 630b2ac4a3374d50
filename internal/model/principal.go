package model

// Principal is the authenticated identity resolved from a session token.
// It is passed by value so downstream handlers cannot alter what the
// middleware resolved.
type Principal struct {
	UserID        string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	EmailVerified bool
	PhoneVerified bool
	Role          Role
	SessionID     string
}

// NewPrincipal builds the principal for user authenticated by sessionID
func NewPrincipal(u *User, sessionID string) Principal {
	return Principal{
		UserID:        u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Phone:         u.Phone,
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		Role:          u.Role,
		SessionID:     sessionID,
	}
}

// HasRole reports whether the principal's role is one of roles
func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
