package model

import "time"

// Session is a time-bounded grant of authenticated access owned by a user.
// It is valid while ExpiresAt is after the current time.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"-"`
	IPAddress string    `json:"ipAddress,omitempty"` // empty when unknown
	UserAgent string    `json:"userAgent,omitempty"` // empty when unknown
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClientMeta carries request metadata recorded on new sessions
type ClientMeta struct {
	IPAddress string
	UserAgent string
}
