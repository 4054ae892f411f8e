package model

import "time"

// Session is the durable part of an authenticated session: the bearer token
// and the identity it was issued for.
type Session struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	User         *User     `json:"user"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// Complete reports whether both halves of the session are present.
func (s *Session) Complete() bool {
	return s != nil && s.Token != "" && s.User != nil
}

// IsExpired reports whether the token expiry is known and has passed.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}
