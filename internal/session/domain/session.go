package domain

import "time"

// Session is the persisted console login: the signed token plus the member it was issued to.
type Session struct {
	Token     string    `json:"token"`
	MemberID  string    `json:"memberId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}
