package models

import "time"

// Roles assignable to a user account.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a login account. A user may optionally be linked 1:1 to a
// Player profile; the link is established at registration or by an admin and
// is never reassigned afterwards.
type User struct {
	ID            int64
	Username      string
	Email         *string
	PasswordHash  string
	Role          string
	PlayerID      *int64
	OAuthProvider *string
	OAuthSubject  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session represents an authenticated session backed by a database row so it
// can be revoked independently of the signed token handed to the client.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// PasswordResetToken represents a one-time token for password reset.
type PasswordResetToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

// IsExpired checks if the reset token has expired.
func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
