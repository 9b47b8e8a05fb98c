package domain

import "time"

// User represents a customer account
type User struct {
	ID            int64      `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	FirstName     string     `json:"firstName" db:"first_name"`
	LastName      string     `json:"lastName" db:"last_name"`
	Phone         *string    `json:"phone,omitempty" db:"phone"`
	DateOfBirth   *string    `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	ResetToken    *string    `json:"-" db:"reset_token"`
	ResetExpires  *time.Time `json:"-" db:"reset_expires"`
	IsActive      bool       `json:"isActive" db:"is_active"`
	EmailVerified bool       `json:"emailVerified" db:"email_verified"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// ProfileUpdate holds the user-editable profile fields
type ProfileUpdate struct {
	FirstName   string
	LastName    string
	Phone       *string
	DateOfBirth *string
}

// Session is a server-side record of an issued bearer token
type Session struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"userId" db:"user_id"`
	SessionToken string    `json:"-" db:"session_token"`
	ExpiresAt    time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// IsExpired reports whether the session is no longer valid at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
