package entity

import "time"

// User represents an account row in the `users` table.
// Only includes fields needed at service layer.
type User struct {
	ID                  int64      `db:"id"`
	Username            *string    `db:"username"`
	Email               *string    `db:"email"`
	EmailVerified       bool       `db:"email_verified"`
	PhoneNumber         *string    `db:"phone_number"` // E.164, e.g. +919876543210
	PhoneVerified       bool       `db:"phone_verified"`
	PasswordHash        *string    `db:"password_hash"`
	PasswordAlgo        *string    `db:"password_algo"`
	PasswordUpdatedAt   *time.Time `db:"password_updated_at"`
	MustResetPassword   bool       `db:"must_reset_password"`
	Status              string     `db:"status"` // active / locked / disabled
	LoginFailedAttempts int        `db:"login_failed_attempts"`
	LockedUntil         *time.Time `db:"locked_until"`
	LastLoginAt         *time.Time `db:"last_login_at"`
	UserType            *string    `db:"user_type"`
	Version             int64      `db:"version"`
	SecurityMetadataRaw []byte     `db:"security_metadata"`
	AttributesRaw       []byte     `db:"attributes"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	DeactivatedAt       *time.Time `db:"deactivated_at"`
}

const (
	StatusActive   = "active"
	StatusLocked   = "locked"
	StatusDisabled = "disabled"
)

// MinimalAuthView is the minimal projection required for token claim hydration.
type MinimalAuthView struct {
	ID            int64   `db:"id" json:"id"`
	UserType      *string `db:"user_type" json:"user_type,omitempty"`
	Version       int64   `db:"version" json:"version"`
	Email         *string `db:"email" json:"email,omitempty"`
	EmailVerified bool    `db:"email_verified" json:"email_verified"`
	PhoneNumber   *string `db:"phone_number" json:"phone_number,omitempty"`
	PhoneVerified bool    `db:"phone_verified" json:"phone_verified"`
}
