package model

import (
	"time"
)

// ResetMarker is written to reset_marker after a successful reset-code
// verification and authorizes exactly one password change while unexpired.
const ResetMarker = "otp-verified"

type Account struct {
	ID              string     `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    *string    `db:"password_hash" json:"-"`
	Role            Role       `db:"role" json:"role"`
	EmailVerified   bool       `db:"email_verified" json:"emailVerified"`
	OTPCode         *string    `db:"otp_code" json:"-"`
	OTPExpiresAt    *time.Time `db:"otp_expires_at" json:"-"`
	ResetMarker     *string    `db:"reset_marker" json:"-"`
	ResetExpiresAt  *time.Time `db:"reset_expires_at" json:"-"`
	ProfileComplete bool       `db:"profile_complete" json:"profileComplete"`
	LastLoginAt     *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasOTP reports whether a verification challenge is outstanding,
// regardless of expiry.
func (a *Account) HasOTP() bool {
	return a.OTPCode != nil && a.OTPExpiresAt != nil
}

// CanAuthenticate reports whether password login is possible at all.
// Absence of a password hash means profile setup has not happened yet.
func (a *Account) CanAuthenticate() bool {
	return a.EmailVerified && a.PasswordHash != nil
}

type CreateAccountParams struct {
	Email string
	Role  Role
}

type SetOTPParams struct {
	Code      string
	ExpiresAt time.Time
}
