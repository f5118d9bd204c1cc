package models

import (
	"time"
)

// OTP represents a one-time password bound to a phone number.
// ID identifies this particular issuance; a newer OTP for the same MSISDN gets a new ID.
type OTP struct {
	ID         string    `json:"id"`
	MSISDN     string    `json:"msisdn"`
	Code       string    `json:"code"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsVerified bool      `json:"is_verified"`
}

// IsExpired reports whether the OTP is past its expiry at the given instant
func (o *OTP) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// LoginRequest represents a request to login with MSISDN
type LoginRequest struct {
	MSISDN string `json:"msisdn" validate:"required"`
}

// VerifyRequest represents a request to verify OTP
type VerifyRequest struct {
	MSISDN string `json:"msisdn" validate:"required"`
	OTP    string `json:"otp" validate:"required"`
}

// PasswordLoginRequest represents a request to login with MSISDN and password
type PasswordLoginRequest struct {
	MSISDN   string `json:"msisdn" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SetPasswordRequest represents a request to set the caller's password
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expires_at"`
}
