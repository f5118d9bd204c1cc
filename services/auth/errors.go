package auth

import "errors"

// OTP verification outcomes. They are distinct so the HTTP layer can tell them apart.
var (
	ErrOTPNotFound    = errors.New("no OTP found for this phone number")
	ErrOTPExpired     = errors.New("OTP has expired")
	ErrOTPAlreadyUsed = errors.New("OTP has already been used")
	ErrOTPMismatch    = errors.New("invalid OTP code")
)

var (
	// ErrDeliveryFailed is returned when the SMS carrying a code could not be sent
	ErrDeliveryFailed = errors.New("failed to deliver OTP")

	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrUserNotFound       = errors.New("user not found")
)
