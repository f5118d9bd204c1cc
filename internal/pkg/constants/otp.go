package constants

import "time"

// OTP lifecycle defaults
const (
	OTPLength          = 6
	OTPMin             = 100000
	OTPMax             = 999999
	OTPTTL             = 5 * time.Minute
	OTPCleanupDelay    = time.Minute
	OTPMessageTemplate = "Your verification code is %s. It expires in %d minutes."
)
