package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/piresc/otpgate/internal/pkg/constants"
)

var otpRange = big.NewInt(constants.OTPMax - constants.OTPMin + 1)

// GenerateOTP returns a 6-digit code drawn uniformly from [100000, 999999]
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpRange)
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+constants.OTPMin), nil
}
