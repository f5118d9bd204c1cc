package auth

import (
	"context"

	"github.com/piresc/otpgate/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_usecase.go -package=mocks github.com/piresc/otpgate/services/auth AuthUC

// AuthUC represents the auth usecase interface
type AuthUC interface {
	// handle OTP
	GenerateOTP(ctx context.Context, msisdn string) error
	VerifyOTP(ctx context.Context, msisdn, otp string) (*models.AuthResponse, error)

	// handle password
	LoginWithPassword(ctx context.Context, msisdn, password string) (*models.AuthResponse, error)
	SetPassword(ctx context.Context, userID, password string) error

	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
