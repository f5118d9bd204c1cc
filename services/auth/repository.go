package auth

import (
	"context"

	"github.com/piresc/otpgate/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/piresc/otpgate/services/auth OTPRepo,UserRepo

// OTPRepo holds the outstanding OTP of each phone number
type OTPRepo interface {
	// CreateOTP stores otp as the current record for otp.MSISDN, replacing any previous one
	CreateOTP(ctx context.Context, otp *models.OTP) error
	// DeleteOTP removes the record for msisdn only if it is still the one identified by id
	DeleteOTP(ctx context.Context, msisdn, id string) error
	// ConsumeOTP checks code against the current record and marks it used on success
	ConsumeOTP(ctx context.Context, msisdn, code string) error
}

// UserRepo defines the user persistence interface
type UserRepo interface {
	GetUserByMSISDN(ctx context.Context, msisdn string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
