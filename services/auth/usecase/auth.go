package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/piresc/otpgate/internal/pkg/constants"
	jwtpkg "github.com/piresc/otpgate/internal/pkg/jwt"
	"github.com/piresc/otpgate/internal/pkg/logger"
	"github.com/piresc/otpgate/internal/pkg/models"
	nrpkg "github.com/piresc/otpgate/internal/pkg/newrelic"
	"github.com/piresc/otpgate/services/auth"
)

// GenerateOTP issues a fresh code for msisdn and texts it.
// The record is stored before sending and rolled back if the text cannot be delivered.
func (u *AuthUC) GenerateOTP(ctx context.Context, msisdn string) error {
	code, err := u.generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	now := u.nowF()
	ttl := u.otpTTL()
	otp := &models.OTP{
		ID:        uuid.NewString(),
		MSISDN:    msisdn,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := u.otpRepo.CreateOTP(ctx, otp); err != nil {
		return fmt.Errorf("failed to create OTP: %w", err)
	}

	logger.DebugCtx(ctx, "Generated OTP",
		logger.String("msisdn", msisdn),
		logger.String("otp_id", otp.ID),
		logger.String("otp_code", code))

	body := fmt.Sprintf(constants.OTPMessageTemplate, code, int(ttl/time.Minute))
	if err := u.sendText(ctx, msisdn, body); err != nil {
		// rollback runs even when ctx is already cancelled
		if delErr := u.otpRepo.DeleteOTP(context.WithoutCancel(ctx), msisdn, otp.ID); delErr != nil {
			logger.ErrorCtx(ctx, "Failed to roll back undelivered OTP",
				logger.String("msisdn", msisdn),
				logger.String("otp_id", otp.ID),
				logger.Err(delErr))
		}
		logger.WarnCtx(ctx, "OTP delivery failed",
			logger.String("msisdn", msisdn),
			logger.Err(err))
		return fmt.Errorf("%w: %v", auth.ErrDeliveryFailed, err)
	}

	return nil
}

func (u *AuthUC) sendText(ctx context.Context, msisdn, body string) error {
	ctx, cancel := context.WithTimeout(ctx, u.smsTimeout())
	defer cancel()

	return nrpkg.WithSegment(ctx, "SMSGateway/SendText", func() error {
		return u.smsGW.SendText(ctx, msisdn, body)
	})
}

// VerifyOTP consumes the code and logs the phone number's owner in,
// creating the account on first login
func (u *AuthUC) VerifyOTP(ctx context.Context, msisdn, code string) (*models.AuthResponse, error) {
	if err := u.otpRepo.ConsumeOTP(ctx, msisdn, code); err != nil {
		return nil, err
	}

	user, err := u.getOrCreateUser(ctx, msisdn)
	if err != nil {
		return nil, err
	}

	return u.issueToken(user)
}

// LoginWithPassword checks the password of the account owning msisdn
func (u *AuthUC) LoginWithPassword(ctx context.Context, msisdn, password string) (*models.AuthResponse, error) {
	user, err := u.userRepo.GetUserByMSISDN(ctx, msisdn)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive || !checkPassword(user.PasswordHash, password) {
		return nil, auth.ErrInvalidCredentials
	}

	return u.issueToken(user)
}

// SetPassword stores a new password for the user
func (u *AuthUC) SetPassword(ctx context.Context, userID, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := u.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (u *AuthUC) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return u.userRepo.GetUserByID(ctx, id)
}

func (u *AuthUC) getOrCreateUser(ctx context.Context, msisdn string) (*models.User, error) {
	user, err := u.userRepo.GetUserByMSISDN(ctx, msisdn)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, auth.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := u.nowF()
	user = &models.User{
		MSISDN:    msisdn,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
	if err := u.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.InfoCtx(ctx, "Created user on first login",
		logger.String("user_id", user.ID.String()),
		logger.String("msisdn", msisdn))
	return user, nil
}

func (u *AuthUC) issueToken(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := jwtpkg.GenerateToken(user, u.cfg.JWT, u.nowF())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.AuthResponse{
		Token:     token,
		UserID:    user.ID.String(),
		Role:      user.Role,
		ExpiresAt: expiresAt,
	}, nil
}
