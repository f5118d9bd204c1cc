package usecase

import (
	"time"

	"github.com/piresc/otpgate/internal/pkg/constants"
	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/piresc/otpgate/internal/utils"
	"github.com/piresc/otpgate/services/auth"
)

// AuthUC implements the OTP and password login flows
type AuthUC struct {
	otpRepo  auth.OTPRepo
	userRepo auth.UserRepo
	smsGW    auth.SMSGateway
	cfg      *models.Config

	generateCode func() (string, error)
	nowF         func() time.Time
}

// Option customizes an AuthUC
type Option func(*AuthUC)

// WithCodeGenerator replaces the random OTP generator
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(u *AuthUC) {
		u.generateCode = gen
	}
}

// WithClock replaces the time source
func WithClock(nowF func() time.Time) Option {
	return func(u *AuthUC) {
		u.nowF = nowF
	}
}

// NewAuthUC creates a new auth usecase instance
func NewAuthUC(
	otpRepo auth.OTPRepo,
	userRepo auth.UserRepo,
	smsGW auth.SMSGateway,
	cfg *models.Config,
	opts ...Option,
) *AuthUC {
	u := &AuthUC{
		otpRepo:      otpRepo,
		userRepo:     userRepo,
		smsGW:        smsGW,
		cfg:          cfg,
		generateCode: utils.GenerateOTP,
		nowF:         time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *AuthUC) otpTTL() time.Duration {
	if u.cfg.OTP.TTL > 0 {
		return u.cfg.OTP.TTL
	}
	return constants.OTPTTL
}

func (u *AuthUC) smsTimeout() time.Duration {
	if u.cfg.SMS.Timeout > 0 {
		return u.cfg.SMS.Timeout
	}
	return 10 * time.Second
}

var _ auth.AuthUC = (*AuthUC)(nil)
