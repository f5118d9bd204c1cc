package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	jwtpkg "github.com/piresc/otpgate/internal/pkg/jwt"
	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/piresc/otpgate/services/auth"
	"github.com/piresc/otpgate/services/auth/mocks"
	"github.com/piresc/otpgate/services/auth/repository"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func testConfig() *models.Config {
	return &models.Config{
		JWT: models.JWTConfig{
			Secret:     "test-secret",
			Expiration: 60,
			Issuer:     "otpgate-test",
		},
		OTP: models.OTPConfig{TTL: 5 * time.Minute, CleanupDelay: time.Minute},
		SMS: models.SMSConfig{Timeout: time.Second},
	}
}

func fixedCode(code string) Option {
	return WithCodeGenerator(func() (string, error) { return code, nil })
}

func fixedClock() Option {
	return WithClock(func() time.Time { return testNow })
}

func TestGenerateOTP_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpRepo := mocks.NewMockOTPRepo(ctrl)
	userRepo := mocks.NewMockUserRepo(ctrl)
	smsGW := mocks.NewMockSMSGateway(ctrl)

	var stored *models.OTP
	gomock.InOrder(
		otpRepo.EXPECT().
			CreateOTP(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, otp *models.OTP) error {
				stored = otp
				return nil
			}),
		smsGW.EXPECT().
			SendText(gomock.Any(), "+15551234567", "Your verification code is 482193. It expires in 5 minutes.").
			DoAndReturn(func(ctx context.Context, msisdn, body string) error {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline, "send must be bounded by a timeout")
				return nil
			}),
	)

	uc := NewAuthUC(otpRepo, userRepo, smsGW, testConfig(), fixedCode("482193"), fixedClock())
	err := uc.GenerateOTP(context.Background(), "+15551234567")

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "+15551234567", stored.MSISDN)
	assert.Equal(t, "482193", stored.Code)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, testNow, stored.CreatedAt)
	assert.Equal(t, testNow.Add(5*time.Minute), stored.ExpiresAt)
	assert.False(t, stored.IsVerified)
}

func TestGenerateOTP_DeliveryFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpRepo := mocks.NewMockOTPRepo(ctrl)
	userRepo := mocks.NewMockUserRepo(ctrl)
	smsGW := mocks.NewMockSMSGateway(ctrl)

	var storedID string
	gomock.InOrder(
		otpRepo.EXPECT().
			CreateOTP(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, otp *models.OTP) error {
				storedID = otp.ID
				return nil
			}),
		smsGW.EXPECT().
			SendText(gomock.Any(), "+15551234567", gomock.Any()).
			Return(errors.New("carrier unreachable")),
		otpRepo.EXPECT().
			DeleteOTP(gomock.Any(), "+15551234567", gomock.Any()).
			DoAndReturn(func(ctx context.Context, msisdn, id string) error {
				assert.Equal(t, storedID, id, "rollback must target the record just created")
				return nil
			}),
	)

	uc := NewAuthUC(otpRepo, userRepo, smsGW, testConfig(), fixedCode("482193"), fixedClock())
	err := uc.GenerateOTP(context.Background(), "+15551234567")

	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrDeliveryFailed)
	assert.Contains(t, err.Error(), "carrier unreachable")
	assert.NotContains(t, err.Error(), "482193")
}

func TestGenerateOTP_CreateOTPError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpRepo := mocks.NewMockOTPRepo(ctrl)
	smsGW := mocks.NewMockSMSGateway(ctrl)

	otpRepo.EXPECT().CreateOTP(gomock.Any(), gomock.Any()).Return(errors.New("store unavailable"))

	uc := NewAuthUC(otpRepo, mocks.NewMockUserRepo(ctrl), smsGW, testConfig(), fixedCode("482193"))
	err := uc.GenerateOTP(context.Background(), "+15551234567")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create OTP")
	assert.NotErrorIs(t, err, auth.ErrDeliveryFailed)
}

func TestGenerateOTP_GeneratorError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := NewAuthUC(mocks.NewMockOTPRepo(ctrl), mocks.NewMockUserRepo(ctrl), mocks.NewMockSMSGateway(ctrl), testConfig(),
		WithCodeGenerator(func() (string, error) { return "", errors.New("entropy exhausted") }))

	err := uc.GenerateOTP(context.Background(), "+15551234567")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate OTP")
}

func TestGenerateOTP_RandomCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpRepo := mocks.NewMockOTPRepo(ctrl)
	smsGW := mocks.NewMockSMSGateway(ctrl)

	otpRepo.EXPECT().
		CreateOTP(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, otp *models.OTP) error {
			assert.Regexp(t, `^[1-9][0-9]{5}$`, otp.Code)
			return nil
		})
	smsGW.EXPECT().SendText(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	uc := NewAuthUC(otpRepo, mocks.NewMockUserRepo(ctrl), smsGW, testConfig())
	assert.NoError(t, uc.GenerateOTP(context.Background(), "+15551234567"))
}

func TestVerifyOTP_ExistingUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpRepo := mocks.NewMockOTPRepo(ctrl)
	userRepo := mocks.NewMockUserRepo(ctrl)

	user := &models.User{ID: uuid.New(), MSISDN: "+15551234567", Role: models.RoleUser, IsActive: true}
	otpRepo.EXPECT().ConsumeOTP(gomock.Any(), "+15551234567", "482193").Return(nil)
	userRepo.EXPECT().GetUserByMSISDN(gomock.Any(), "+15551234567").Return(user, nil)

	cfg := testConfig()
	uc := NewAuthUC(otpRepo, userRepo, mocks.NewMockSMSGateway(ctrl), cfg, WithClock(time.Now))
	resp, err := uc.VerifyOTP(context.Background(), "+15551234567", "482193")

	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), resp.UserID)
	assert.Equal(t, models.RoleUser, resp.Role)

	claims, err := jwtpkg.ValidateToken(resp.Token, cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "+15551234567", claims.MSISDN)
}

func TestVerifyOTP_CreatesUserOnFirstLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpRepo := mocks.NewMockOTPRepo(ctrl)
	userRepo := mocks.NewMockUserRepo(ctrl)
	newID := uuid.New()

	otpRepo.EXPECT().ConsumeOTP(gomock.Any(), "+15551234567", "482193").Return(nil)
	userRepo.EXPECT().GetUserByMSISDN(gomock.Any(), "+15551234567").Return(nil, auth.ErrUserNotFound)
	userRepo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, user *models.User) error {
			assert.Equal(t, "+15551234567", user.MSISDN)
			assert.Equal(t, models.RoleUser, user.Role)
			assert.True(t, user.IsActive)
			user.ID = newID
			return nil
		})

	uc := NewAuthUC(otpRepo, userRepo, mocks.NewMockSMSGateway(ctrl), testConfig())
	resp, err := uc.VerifyOTP(context.Background(), "+15551234567", "482193")

	require.NoError(t, err)
	assert.Equal(t, newID.String(), resp.UserID)
}

func TestVerifyOTP_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		setup     func(otpRepo *mocks.MockOTPRepo, userRepo *mocks.MockUserRepo)
		wantErr   error
		wantInMsg string
	}{
		{
			name: "not found",
			setup: func(otpRepo *mocks.MockOTPRepo, userRepo *mocks.MockUserRepo) {
				otpRepo.EXPECT().ConsumeOTP(gomock.Any(), gomock.Any(), gomock.Any()).Return(auth.ErrOTPNotFound)
			},
			wantErr: auth.ErrOTPNotFound,
		},
		{
			name: "expired",
			setup: func(otpRepo *mocks.MockOTPRepo, userRepo *mocks.MockUserRepo) {
				otpRepo.EXPECT().ConsumeOTP(gomock.Any(), gomock.Any(), gomock.Any()).Return(auth.ErrOTPExpired)
			},
			wantErr: auth.ErrOTPExpired,
		},
		{
			name: "already used",
			setup: func(otpRepo *mocks.MockOTPRepo, userRepo *mocks.MockUserRepo) {
				otpRepo.EXPECT().ConsumeOTP(gomock.Any(), gomock.Any(), gomock.Any()).Return(auth.ErrOTPAlreadyUsed)
			},
			wantErr: auth.ErrOTPAlreadyUsed,
		},
		{
			name: "mismatch",
			setup: func(otpRepo *mocks.MockOTPRepo, userRepo *mocks.MockUserRepo) {
				otpRepo.EXPECT().ConsumeOTP(gomock.Any(), gomock.Any(), gomock.Any()).Return(auth.ErrOTPMismatch)
			},
			wantErr: auth.ErrOTPMismatch,
		},
		{
			name: "user lookup fails",
			setup: func(otpRepo *mocks.MockOTPRepo, userRepo *mocks.MockUserRepo) {
				otpRepo.EXPECT().ConsumeOTP(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				userRepo.EXPECT().GetUserByMSISDN(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
			},
			wantInMsg: "failed to get user",
		},
		{
			name: "user creation fails",
			setup: func(otpRepo *mocks.MockOTPRepo, userRepo *mocks.MockUserRepo) {
				otpRepo.EXPECT().ConsumeOTP(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				userRepo.EXPECT().GetUserByMSISDN(gomock.Any(), gomock.Any()).Return(nil, auth.ErrUserNotFound)
				userRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(errors.New("duplicate key"))
			},
			wantInMsg: "failed to create user",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			otpRepo := mocks.NewMockOTPRepo(ctrl)
			userRepo := mocks.NewMockUserRepo(ctrl)
			tc.setup(otpRepo, userRepo)

			uc := NewAuthUC(otpRepo, userRepo, mocks.NewMockSMSGateway(ctrl), testConfig())
			resp, err := uc.VerifyOTP(context.Background(), "+15551234567", "482193")

			assert.Nil(t, resp)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantInMsg != "" {
				assert.Contains(t, err.Error(), tc.wantInMsg)
			}
		})
	}
}

func TestLoginWithPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	activeUser := &models.User{ID: uuid.New(), MSISDN: "+15551234567", Role: models.RoleUser, PasswordHash: string(hash), IsActive: true}
	inactiveUser := &models.User{ID: uuid.New(), MSISDN: "+15551234567", PasswordHash: string(hash), IsActive: false}
	noPassword := &models.User{ID: uuid.New(), MSISDN: "+15551234567", IsActive: true}

	testCases := []struct {
		name     string
		user     *models.User
		repoErr  error
		password string
		wantErr  error
	}{
		{name: "valid password", user: activeUser, password: "correct-horse"},
		{name: "wrong password", user: activeUser, password: "battery-staple", wantErr: auth.ErrInvalidCredentials},
		{name: "inactive account", user: inactiveUser, password: "correct-horse", wantErr: auth.ErrInvalidCredentials},
		{name: "no password set", user: noPassword, password: "", wantErr: auth.ErrInvalidCredentials},
		{name: "unknown number", repoErr: auth.ErrUserNotFound, password: "correct-horse", wantErr: auth.ErrInvalidCredentials},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userRepo := mocks.NewMockUserRepo(ctrl)
			userRepo.EXPECT().GetUserByMSISDN(gomock.Any(), "+15551234567").Return(tc.user, tc.repoErr)

			uc := NewAuthUC(mocks.NewMockOTPRepo(ctrl), userRepo, mocks.NewMockSMSGateway(ctrl), testConfig())
			resp, err := uc.LoginWithPassword(context.Background(), "+15551234567", tc.password)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.user.ID.String(), resp.UserID)
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func TestSetPassword(t *testing.T) {
	t.Run("stores bcrypt hash", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepo(ctrl)
		userRepo.EXPECT().
			UpdatePassword(gomock.Any(), "user-1", gomock.Any()).
			DoAndReturn(func(ctx context.Context, id, hash string) error {
				assert.NotEqual(t, "s3cret-pass", hash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
				return nil
			})

		uc := NewAuthUC(mocks.NewMockOTPRepo(ctrl), userRepo, mocks.NewMockSMSGateway(ctrl), testConfig())
		assert.NoError(t, uc.SetPassword(context.Background(), "user-1", "s3cret-pass"))
	})

	t.Run("unknown user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepo(ctrl)
		userRepo.EXPECT().UpdatePassword(gomock.Any(), "user-1", gomock.Any()).Return(auth.ErrUserNotFound)

		uc := NewAuthUC(mocks.NewMockOTPRepo(ctrl), userRepo, mocks.NewMockSMSGateway(ctrl), testConfig())
		assert.ErrorIs(t, uc.SetPassword(context.Background(), "user-1", "s3cret-pass"), auth.ErrUserNotFound)
	})
}

// The flows below run against the real in-memory store.

func newStoreBackedUC(t *testing.T, ctrl *gomock.Controller, nowF func() time.Time, code string) (*AuthUC, *repository.OTPStore, *mocks.MockSMSGateway, *mocks.MockUserRepo) {
	store := repository.NewOTPStore(repository.WithClock(nowF), repository.WithCleanupDelay(time.Hour))
	t.Cleanup(func() { store.Close() })

	smsGW := mocks.NewMockSMSGateway(ctrl)
	userRepo := mocks.NewMockUserRepo(ctrl)
	uc := NewAuthUC(store, userRepo, smsGW, testConfig(), fixedCode(code), WithClock(nowF))
	return uc, store, smsGW, userRepo
}

func TestPhoneLoginScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var mu sync.Mutex
	now := testNow
	nowF := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	advance := func(d time.Duration) { mu.Lock(); now = now.Add(d); mu.Unlock() }

	uc, _, smsGW, userRepo := newStoreBackedUC(t, ctrl, nowF, "482193")
	user := &models.User{ID: uuid.New(), MSISDN: "+15551234567", Role: models.RoleUser, IsActive: true}

	smsGW.EXPECT().SendText(gomock.Any(), "+15551234567", "Your verification code is 482193. It expires in 5 minutes.").Return(nil)
	userRepo.EXPECT().GetUserByMSISDN(gomock.Any(), "+15551234567").Return(user, nil)

	ctx := context.Background()
	require.NoError(t, uc.GenerateOTP(ctx, "+15551234567"))

	advance(2 * time.Minute)
	_, err := uc.VerifyOTP(ctx, "+15551234567", "000000")
	assert.ErrorIs(t, err, auth.ErrOTPMismatch)

	resp, err := uc.VerifyOTP(ctx, "+15551234567", "482193")
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), resp.UserID)

	_, err = uc.VerifyOTP(ctx, "+15551234567", "482193")
	assert.ErrorIs(t, err, auth.ErrOTPAlreadyUsed)
}

func TestPhoneLoginScenario_Expired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var mu sync.Mutex
	now := testNow
	nowF := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }

	uc, _, smsGW, _ := newStoreBackedUC(t, ctrl, nowF, "482193")
	smsGW.EXPECT().SendText(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	ctx := context.Background()
	require.NoError(t, uc.GenerateOTP(ctx, "+15551234567"))

	mu.Lock()
	now = now.Add(6 * time.Minute)
	mu.Unlock()

	_, err := uc.VerifyOTP(ctx, "+15551234567", "482193")
	assert.ErrorIs(t, err, auth.ErrOTPExpired)
	_, err = uc.VerifyOTP(ctx, "+15551234567", "482193")
	assert.ErrorIs(t, err, auth.ErrOTPNotFound)
}

func TestPhoneLoginScenario_FailedDeliveryLeavesNoCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, _, smsGW, _ := newStoreBackedUC(t, ctrl, time.Now, "482193")
	smsGW.EXPECT().SendText(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("provider down"))

	ctx := context.Background()
	assert.ErrorIs(t, uc.GenerateOTP(ctx, "+15551234567"), auth.ErrDeliveryFailed)

	_, err := uc.VerifyOTP(ctx, "+15551234567", "482193")
	assert.ErrorIs(t, err, auth.ErrOTPNotFound)
}

func TestPhoneLoginScenario_ConcurrentVerify(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, _, smsGW, userRepo := newStoreBackedUC(t, ctrl, time.Now, "482193")
	user := &models.User{ID: uuid.New(), MSISDN: "+15551234567", Role: models.RoleUser, IsActive: true}

	smsGW.EXPECT().SendText(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	userRepo.EXPECT().GetUserByMSISDN(gomock.Any(), "+15551234567").Return(user, nil).Times(1)

	ctx := context.Background()
	require.NoError(t, uc.GenerateOTP(ctx, "+15551234567"))

	const workers = 32
	var (
		wg      sync.WaitGroup
		success int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.VerifyOTP(ctx, "+15551234567", "482193"); err == nil {
				atomic.AddInt32(&success, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), success)
}
