package repository

import (
	"context"
	"sync"
	"time"

	"github.com/piresc/otpgate/internal/pkg/constants"
	"github.com/piresc/otpgate/internal/pkg/logger"
	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/piresc/otpgate/services/auth"
)

// OTPStore is the process-local registry of outstanding OTPs, one per MSISDN.
// Every read-modify-write happens under mu, so concurrent verifications of the
// same code resolve to a single winner.
type OTPStore struct {
	mu     sync.Mutex
	otps   map[string]*models.OTP
	timers map[string]*time.Timer // pending cleanups keyed by OTP ID
	closed bool

	nowF         func() time.Time
	cleanupDelay time.Duration
}

// OTPStoreOption configures an OTPStore
type OTPStoreOption func(*OTPStore)

// WithClock overrides the time source used for expiry checks
func WithClock(nowF func() time.Time) OTPStoreOption {
	return func(s *OTPStore) {
		s.nowF = nowF
	}
}

// WithCleanupDelay sets how long a consumed OTP lingers before it is removed
func WithCleanupDelay(d time.Duration) OTPStoreOption {
	return func(s *OTPStore) {
		s.cleanupDelay = d
	}
}

// NewOTPStore creates an empty store
func NewOTPStore(opts ...OTPStoreOption) *OTPStore {
	s := &OTPStore{
		otps:         make(map[string]*models.OTP),
		timers:       make(map[string]*time.Timer),
		nowF:         time.Now,
		cleanupDelay: constants.OTPCleanupDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOTP stores a copy of otp as the current record for its MSISDN
func (s *OTPStore) CreateOTP(ctx context.Context, otp *models.OTP) error {
	rec := *otp

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.otps[rec.MSISDN]; ok {
		s.stopTimerLocked(prev.ID)
	}
	s.otps[rec.MSISDN] = &rec
	return nil
}

// DeleteOTP removes the record for msisdn if its ID is still id.
// A newer record for the same number is left untouched.
func (s *OTPStore) DeleteOTP(ctx context.Context, msisdn, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(msisdn, id)
	return nil
}

// ConsumeOTP runs the verification checks in order: presence, expiry,
// prior use, code match. On success the record is marked verified and its
// removal is scheduled after the cleanup delay.
func (s *OTPStore) ConsumeOTP(ctx context.Context, msisdn, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	otp, ok := s.otps[msisdn]
	if !ok {
		return auth.ErrOTPNotFound
	}

	if otp.IsExpired(s.nowF()) {
		s.removeLocked(msisdn, otp.ID)
		return auth.ErrOTPExpired
	}

	if otp.IsVerified {
		return auth.ErrOTPAlreadyUsed
	}

	if otp.Code != code {
		return auth.ErrOTPMismatch
	}

	otp.IsVerified = true
	s.scheduleCleanupLocked(msisdn, otp.ID)
	return nil
}

// Close stops all pending cleanups. Records already stored stay readable.
func (s *OTPStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	return nil
}

func (s *OTPStore) scheduleCleanupLocked(msisdn, id string) {
	if s.closed {
		return
	}
	s.timers[id] = time.AfterFunc(s.cleanupDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.timers, id)
		if s.removeLocked(msisdn, id) {
			logger.Debug("Removed consumed OTP",
				logger.String("msisdn", msisdn),
				logger.String("otp_id", id))
		}
	})
}

// removeLocked deletes the record for msisdn only when it carries id
func (s *OTPStore) removeLocked(msisdn, id string) bool {
	s.stopTimerLocked(id)

	cur, ok := s.otps[msisdn]
	if !ok || cur.ID != id {
		return false
	}
	delete(s.otps, msisdn)
	return true
}

func (s *OTPStore) stopTimerLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

var _ auth.OTPRepo = (*OTPStore)(nil)
