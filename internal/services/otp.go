package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/quickserve/quickserve-backend/internal/models"
	"github.com/quickserve/quickserve-backend/internal/storage"
	"github.com/quickserve/quickserve-backend/internal/utils"
)

var (
	// ErrRateLimited means the resend cooldown has not elapsed yet.
	ErrRateLimited = errors.New("please wait before requesting another code")
	// ErrSendFailed wraps a transport failure from the code sender.
	ErrSendFailed = errors.New("could not send verification code")
	// ErrCodeNotFound means no active challenge exists for the phone number.
	ErrCodeNotFound = errors.New("no active verification code")
	// ErrCodeExpired means the challenge outlived its TTL.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrAttemptsExceeded means the attempt budget is exhausted.
	ErrAttemptsExceeded = errors.New("too many incorrect attempts")
	// ErrCodeMismatch means the submitted code does not match.
	ErrCodeMismatch = errors.New("incorrect verification code")
)

const (
	// DefaultOTPTTL bounds how long a code stays verifiable. The resend
	// cooldown is visible in the product; the TTL is ours to pick and is
	// deliberately short.
	DefaultOTPTTL = 5 * time.Minute
	// ResendCooldown is the minimum gap between sends to the same number.
	ResendCooldown = 30 * time.Second
	// MaxAttempts bounds wrong submissions per challenge.
	MaxAttempts = 3
)

// OTPService generates, stores, expires and verifies one-time codes.
type OTPService struct {
	store  storage.Store
	sender CodeSender
	ttl    time.Duration
	now    func() time.Time
}

// NewOTPService creates an OTP service with the default TTL
func NewOTPService(store storage.Store, sender CodeSender) *OTPService {
	return &OTPService{
		store:  store,
		sender: sender,
		ttl:    DefaultOTPTTL,
		now:    time.Now,
	}
}

// SetTTL overrides the challenge TTL (env-configured in main)
func (s *OTPService) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// SetClock overrides the time source. Tests use this to drive expiry and
// cooldown without sleeping.
func (s *OTPService) SetClock(now func() time.Time) {
	s.now = now
}

// RequestCode generates and dispatches a fresh 6-digit code for the phone
// number, replacing any prior challenge. Fails with ErrRateLimited while the
// previous challenge's cooldown is still running, and with ErrSendFailed if
// the transport rejects the dispatch (the challenge is not stored then).
func (s *OTPService) RequestCode(phone string) (*models.OTP, error) {
	now := s.now()

	if prior, err := s.store.GetOTP(phone); err == nil {
		if !prior.ResendAllowed(now) {
			return nil, ErrRateLimited
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	if err := s.sender.SendCode(phone, code); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	otp := &models.OTP{
		Phone:        phone,
		Code:         code,
		ExpiresAt:    now.Add(s.ttl),
		ResendAt:     now.Add(ResendCooldown),
		AttemptsLeft: MaxAttempts,
	}
	if err := s.store.SaveOTP(otp); err != nil {
		return nil, err
	}
	return otp, nil
}

// VerifyCode checks the submitted code against the active challenge for the
// phone number. A match consumes the challenge; expiry and attempt exhaustion
// discard it as a side effect.
func (s *OTPService) VerifyCode(phone, submitted string) error {
	otp, err := s.store.GetOTP(phone)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrCodeNotFound
	}
	if err != nil {
		return err
	}

	if otp.Expired(s.now()) {
		_ = s.store.DeleteOTP(phone)
		return ErrCodeExpired
	}

	if otp.AttemptsLeft <= 0 {
		_ = s.store.DeleteOTP(phone)
		return ErrAttemptsExceeded
	}

	if otp.Code != submitted {
		otp.AttemptsLeft--
		if err := s.store.UpdateOTP(otp); err != nil {
			return err
		}
		return ErrCodeMismatch
	}

	// Single use: a verified code never matches again.
	if err := s.store.DeleteOTP(phone); err != nil {
		return err
	}
	return nil
}

// Discard drops any active challenge for the phone number. Called when the
// onboarding flow is cancelled.
func (s *OTPService) Discard(phone string) {
	_ = s.store.DeleteOTP(phone)
}
