package storage

import (
	"errors"

	"github.com/quickserve/quickserve-backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup misses.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicatePhone is returned when an account already exists for the
	// phone number. The store enforces this even if the caller checked first.
	ErrDuplicatePhone = errors.New("account already exists for phone number")
)

// Store defines the interface for storage operations
type Store interface {
	// Account operations
	CreateAccount(account *models.Account) (*models.Account, error)
	GetAccountByPhone(phone string) (*models.Account, error)
	GetAccountByID(accountID string) (*models.Account, error)

	// OTP operations. SaveOTP replaces any prior challenge for the phone.
	SaveOTP(otp *models.OTP) error
	GetOTP(phone string) (*models.OTP, error)
	UpdateOTP(otp *models.OTP) error
	DeleteOTP(phone string) error

	// Session pointer operations
	SetCurrentSession(accountID string) error
	GetCurrentSession() (string, error)
	ClearCurrentSession() error
}
