package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickserve/quickserve-backend/internal/models"
)

// MemoryStore holds all data in memory for development and tests
type MemoryStore struct {
	accounts map[string]*models.Account // keyed by phone
	otps     map[string]*models.OTP     // keyed by phone
	session  string                     // current account id, "" when logged out

	// Mutexes for thread safety
	accountMu sync.RWMutex
	otpMu     sync.RWMutex
	sessionMu sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*models.Account),
		otps:     make(map[string]*models.OTP),
	}
}

// Account operations

func (m *MemoryStore) CreateAccount(account *models.Account) (*models.Account, error) {
	m.accountMu.Lock()
	defer m.accountMu.Unlock()

	if _, exists := m.accounts[account.Phone]; exists {
		return nil, ErrDuplicatePhone
	}

	if account.AccountID == "" {
		account.AccountID = uuid.NewString()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	m.accounts[account.Phone] = account
	return account, nil
}

func (m *MemoryStore) GetAccountByPhone(phone string) (*models.Account, error) {
	m.accountMu.RLock()
	defer m.accountMu.RUnlock()

	account, exists := m.accounts[phone]
	if !exists {
		return nil, ErrNotFound
	}
	return account, nil
}

func (m *MemoryStore) GetAccountByID(accountID string) (*models.Account, error) {
	m.accountMu.RLock()
	defer m.accountMu.RUnlock()

	for _, account := range m.accounts {
		if account.AccountID == accountID {
			return account, nil
		}
	}
	return nil, ErrNotFound
}

// OTP operations

func (m *MemoryStore) SaveOTP(otp *models.OTP) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	m.otps[otp.Phone] = otp
	return nil
}

func (m *MemoryStore) GetOTP(phone string) (*models.OTP, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	otp, exists := m.otps[phone]
	if !exists {
		return nil, ErrNotFound
	}
	return otp, nil
}

func (m *MemoryStore) UpdateOTP(otp *models.OTP) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	if _, exists := m.otps[otp.Phone]; !exists {
		return ErrNotFound
	}
	m.otps[otp.Phone] = otp
	return nil
}

func (m *MemoryStore) DeleteOTP(phone string) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	delete(m.otps, phone)
	return nil
}

// Session pointer operations

func (m *MemoryStore) SetCurrentSession(accountID string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	m.session = accountID
	return nil
}

func (m *MemoryStore) GetCurrentSession() (string, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	if m.session == "" {
		return "", ErrNotFound
	}
	return m.session, nil
}

func (m *MemoryStore) ClearCurrentSession() error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	m.session = ""
	return nil
}
