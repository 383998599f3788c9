package services

import (
	"errors"

	"github.com/quickserve/quickserve-backend/internal/models"
	"github.com/quickserve/quickserve-backend/internal/storage"
)

var (
	// ErrMissingName means the profile form had no full name.
	ErrMissingName = errors.New("full name is required")
	// ErrMissingServices means a provider registered with no service categories.
	ErrMissingServices = errors.New("select at least one service category")
	// ErrDuplicatePhone re-exports the store invariant for callers that match
	// on directory errors.
	ErrDuplicatePhone = storage.ErrDuplicatePhone
)

// UserDirectory owns account records and the process-wide session pointer.
type UserDirectory struct {
	store storage.Store
}

// NewUserDirectory creates a directory over the given store
func NewUserDirectory(store storage.Store) *UserDirectory {
	return &UserDirectory{store: store}
}

// FindByPhone looks up an account, returning nil (no error) when absent.
func (d *UserDirectory) FindByPhone(phone string) (*models.Account, error) {
	account, err := d.store.GetAccountByPhone(phone)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Create validates the registration and persists a new account. The store
// re-checks phone uniqueness under its own lock, so a racing duplicate still
// comes back as ErrDuplicatePhone.
func (d *UserDirectory) Create(reg *models.Registration) (*models.Account, error) {
	if reg.FullName == "" {
		return nil, ErrMissingName
	}
	if reg.Role == models.RoleProvider && len(reg.Services) == 0 {
		return nil, ErrMissingServices
	}

	account := &models.Account{
		Phone:    reg.Phone,
		FullName: reg.FullName,
		Email:    reg.Email,
		Role:     reg.Role,
		Verified: true, // creation only happens after the verification path
	}
	account.SetServiceList(reg.Services)
	if account.Role == models.RoleProvider && account.Services == "" {
		return nil, ErrMissingServices
	}

	return d.store.CreateAccount(account)
}

// SetCurrentSession points the session at the account.
func (d *UserDirectory) SetCurrentSession(accountID string) error {
	return d.store.SetCurrentSession(accountID)
}

// CurrentSession resolves the session pointer to an account, or nil when
// logged out.
func (d *UserDirectory) CurrentSession() (*models.Account, error) {
	accountID, err := d.store.GetCurrentSession()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	account, err := d.store.GetAccountByID(accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ClearCurrentSession logs the current user out.
func (d *UserDirectory) ClearCurrentSession() error {
	return d.store.ClearCurrentSession()
}

// GetByID is a direct account lookup used by the authenticated API surface.
func (d *UserDirectory) GetByID(accountID string) (*models.Account, error) {
	return d.store.GetAccountByID(accountID)
}
