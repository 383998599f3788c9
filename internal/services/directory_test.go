package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickserve/quickserve-backend/internal/models"
	"github.com/quickserve/quickserve-backend/internal/storage"
)

func TestCreateRequiresName(t *testing.T) {
	d := NewUserDirectory(storage.NewMemoryStore())

	_, err := d.Create(&models.Registration{
		Phone: "9876543210",
		Role:  models.RoleCustomer,
	})
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestCreateProviderRequiresServices(t *testing.T) {
	d := NewUserDirectory(storage.NewMemoryStore())

	_, err := d.Create(&models.Registration{
		Phone:    "9876543210",
		FullName: "Ravi Kumar",
		Role:     models.RoleProvider,
		Services: []string{},
	})
	assert.ErrorIs(t, err, ErrMissingServices)

	// Whitespace-only entries do not count as a selected category.
	_, err = d.Create(&models.Registration{
		Phone:    "9876543210",
		FullName: "Ravi Kumar",
		Role:     models.RoleProvider,
		Services: []string{"  "},
	})
	assert.ErrorIs(t, err, ErrMissingServices)
}

func TestCreateCustomerWithoutServices(t *testing.T) {
	d := NewUserDirectory(storage.NewMemoryStore())

	account, err := d.Create(&models.Registration{
		Phone:    "9876543210",
		FullName: "Asha Rao",
		Role:     models.RoleCustomer,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, account.AccountID)
	assert.True(t, account.Verified)
	assert.Empty(t, account.ServiceList())
}

func TestCreateEnforcesPhoneUniqueness(t *testing.T) {
	d := NewUserDirectory(storage.NewMemoryStore())

	reg := &models.Registration{
		Phone:    "9876543210",
		FullName: "Asha Rao",
		Role:     models.RoleCustomer,
	}
	_, err := d.Create(reg)
	require.NoError(t, err)

	_, err = d.Create(reg)
	assert.ErrorIs(t, err, ErrDuplicatePhone)
}

func TestFindByPhoneMissReturnsNil(t *testing.T) {
	d := NewUserDirectory(storage.NewMemoryStore())

	account, err := d.FindByPhone("9876543210")
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestSessionPointerLifecycle(t *testing.T) {
	d := NewUserDirectory(storage.NewMemoryStore())

	account, err := d.Create(&models.Registration{
		Phone:    "9876543210",
		FullName: "Asha Rao",
		Role:     models.RoleCustomer,
	})
	require.NoError(t, err)

	// Nobody logged in yet.
	current, err := d.CurrentSession()
	require.NoError(t, err)
	assert.Nil(t, current)

	require.NoError(t, d.SetCurrentSession(account.AccountID))
	current, err = d.CurrentSession()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, account.AccountID, current.AccountID)

	require.NoError(t, d.ClearCurrentSession())
	current, err = d.CurrentSession()
	require.NoError(t, err)
	assert.Nil(t, current)
}
