package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quickserve/quickserve-backend/internal/models"
)

// DatabaseStore persists records in PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Account operations

func (d *DatabaseStore) CreateAccount(account *models.Account) (*models.Account, error) {
	var existing models.Account
	err := d.db.Where("phone = ?", account.Phone).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicatePhone
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := d.db.Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (d *DatabaseStore) GetAccountByPhone(phone string) (*models.Account, error) {
	var account models.Account
	err := d.db.Where("phone = ?", phone).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (d *DatabaseStore) GetAccountByID(accountID string) (*models.Account, error) {
	var account models.Account
	err := d.db.Where("account_id = ?", accountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// OTP operations

func (d *DatabaseStore) SaveOTP(otp *models.OTP) error {
	// One challenge per phone: a new send overwrites the old row.
	if err := d.db.Unscoped().Where("phone = ?", otp.Phone).Delete(&models.OTP{}).Error; err != nil {
		return err
	}
	return d.db.Create(otp).Error
}

func (d *DatabaseStore) GetOTP(phone string) (*models.OTP, error) {
	var otp models.OTP
	err := d.db.Where("phone = ?", phone).First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (d *DatabaseStore) UpdateOTP(otp *models.OTP) error {
	return d.db.Save(otp).Error
}

func (d *DatabaseStore) DeleteOTP(phone string) error {
	return d.db.Unscoped().Where("phone = ?", phone).Delete(&models.OTP{}).Error
}

// Session pointer operations

func (d *DatabaseStore) SetCurrentSession(accountID string) error {
	ptr := models.SessionPointer{AccountID: accountID}
	ptr.ID = 1
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_id", "updated_at"}),
	}).Create(&ptr).Error
}

func (d *DatabaseStore) GetCurrentSession() (string, error) {
	var ptr models.SessionPointer
	err := d.db.First(&ptr, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return ptr.AccountID, nil
}

func (d *DatabaseStore) ClearCurrentSession() error {
	return d.db.Unscoped().Delete(&models.SessionPointer{}, 1).Error
}
