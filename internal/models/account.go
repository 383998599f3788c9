package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role determines which onboarding steps an account had to pass.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleProvider
}

// Account represents a registered QuickServe user.
type Account struct {
	gorm.Model

	AccountID string `json:"account_id" gorm:"uniqueIndex"`
	Phone     string `json:"phone" gorm:"uniqueIndex"` // digits only, 10 chars
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	// Services holds the provider's category ids as a comma-joined list.
	// Empty for customers.
	Services string `json:"-"`
	Verified bool   `json:"verified" gorm:"default:false"`
}

// BeforeCreate hook to allocate the public account id.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == "" {
		a.AccountID = uuid.NewString()
	}
	return nil
}

// ServiceList splits the stored services column back into category ids.
func (a *Account) ServiceList() []string {
	if a.Services == "" {
		return []string{}
	}
	return strings.Split(a.Services, ",")
}

// SetServiceList stores the category ids, dropping empty entries.
func (a *Account) SetServiceList(services []string) {
	var kept []string
	for _, s := range services {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	a.Services = strings.Join(kept, ",")
}

// Registration carries the profile-setup form data for a new account.
type Registration struct {
	Phone    string   `json:"phone"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     Role     `json:"role"`
	Services []string `json:"services"`
}
