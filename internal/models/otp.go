package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP is the active one-time-password challenge for a phone number.
// At most one challenge exists per phone; a new send replaces the old row.
type OTP struct {
	gorm.Model
	Phone        string    `gorm:"not null;uniqueIndex"`
	Code         string    `gorm:"not null"` // 6 digits
	ExpiresAt    time.Time `gorm:"not null"`
	ResendAt     time.Time `gorm:"not null"` // resend refused before this instant
	AttemptsLeft int       `gorm:"default:3"`
}

// Expired reports whether the challenge is past its TTL at the given instant.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// ResendAllowed reports whether the cooldown has elapsed at the given instant.
func (o *OTP) ResendAllowed(now time.Time) bool {
	return !now.Before(o.ResendAt)
}
