package models

import "gorm.io/gorm"

// SessionPointer is the durable "current user" pointer. A single row
// (primary key 1) exists at most; logout deletes it.
type SessionPointer struct {
	gorm.Model
	AccountID string `gorm:"not null"`
}
