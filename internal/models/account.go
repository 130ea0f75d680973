// Package models contains data structures for the application's domain models.
package models

import "time"

// Role identifies which actor class an account belongs to.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleVendor Role = "vendor"
	RoleUser   Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVendor, RoleUser:
		return true
	}
	return false
}

// AccountStatus is the login eligibility of an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusDisabled AccountStatus = "disabled"
)

// Account is an admin, vendor or end-user login.
// SessionVersion is embedded in every issued token; bumping it invalidates them all.
type Account struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Name           string        `gorm:"size:120;not null" json:"name"`
	Email          string        `gorm:"size:254;not null;uniqueIndex" json:"email"`
	PasswordHash   string        `gorm:"not null" json:"-"`
	Role           Role          `gorm:"type:varchar(16);not null;index" json:"role"`
	Status         AccountStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	Slug           string        `gorm:"size:140;index" json:"slug"`
	SessionVersion int           `gorm:"not null;default:1" json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	LastLoginAt    *time.Time    `json:"last_login_at"`
}

// IsActive reports whether the account may authenticate.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
