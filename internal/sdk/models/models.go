// Package models defines data models for the account service.
package models

import "time"

// Account represents a registered user.
//
// An account is either pending (IsActive false, VerificationCode set) or
// active (IsActive true, VerificationCode nil). The storage schema rejects
// any other combination.
type Account struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	Password              []byte     `json:"-"`
	IsActive              bool       `json:"is_active"`
	VerificationCode      *string    `json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	VerificationAttempts  int        `json:"-"`
	IsAdmin               bool       `json:"is_admin"`
	Phone                 *string    `json:"phone,omitempty"`
	Photo                 *string    `json:"photo,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Pending reports whether the account still awaits email verification.
func (a Account) Pending() bool {
	return !a.IsActive && a.VerificationCode != nil
}

// NewAccount carries the fields written by a single registration insert.
type NewAccount struct {
	ID                    string
	Name                  string
	Email                 string
	Password              []byte
	VerificationCode      string
	VerificationExpiresAt time.Time
	Phone                 *string
	Photo                 *string
}
