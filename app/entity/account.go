package entity

import (
	"database/sql"
	"time"
)

type Account struct {
	ID              uint64
	Email           string
	CanonicalEmail  string
	PasswordHash    string
	Name            string
	Surnames        string
	PhoneNumber     string
	IsActive        bool
	IsStaff         bool
	IsVip           bool
	LastToken       sql.NullString
	IsUsedLastToken bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasOutstandingToken reports whether the stored token can still be consumed.
func (a *Account) HasOutstandingToken() bool {
	return a.LastToken.Valid && !a.IsUsedLastToken
}
