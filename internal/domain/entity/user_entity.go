package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the soft-delete lifecycle shared by users, services, banners and
// transaction histories.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// User is the aggregate root for the membership domain.
// Email is stored trimmed and lower-cased and is the natural key; ID is used for
// every foreign key. PasswordHash is bcrypt(password + Salt).
//
// Balance is only ever changed by the ledger and never goes below zero.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Salt         string
	PasswordHash string
	ProfileImage string
	Balance      decimal.Decimal
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
