package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountTypeTenant   AccountType = "TENANT"
	AccountTypeLandlord AccountType = "LANDLORD"
)

// Account is the contact record behind a tenant or landlord id. Auth is
// issued elsewhere; this service only reads accounts for ownership
// checks and notifications.
type Account struct {
	ID          uuid.UUID   `json:"id"`
	AccountType AccountType `json:"account_type"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Email       string      `json:"email"`
	PhoneNumber string      `json:"phone_number"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}
