package model

import (
	"github.com/shopspring/decimal"
)

// Account is the per-client balance state. Accounts are created lazily on
// first reference and mutated only by the ledger; Total is always derived
// so it cannot drift from Available+Held.
type Account struct {
	ClientID  uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

// NewAccount returns a zero-balance, unlocked account for the client.
func NewAccount(clientID uint16) *Account {
	return &Account{
		ClientID:  clientID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

// Total is the sum of available and held funds.
func (a *Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}
