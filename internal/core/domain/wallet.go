package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletType classifies a wallet by its owner profile.
type WalletType string

const (
	WalletTypePersonal WalletType = "PERSONAL"
	WalletTypeBusiness WalletType = "BUSINESS"
)

// Wallet is an account-like balance holder belonging to a user.
// Balance is only ever mutated inside the wallet store's transfer
// primitive (or seeded at creation) and never drops below zero.
type Wallet struct {
	ID           uuid.UUID       `json:"id"`
	WalletNumber string          `json:"wallet_number"`
	Balance      decimal.Decimal `json:"balance"`
	Type         WalletType      `json:"type"`
	IsActive     bool            `json:"is_active"`
	UserID       uuid.UUID       `json:"user_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CanFund reports whether the wallet holds at least amount.
func (w *Wallet) CanFund(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// NewWalletNumber generates an externally addressable wallet number.
// The timestamp plus random suffix keeps collisions rare; uniqueness is
// ultimately enforced by the store's unique constraint, and callers must
// retry on a constraint violation.
func NewWalletNumber() string {
	return fmt.Sprintf("W%d%04d", time.Now().UnixMilli(), rand.Intn(10000))
}
