package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeInternal TransactionType = "INTERNAL"
	TransactionTypeExternal TransactionType = "EXTERNAL"
)

// TransactionStatus represents the lifecycle state of a transaction.
// PENDING is the only initial state; COMPLETED and FAILED are terminal
// and a terminal transaction never transitions again.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger entry for a funds movement.
// Internal transfers carry both wallet ids once resolved; external
// transfers never carry a destination wallet.
type Transaction struct {
	ID                uuid.UUID         `json:"id"`
	Amount            decimal.Decimal   `json:"amount"`
	Description       string            `json:"description"`
	Type              TransactionType   `json:"type"`
	Status            TransactionStatus `json:"status"`
	TransactionHash   string            `json:"transaction_hash"`
	FromUserID        uuid.UUID         `json:"from_user_id"`
	FromWalletID      uuid.UUID         `json:"from_wallet_id"`
	ToUserID          *uuid.UUID        `json:"to_user_id,omitempty"`
	ToWalletID        *uuid.UUID        `json:"to_wallet_id,omitempty"`
	ExternalProvider  *string           `json:"external_provider,omitempty"`
	ExternalReference *string           `json:"external_reference,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted ||
		t.Status == TransactionStatusFailed
}

// NewTransactionHash generates the unique hash used for idempotent
// identification of a ledger entry.
func NewTransactionHash() string {
	return fmt.Sprintf("TXH_%d_%08x", time.Now().UnixMilli(), rand.Uint32())
}
