package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionCache is the Redis-layer read cache for ledger queries.
// It is best-effort: callers log and continue on any error. Alongside
// plain get/set/delete it maintains a per-user registry of outstanding
// keys so that an invalidation can target the full set, including every
// paginated variant.
type TransactionCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	RegisterKey(ctx context.Context, userID uuid.UUID, key string) error
	DeleteAllKeysFor(ctx context.Context, userID uuid.UUID) error
}

// PaymentGateway is the external payment network collaborator. Success
// is non-deterministic from the engine's point of view; the call must
// honor ctx cancellation so an unresponsive provider cannot stall the
// caller indefinitely.
type PaymentGateway interface {
	ProcessExternalTransfer(ctx context.Context, req ExternalTransferRequest) (*ExternalTransferResult, error)
}

// ExternalTransferRequest carries the details handed to the provider.
type ExternalTransferRequest struct {
	Amount      decimal.Decimal
	ToAddress   string
	Description string
	Provider    string
}

// ExternalTransferResult is the provider's verdict.
type ExternalTransferResult struct {
	Success           bool
	TransactionID     string
	ExternalReference string
	Message           string
}

// --- Service Ports (Business Logic) ---

// WalletService owns wallet lifecycle and the atomic transfer primitive.
type WalletService interface {
	CreateWallet(ctx context.Context, userID uuid.UUID, walletType domain.WalletType) (*domain.Wallet, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	FindByNumber(ctx context.Context, walletNumber string) (*domain.Wallet, error)
	FindByID(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	// Transfer debits exactly amount from the source wallet and credits
	// it to the destination as a single atomic unit. Balance and amount
	// are re-validated at mutation time under row locks.
	Transfer(ctx context.Context, fromWalletID, toWalletID uuid.UUID, amount decimal.Decimal) error
	// Debit withdraws amount from a single wallet under a row lock,
	// re-validating the balance at mutation time. Used to reserve funds
	// before an external transfer leaves the system.
	Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	// Credit deposits amount into a single wallet under a row lock.
	// Used to return reserved funds when an external transfer fails.
	Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	Deactivate(ctx context.Context, walletID uuid.UUID) error
}

// TransferService is the transfer engine: it validates, executes and
// records balance-affecting operations, and serves the read side
// through the cache.
type TransferService interface {
	CreateTransaction(ctx context.Context, userID uuid.UUID, req CreateTransactionRequest) (*domain.Transaction, error)
	FindUserTransactions(ctx context.Context, userID uuid.UUID, page, limit int) (*TransactionPage, error)
	GetRecentTransactions(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindAll(ctx context.Context, page, limit int) (*TransactionPage, error)
}

// CreateTransactionRequest holds validated input for a transfer.
// ToWalletNumber doubles as the provider-specific destination address
// for external transfers.
type CreateTransactionRequest struct {
	Amount           decimal.Decimal
	Description      string
	Type             domain.TransactionType
	ToWalletNumber   string
	ExternalProvider *string
}

// TransactionPage is a paginated ledger query result.
type TransactionPage struct {
	Data       []domain.Transaction `json:"data"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}
