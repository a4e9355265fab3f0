package ports

import (
	"context"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for wallet owners.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for
// pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	// GetActiveByUserID returns the user's active wallets ordered by
	// creation time, so the first element is the deterministic default
	// source of funds.
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	// GetByNumber resolves an active wallet by its public-facing number.
	// Returns nil, nil when no such wallet exists.
	GetByNumber(ctx context.Context, walletNumber string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
	Deactivate(ctx context.Context, walletID uuid.UUID) error
}

// TransactionRepository defines persistence operations for the ledger.
// Rows are appended and status-updated, never deleted.
type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, externalRef *string) error
	// ListByUser returns transactions where the user is sender or
	// recipient, newest first, plus the total row count.
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]domain.Transaction, int64, error)
	// ListRecentByUser returns the user's newest transactions up to limit.
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error)
	// List returns all transactions, newest first, for administrative use.
	List(ctx context.Context, page, limit int) ([]domain.Transaction, int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
