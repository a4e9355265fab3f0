package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// Wallet number collisions are rare; a couple of retries against the
	// unique constraint is plenty.
	walletNumberRetries = 3

	pgUniqueViolation = "23505"
)

// WalletServiceImpl implements ports.WalletService. It is the only
// component that mutates wallet balances, and every mutation happens
// inside a database transaction holding row locks on the wallets it
// touches.
type WalletServiceImpl struct {
	walletRepo  ports.WalletRepository
	transactor  ports.DBTransactor
	seedBalance decimal.Decimal
	log         zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl. seedBalance is the
// fixed starting grant for newly created wallets.
func NewWalletService(
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	seedBalance decimal.Decimal,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo:  walletRepo,
		transactor:  transactor,
		seedBalance: seedBalance,
		log:         log,
	}
}

// CreateWallet allocates a unique wallet number, seeds the starting
// grant and persists the wallet. The store's unique constraint is the
// final authority on number uniqueness; on a collision the number is
// regenerated and the insert retried.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, userID uuid.UUID, walletType domain.WalletType) (*domain.Wallet, error) {
	if walletType == "" {
		walletType = domain.WalletTypePersonal
	}

	var lastErr error
	for attempt := 0; attempt < walletNumberRetries; attempt++ {
		now := time.Now().UTC()
		w := &domain.Wallet{
			ID:           uuid.New(),
			WalletNumber: domain.NewWalletNumber(),
			Balance:      s.seedBalance,
			Type:         walletType,
			IsActive:     true,
			UserID:       userID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		err := s.walletRepo.Create(ctx, w)
		if err == nil {
			s.log.Info().
				Str("wallet_id", w.ID.String()).
				Str("wallet_number", w.WalletNumber).
				Str("user_id", userID.String()).
				Msg("wallet created")
			return w, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			lastErr = err
			continue
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}
	return nil, apperror.ErrDatabaseError(fmt.Errorf("wallet number collisions exhausted retries: %w", lastErr))
}

// FindActiveByUser returns the user's active wallets, first-created
// first.
func (s *WalletServiceImpl) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallets: %w", err))
	}
	return wallets, nil
}

// FindByNumber resolves an active wallet by its public number. Returns
// nil, nil when absent.
func (s *WalletServiceImpl) FindByNumber(ctx context.Context, walletNumber string) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByNumber(ctx, walletNumber)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallet by number: %w", err))
	}
	return w, nil
}

// FindByID fetches an active wallet by id. Returns nil, nil when absent.
func (s *WalletServiceImpl) FindByID(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallet by id: %w", err))
	}
	return w, nil
}

// Transfer moves amount between two wallets as one atomic unit. Both
// rows are locked FOR UPDATE in deterministic id order so concurrent
// transfers on overlapping pairs serialize instead of deadlocking,
// while disjoint pairs proceed unblocked. Amount and balance are
// re-validated here, at the moment of mutation, because the balance may
// have moved since the caller's pre-check.
func (s *WalletServiceImpl) Transfer(ctx context.Context, fromWalletID, toWalletID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if fromWalletID == toWalletID {
		return apperror.Validation("Source and destination wallets must differ")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock in id order to prevent AB/BA deadlocks.
	firstID, secondID := fromWalletID, toWalletID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}

	first, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, firstID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	second, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, secondID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if first == nil || second == nil {
		return apperror.ErrNotFound("Wallet")
	}

	fromWallet, toWallet := first, second
	if fromWallet.ID != fromWalletID {
		fromWallet, toWallet = second, first
	}

	if !fromWallet.CanFund(amount) {
		return apperror.ErrInsufficientFunds()
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, fromWallet.ID, fromWallet.Balance.Sub(amount)); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("debit source: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, toWallet.ID, toWallet.Balance.Add(amount)); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("credit destination: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit transfer: %w", err))
	}

	s.log.Info().
		Str("from_wallet", fromWalletID.String()).
		Str("to_wallet", toWalletID.String()).
		Str("amount", amount.String()).
		Msg("transfer committed")
	return nil
}

// Debit withdraws amount from one wallet under a row lock, re-checking
// the balance at mutation time. It is the reservation step of an
// external transfer.
func (s *WalletServiceImpl) Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	return s.adjust(ctx, walletID, amount.Neg())
}

// Credit deposits amount into one wallet under a row lock. It returns
// reserved funds when an external transfer fails.
func (s *WalletServiceImpl) Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	return s.adjust(ctx, walletID, amount)
}

func (s *WalletServiceImpl) adjust(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, walletID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if w == nil {
		return apperror.ErrNotFound("Wallet")
	}

	newBalance := w.Balance.Add(delta)
	if newBalance.IsNegative() {
		return apperror.ErrInsufficientFunds()
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, w.ID, newBalance); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update balance: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit adjustment: %w", err))
	}
	return nil
}

// Deactivate soft-disables a wallet; wallets are never hard-deleted.
func (s *WalletServiceImpl) Deactivate(ctx context.Context, walletID uuid.UUID) error {
	if err := s.walletRepo.Deactivate(ctx, walletID); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("deactivate wallet: %w", err))
	}
	return nil
}
