package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	recentLimit  = 5

	defaultExternalProvider = "default_provider"
)

// TransferServiceImpl implements ports.TransferService — the transfer
// engine. It composes the wallet store, the ledger, the external
// gateway and the read cache into one logical operation per request:
// validate, create a PENDING ledger row, mutate funds (or call the
// gateway), mark the row terminal, invalidate cached listings.
//
// Once a PENDING row exists every failure path still persists a FAILED
// row before propagating the error, so the ledger always retains the
// attempt. Cache failures are logged and absorbed, never surfaced.
type TransferServiceImpl struct {
	walletSvc      ports.WalletService
	txRepo         ports.TransactionRepository
	userRepo       ports.UserRepository
	cache          ports.TransactionCache
	gateway        ports.PaymentGateway
	cacheTTL       time.Duration
	gatewayTimeout time.Duration
	log            zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	walletSvc ports.WalletService,
	txRepo ports.TransactionRepository,
	userRepo ports.UserRepository,
	cache ports.TransactionCache,
	gateway ports.PaymentGateway,
	cacheTTL time.Duration,
	gatewayTimeout time.Duration,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		walletSvc:      walletSvc,
		txRepo:         txRepo,
		userRepo:       userRepo,
		cache:          cache,
		gateway:        gateway,
		cacheTTL:       cacheTTL,
		gatewayTimeout: gatewayTimeout,
		log:            log,
	}
}

// CreateTransaction validates and executes a transfer on behalf of
// userID, returning the terminal ledger entry on success.
func (s *TransferServiceImpl) CreateTransaction(ctx context.Context, userID uuid.UUID, req ports.CreateTransactionRequest) (*domain.Transaction, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrInvalidIdentifier("User ID")
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	wallets, err := s.walletSvc.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, apperror.ErrNoActiveWallet()
	}
	// Policy: the user's first active wallet is the default source of
	// funds. Deterministic, so tests and callers can rely on it.
	fromWallet := &wallets[0]

	if strings.TrimSpace(req.ToWalletNumber) == "" {
		return nil, apperror.ErrMissingRecipient(strings.ToLower(string(req.Type)))
	}

	switch req.Type {
	case domain.TransactionTypeInternal:
		return s.processInternal(ctx, fromWallet, req)
	case domain.TransactionTypeExternal:
		return s.processExternal(ctx, fromWallet, req)
	default:
		return nil, apperror.Validation(fmt.Sprintf("Unknown transaction type %q", req.Type))
	}
}

// processInternal executes a wallet-to-wallet transfer. An unknown
// recipient wallet number provisions a brand-new owner and wallet for
// it — paying to an address that doesn't exist yet creates the
// account.
func (s *TransferServiceImpl) processInternal(ctx context.Context, fromWallet *domain.Wallet, req ports.CreateTransactionRequest) (*domain.Transaction, error) {
	toWallet, err := s.walletSvc.FindByNumber(ctx, req.ToWalletNumber)
	if err != nil {
		return nil, err
	}
	if toWallet == nil {
		toWallet, err = s.provisionRecipient(ctx)
		if err != nil {
			return nil, err
		}
	}

	// Re-fetch the source for a current balance; the initial resolve may
	// be stale under concurrent transfers. The atomic check inside
	// Transfer remains the final authority.
	fresh, err := s.walletSvc.FindByID(ctx, fromWallet.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, apperror.ErrNotFound("Sender wallet")
	}
	if !fresh.CanFund(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	txn := &domain.Transaction{
		ID:              uuid.New(),
		Amount:          req.Amount,
		Description:     req.Description,
		Type:            domain.TransactionTypeInternal,
		Status:          domain.TransactionStatusPending,
		TransactionHash: domain.NewTransactionHash(),
		FromUserID:      fresh.UserID,
		FromWalletID:    fresh.ID,
		ToUserID:        &toWallet.UserID,
		ToWalletID:      &toWallet.ID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.txRepo.Create(ctx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create pending transaction: %w", err))
	}

	if err := s.walletSvc.Transfer(ctx, fresh.ID, toWallet.ID, req.Amount); err != nil {
		s.markFailed(ctx, txn)
		return nil, err
	}

	s.markCompleted(ctx, txn, nil)
	s.invalidateFor(ctx, fresh.UserID, toWallet.UserID)

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("from_wallet", fresh.ID.String()).
		Str("to_wallet", toWallet.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("internal transfer completed")
	return txn, nil
}

// processExternal executes a transfer to an outside system. Funds are
// reserved (debited) before the gateway call and returned if the
// gateway rejects or times out, so the wallet can never end up funding
// two transfers with the same money during the call window.
func (s *TransferServiceImpl) processExternal(ctx context.Context, fromWallet *domain.Wallet, req ports.CreateTransactionRequest) (*domain.Transaction, error) {
	fresh, err := s.walletSvc.FindByID(ctx, fromWallet.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, apperror.ErrNotFound("Sender wallet")
	}
	if !fresh.CanFund(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	provider := defaultExternalProvider
	if req.ExternalProvider != nil && *req.ExternalProvider != "" {
		provider = *req.ExternalProvider
	}

	txn := &domain.Transaction{
		ID:               uuid.New(),
		Amount:           req.Amount,
		Description:      req.Description,
		Type:             domain.TransactionTypeExternal,
		Status:           domain.TransactionStatusPending,
		TransactionHash:  domain.NewTransactionHash(),
		FromUserID:       fresh.UserID,
		FromWalletID:     fresh.ID,
		ExternalProvider: &provider,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.txRepo.Create(ctx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create pending transaction: %w", err))
	}

	// Reserve the funds before the money leaves the system.
	if err := s.walletSvc.Debit(ctx, fresh.ID, req.Amount); err != nil {
		s.markFailed(ctx, txn)
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	result, err := s.gateway.ProcessExternalTransfer(gwCtx, ports.ExternalTransferRequest{
		Amount:      req.Amount,
		ToAddress:   req.ToWalletNumber,
		Description: req.Description,
		Provider:    provider,
	})
	if err != nil {
		s.refund(ctx, fresh.ID, req.Amount, txn.ID)
		s.markFailed(ctx, txn)
		return nil, apperror.ErrExternalTransferRejected(fmt.Sprintf("External provider unreachable: %v", err))
	}
	if !result.Success {
		s.refund(ctx, fresh.ID, req.Amount, txn.ID)
		s.markFailed(ctx, txn)
		return nil, apperror.ErrExternalTransferRejected(result.Message)
	}

	s.markCompleted(ctx, txn, &result.ExternalReference)
	s.invalidateFor(ctx, fresh.UserID)

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("provider", provider).
		Str("external_reference", result.ExternalReference).
		Str("amount", req.Amount.String()).
		Msg("external transfer completed")
	return txn, nil
}

// provisionRecipient mints a new owner and wallet for an unknown
// recipient wallet number.
func (s *TransferServiceImpl) provisionRecipient(ctx context.Context) (*domain.Wallet, error) {
	newUser := &domain.User{
		ID:            uuid.New(),
		IsProvisioned: true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, apperror.ErrProvisioningFailure(fmt.Errorf("create recipient user: %w", err))
	}

	wallet, err := s.walletSvc.CreateWallet(ctx, newUser.ID, domain.WalletTypePersonal)
	if err != nil {
		return nil, apperror.ErrProvisioningFailure(fmt.Errorf("create recipient wallet: %w", err))
	}

	s.log.Info().
		Str("user_id", newUser.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Msg("auto-provisioned recipient for unknown wallet number")
	return wallet, nil
}

// markCompleted transitions the PENDING row to COMPLETED. The funds
// already moved, so a failure here is logged loudly rather than undone.
func (s *TransferServiceImpl) markCompleted(ctx context.Context, txn *domain.Transaction, externalRef *string) {
	if err := s.txRepo.UpdateStatus(ctx, txn.ID, domain.TransactionStatusCompleted, externalRef); err != nil {
		s.log.Error().Err(err).
			Str("tx_id", txn.ID.String()).
			Msg("funds moved but transaction could not be marked completed")
		return
	}
	txn.Status = domain.TransactionStatusCompleted
	txn.ExternalReference = externalRef
}

// markFailed records the failed attempt. The row must survive — the
// ledger keeps failed attempts as an audit trail.
func (s *TransferServiceImpl) markFailed(ctx context.Context, txn *domain.Transaction) {
	if err := s.txRepo.UpdateStatus(ctx, txn.ID, domain.TransactionStatusFailed, nil); err != nil {
		s.log.Error().Err(err).
			Str("tx_id", txn.ID.String()).
			Msg("failed to record FAILED status")
		return
	}
	txn.Status = domain.TransactionStatusFailed
}

// refund returns reserved funds after a rejected external transfer. A
// refund failure leaves money in limbo and is the one condition that
// warrants an operator page, so it is logged at error level with both
// ids.
func (s *TransferServiceImpl) refund(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, txID uuid.UUID) {
	if err := s.walletSvc.Credit(ctx, walletID, amount); err != nil {
		s.log.Error().Err(err).
			Str("wallet_id", walletID.String()).
			Str("tx_id", txID.String()).
			Str("amount", amount.String()).
			Msg("failed to return reserved funds after rejected external transfer")
	}
}

// invalidateFor removes all cached listing entries for the given users.
// Best-effort: errors are logged, never propagated.
func (s *TransferServiceImpl) invalidateFor(ctx context.Context, userIDs ...uuid.UUID) {
	for _, uid := range userIDs {
		if err := s.cache.DeleteAllKeysFor(ctx, uid); err != nil {
			s.log.Warn().Err(err).
				Str("user_id", uid.String()).
				Msg("cache invalidation failed")
		}
	}
}

// FindUserTransactions serves a paginated listing for the user,
// cache-first.
func (s *TransferServiceImpl) FindUserTransactions(ctx context.Context, userID uuid.UUID, page, limit int) (*ports.TransactionPage, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrInvalidIdentifier("User ID")
	}
	page, limit = normalizePageParams(page, limit)

	cacheKey := fmt.Sprintf("user_transactions_%s_%d_%d", userID, page, limit)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		result := &ports.TransactionPage{}
		if err := json.Unmarshal(cached, result); err == nil {
			return result, nil
		}
		s.log.Warn().Str("key", cacheKey).Msg("discarding undecodable cache entry")
	}

	txns, total, err := s.txRepo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list user transactions: %w", err))
	}

	result := &ports.TransactionPage{
		Data:       txns,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
	s.cachePut(ctx, userID, cacheKey, result)
	return result, nil
}

// GetRecentTransactions serves the user's five newest transactions,
// cache-first.
func (s *TransferServiceImpl) GetRecentTransactions(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrInvalidIdentifier("User ID")
	}

	cacheKey := fmt.Sprintf("last_five_transactions_%s", userID)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		var txns []domain.Transaction
		if err := json.Unmarshal(cached, &txns); err == nil {
			return txns, nil
		}
		s.log.Warn().Str("key", cacheKey).Msg("discarding undecodable cache entry")
	}

	txns, err := s.txRepo.ListRecentByUser(ctx, userID, recentLimit)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list recent transactions: %w", err))
	}

	s.cachePut(ctx, userID, cacheKey, txns)
	return txns, nil
}

// FindByID fetches a single ledger entry.
func (s *TransferServiceImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if id == uuid.Nil {
		return nil, apperror.ErrInvalidIdentifier("Transaction ID")
	}

	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}
	return txn, nil
}

// FindAll serves the administrative, unfiltered listing. Not cached:
// admin reads are rare and must be current.
func (s *TransferServiceImpl) FindAll(ctx context.Context, page, limit int) (*ports.TransactionPage, error) {
	page, limit = normalizePageParams(page, limit)

	txns, total, err := s.txRepo.List(ctx, page, limit)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list transactions: %w", err))
	}

	return &ports.TransactionPage{
		Data:       txns,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (s *TransferServiceImpl) cacheGet(ctx context.Context, key string) []byte {
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling through to ledger")
		return nil
	}
	return cached
}

func (s *TransferServiceImpl) cachePut(ctx context.Context, userID uuid.UUID, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		return
	}
	if err := s.cache.RegisterKey(ctx, userID, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache key registration failed")
	}
}

func normalizePageParams(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
