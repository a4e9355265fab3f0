package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.WalletNumber == w.WalletNumber {
			// Same error shape the unique constraint produces.
			return &pgconn.PgError{Code: "23505", ConstraintName: "wallets_wallet_number_key"}
		}
	}
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

// GetByID mirrors the SQL repo: inactive wallets read as absent.
func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok || !w.IsActive {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetActiveByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Wallet
	for _, w := range r.wallets {
		if w.UserID == userID && w.IsActive {
			result = append(result, *w)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *inMemoryWalletRepo) GetByNumber(ctx context.Context, walletNumber string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.WalletNumber == walletNumber && w.IsActive {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByIDForUpdate ignores the active filter like its SQL counterpart;
// locking is provided by the serializing transactor.
func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	w.Balance = balance
	return nil
}

func (r *inMemoryWalletRepo) Deactivate(ctx context.Context, walletID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	w.IsActive = false
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// UpdateStatus keeps the status monotonic the same way the SQL guard
// does: terminal rows refuse further transitions.
func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, externalRef *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("transaction not pending: %s", id)
	}
	if t.Status != domain.TransactionStatusPending {
		return fmt.Errorf("transaction not pending: %s", id)
	}
	t.Status = status
	if externalRef != nil {
		t.ExternalReference = externalRef
	}
	return nil
}

func (r *inMemoryTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.FromUserID == userID || (t.ToUserID != nil && *t.ToUserID == userID) {
			result = append(result, *t)
		}
	}
	sortNewestFirst(result)
	total := int64(len(result))
	return paginate(result, page, limit), total, nil
}

func (r *inMemoryTransactionRepo) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	txns, _, err := r.ListByUser(ctx, userID, 1, limit)
	return txns, err
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, page, limit int) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Transaction, 0, len(r.transactions))
	for _, t := range r.transactions {
		result = append(result, *t)
	}
	sortNewestFirst(result)
	total := int64(len(result))
	return paginate(result, page, limit), total, nil
}

func sortNewestFirst(txns []domain.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
}

func paginate(txns []domain.Transaction, page, limit int) []domain.Transaction {
	start := (page - 1) * limit
	if start >= len(txns) {
		return []domain.Transaction{}
	}
	end := start + limit
	if end > len(txns) {
		end = len(txns)
	}
	return txns[start:end]
}

// --- Serializing Transactor ---

// serializingTransactor emulates row-lock serialization with one global
// mutex: a transaction holds the lock from Begin until Commit or
// Rollback. Coarser than per-row FOR UPDATE but preserves the property
// the engine relies on — concurrent transfers observe each other's
// committed balances, never intermediate ones.
type serializingTransactor struct {
	mu sync.Mutex
}

func newSerializingTransactor() *serializingTransactor {
	return &serializingTransactor{}
}

func (t *serializingTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &serialTx{release: func() { t.mu.Unlock() }}, nil
}

// serialTx is a pgx.Tx that releases the transactor lock exactly once,
// on whichever of Commit/Rollback runs first.
type serialTx struct {
	once    sync.Once
	release func()
}

func (t *serialTx) done() {
	t.once.Do(t.release)
}

func (t *serialTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *serialTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *serialTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *serialTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *serialTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *serialTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *serialTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *serialTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *serialTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *serialTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *serialTx) Conn() *pgx.Conn { return nil }
