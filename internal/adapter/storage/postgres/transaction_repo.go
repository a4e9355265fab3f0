package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, amount, description, type, status, transaction_hash,
	from_user_id, from_wallet_id, to_user_id, to_wallet_id,
	external_provider, external_reference, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.Amount, &t.Description, &t.Type, &t.Status, &t.TransactionHash,
		&t.FromUserID, &t.FromWalletID, &t.ToUserID, &t.ToWalletID,
		&t.ExternalProvider, &t.ExternalReference, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create appends a new ledger entry. Rows are immutable apart from the
// status transition handled by UpdateStatus; nothing is ever deleted.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, amount, description, type, status, transaction_hash,
		from_user_id, from_wallet_id, to_user_id, to_wallet_id,
		external_provider, external_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Amount, t.Description, t.Type, t.Status, t.TransactionHash,
		t.FromUserID, t.FromWalletID, t.ToUserID, t.ToWalletID,
		t.ExternalProvider, t.ExternalReference, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID. Returns nil, nil when absent.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// UpdateStatus moves a PENDING transaction to a terminal status. The
// WHERE clause refuses to touch rows already terminal, which keeps the
// status monotonic even under racing writers.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, externalRef *string) error {
	query := `UPDATE transactions SET status = $1, external_reference = COALESCE($2, external_reference)
		WHERE id = $3 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, query, status, externalRef, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not pending: %s", id)
	}
	return nil
}

// ListByUser fetches transactions where the user is sender or recipient,
// newest first, with the total count for pagination.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]domain.Transaction, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE from_user_id = $1 OR to_user_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user transactions: %w", err)
	}

	offset := (page - 1) * limit
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list user transactions: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListRecentByUser fetches the user's newest transactions up to limit.
func (r *TransactionRepo) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// List fetches all transactions, newest first (administrative view).
func (r *TransactionRepo) List(ctx context.Context, page, limit int) ([]domain.Transaction, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (page - 1) * limit
	query := `SELECT ` + transactionColumns + ` FROM transactions
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		if err := rows.Scan(
			&t.ID, &t.Amount, &t.Description, &t.Type, &t.Status, &t.TransactionHash,
			&t.FromUserID, &t.FromWalletID, &t.ToUserID, &t.ToWalletID,
			&t.ExternalProvider, &t.ExternalReference, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}
