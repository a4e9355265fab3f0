package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction() *domain.Transaction {
	toUser := uuid.New()
	toWallet := uuid.New()
	return &domain.Transaction{
		ID:              uuid.New(),
		Amount:          decimal.RequireFromString("100.00"),
		Description:     "rent split",
		Type:            domain.TransactionTypeInternal,
		Status:          domain.TransactionStatusPending,
		TransactionHash: domain.NewTransactionHash(),
		FromUserID:      uuid.New(),
		FromWalletID:    uuid.New(),
		ToUserID:        &toUser,
		ToWalletID:      &toWallet,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func txnCols() []string {
	return []string{
		"id", "amount", "description", "type", "status", "transaction_hash",
		"from_user_id", "from_wallet_id", "to_user_id", "to_wallet_id",
		"external_provider", "external_reference", "created_at",
	}
}

func txnRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(txnCols()).AddRow(
		t.ID, t.Amount, t.Description, t.Type, t.Status, t.TransactionHash,
		t.FromUserID, t.FromWalletID, t.ToUserID, t.ToWalletID,
		t.ExternalProvider, t.ExternalReference, t.CreatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.Amount, txn.Description, txn.Type, txn.Status, txn.TransactionHash,
			txn.FromUserID, txn.FromWalletID, txn.ToUserID, txn.ToWalletID,
			txn.ExternalProvider, txn.ExternalReference, txn.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()

	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE id").
		WithArgs(txn.ID).
		WillReturnRows(txnRow(txn))

	got, err := repo.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, txn.TransactionHash, got.TransactionHash)
	assert.Equal(t, domain.TransactionStatusPending, got.Status)
}

func TestTransactionRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(txnCols()))

	got, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestTransactionRepo_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()
	ref := "EXT_12345_abc"

	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs(domain.TransactionStatusCompleted, &ref, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdateStatus(context.Background(), id, domain.TransactionStatusCompleted, &ref)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_UpdateStatus_AlreadyTerminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	// Guarded UPDATE matches zero rows once the row left PENDING.
	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs(domain.TransactionStatusFailed, (*string)(nil), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateStatus(context.Background(), id, domain.TransactionStatusFailed, nil)
	assert.Error(t, err)
}

func TestTransactionRepo_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	userID := uuid.New()
	txn := newTestTransaction()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(userID, 10, 0).
		WillReturnRows(txnRow(txn))

	got, total, err := repo.ListByUser(context.Background(), userID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, got, 1)
	assert.Equal(t, txn.ID, got[0].ID)
}

func TestTransactionRepo_ListRecentByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	userID := uuid.New()
	txn := newTestTransaction()

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(userID, 5).
		WillReturnRows(txnRow(txn))

	got, err := repo.ListRecentByUser(context.Background(), userID, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestTransactionRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(20, 20).
		WillReturnRows(txnRow(txn))

	got, total, err := repo.List(context.Background(), 2, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
}
