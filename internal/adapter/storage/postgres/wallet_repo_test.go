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

func newTestWallet(userID uuid.UUID) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Wallet{
		ID:           uuid.New(),
		WalletNumber: domain.NewWalletNumber(),
		Balance:      decimal.RequireFromString("1000.00"),
		Type:         domain.WalletTypePersonal,
		IsActive:     true,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func walletCols() []string {
	return []string{"id", "wallet_number", "balance", "type", "is_active", "user_id", "created_at", "updated_at"}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows(walletCols()).AddRow(
		w.ID, w.WalletNumber, w.Balance, w.Type,
		w.IsActive, w.UserID, w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.WalletNumber, w.Balance, w.Type,
			w.IsActive, w.UserID, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT (.+) FROM wallets WHERE id").
		WithArgs(w.ID).
		WillReturnRows(walletRow(w))

	got, err := repo.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, w.WalletNumber, got.WalletNumber)
	assert.True(t, w.Balance.Equal(got.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM wallets WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(walletCols()))

	got, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestWalletRepo_GetByNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT (.+) FROM wallets WHERE wallet_number").
		WithArgs(w.WalletNumber).
		WillReturnRows(walletRow(w))

	got, err := repo.GetByNumber(context.Background(), w.WalletNumber)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, w.ID, got.ID)
}

func TestWalletRepo_GetActiveByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()
	w1 := newTestWallet(userID)
	w2 := newTestWallet(userID)

	rows := pgxmock.NewRows(walletCols()).
		AddRow(w1.ID, w1.WalletNumber, w1.Balance, w1.Type, w1.IsActive, w1.UserID, w1.CreatedAt, w1.UpdatedAt).
		AddRow(w2.ID, w2.WalletNumber, w2.Balance, w2.Type, w2.IsActive, w2.UserID, w2.CreatedAt, w2.UpdatedAt)

	mock.ExpectQuery("SELECT (.+) FROM wallets").
		WithArgs(userID).
		WillReturnRows(rows)

	got, err := repo.GetActiveByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, w1.ID, got[0].ID, "first wallet must come back first")
}

func TestWalletRepo_UpdateBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	balance := decimal.RequireFromString("400.00")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(balance, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, walletID, balance)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateBalance_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	balance := decimal.NewFromInt(10)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(balance, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, walletID, balance)
	assert.Error(t, err)
}

func TestWalletRepo_Deactivate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()

	mock.ExpectExec("UPDATE wallets SET is_active").
		WithArgs(walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.Deactivate(context.Background(), walletID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
