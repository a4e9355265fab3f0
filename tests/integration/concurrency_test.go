package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func internalTransfer(amount, toNumber string) ports.CreateTransactionRequest {
	return ports.CreateTransactionRequest{
		Amount:         decimal.RequireFromString(amount),
		Type:           domain.TransactionTypeInternal,
		ToWalletNumber: toNumber,
	}
}

// totalBalance sums every wallet in the store; transfers between
// internal wallets must conserve this quantity.
func (e *testEnv) totalBalance(t *testing.T, userIDs ...uuid.UUID) decimal.Decimal {
	t.Helper()
	total := decimal.Zero
	for _, id := range userIDs {
		wallets, err := e.walletSvc.FindActiveByUser(context.Background(), id)
		require.NoError(t, err)
		for _, w := range wallets {
			total = total.Add(w.Balance)
		}
	}
	return total
}

// Two concurrent transfers that each pass the optimistic funds
// pre-check but together exceed the balance: exactly one lands, the
// other fails once row locks expose the committed debit.
func TestConcurrentTransfers_SameSourceExactlyOneSucceeds(t *testing.T) {
	env := newTestEnv(t, 1.0)
	senderID, senderWallet := env.newUserWithWallet(t)
	_, walletB := env.newUserWithWallet(t)
	_, walletC := env.newUserWithWallet(t)

	ctx := context.Background()
	results := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, results[0] = env.transferSvc.CreateTransaction(ctx, senderID, internalTransfer("600.00", walletB.WalletNumber))
	}()
	go func() {
		defer wg.Done()
		_, results[1] = env.transferSvc.CreateTransaction(ctx, senderID, internalTransfer("600.00", walletC.WalletNumber))
	}()
	wg.Wait()

	var succeeded, failed int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "TRF_001", appErr.Code)
	}
	assert.Equal(t, 1, succeeded, "exactly one transfer must land")
	assert.Equal(t, 1, failed)

	assert.True(t, env.balance(t, senderWallet.ID).Equal(decimal.RequireFromString("400.00")))

	// Depending on timing the loser is rejected by the funds pre-check
	// (no ledger row) or inside the locked transfer (FAILED row).
	// Either way exactly one COMPLETED entry exists and nothing is
	// left PENDING.
	txns, _, err := env.txRepo.ListByUser(ctx, senderID, 1, 10)
	require.NoError(t, err)

	statuses := map[domain.TransactionStatus]int{}
	for _, txn := range txns {
		statuses[txn.Status]++
	}
	assert.Equal(t, 1, statuses[domain.TransactionStatusCompleted])
	assert.Zero(t, statuses[domain.TransactionStatusPending])
}

// Disjoint wallet pairs do not contend; both transfers succeed and the
// overall balance is conserved.
func TestConcurrentTransfers_DisjointPairsBothSucceed(t *testing.T) {
	env := newTestEnv(t, 1.0)
	aliceID, _ := env.newUserWithWallet(t)
	bobID, bobWallet := env.newUserWithWallet(t)
	carolID, _ := env.newUserWithWallet(t)
	daveID, daveWallet := env.newUserWithWallet(t)

	users := []uuid.UUID{aliceID, bobID, carolID, daveID}
	before := env.totalBalance(t, users...)

	ctx := context.Background()
	results := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, results[0] = env.transferSvc.CreateTransaction(ctx, aliceID, internalTransfer("100.00", bobWallet.WalletNumber))
	}()
	go func() {
		defer wg.Done()
		_, results[1] = env.transferSvc.CreateTransaction(ctx, carolID, internalTransfer("200.00", daveWallet.WalletNumber))
	}()
	wg.Wait()

	require.NoError(t, results[0])
	require.NoError(t, results[1])
	assert.True(t, env.totalBalance(t, users...).Equal(before))
}

// A burst of transfers fanned out across a small set of wallets:
// whatever mix of successes and insufficient-funds failures occurs,
// money is neither created nor destroyed.
func TestConcurrentTransfers_ConservationUnderLoad(t *testing.T) {
	env := newTestEnv(t, 1.0)

	const nUsers = 4
	userIDs := make([]uuid.UUID, nUsers)
	wallets := make([]*domain.Wallet, nUsers)
	for i := range userIDs {
		userIDs[i], wallets[i] = env.newUserWithWallet(t)
	}

	before := env.totalBalance(t, userIDs...)

	ctx := context.Background()
	const nTransfers = 24
	var wg sync.WaitGroup
	wg.Add(nTransfers)
	for i := 0; i < nTransfers; i++ {
		from := i % nUsers
		to := (i + 1 + i%3) % nUsers
		if to == from {
			to = (to + 1) % nUsers
		}
		amount := fmt.Sprintf("%d.00", 50+(i%7)*25)

		go func(fromID uuid.UUID, toNumber, amount string) {
			defer wg.Done()
			// Insufficient-funds rejections are an expected outcome
			// here; anything else is a real failure.
			_, err := env.transferSvc.CreateTransaction(ctx, fromID, internalTransfer(amount, toNumber))
			if err != nil {
				var appErr *apperror.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, "TRF_001", appErr.Code)
			}
		}(userIDs[from], wallets[to].WalletNumber, amount)
	}
	wg.Wait()

	assert.True(t, env.totalBalance(t, userIDs...).Equal(before),
		"total balance changed: before=%s after=%s", before, env.totalBalance(t, userIDs...))

	// No ledger entry may be left PENDING once all transfers settle.
	all, _, err := env.txRepo.List(ctx, 1, 100)
	require.NoError(t, err)
	for _, txn := range all {
		assert.True(t, txn.IsTerminal(), "transaction %s stuck in %s", txn.ID, txn.Status)
	}
}

// Terminal statuses are monotonic: a settled transaction cannot be
// rewritten.
func TestTransactionStatus_MonotonicAfterSettlement(t *testing.T) {
	env := newTestEnv(t, 1.0)
	senderID, senderWallet := env.newUserWithWallet(t)
	_, recipientWallet := env.newUserWithWallet(t)

	ctx := context.Background()
	txn, err := env.transferSvc.CreateTransaction(ctx, senderID, internalTransfer("50.00", recipientWallet.WalletNumber))
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusCompleted, txn.Status)

	err = env.txRepo.UpdateStatus(ctx, txn.ID, domain.TransactionStatusFailed, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not pending")

	stored, err := env.txRepo.GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, stored.Status)

	// The debit stands.
	assert.True(t, env.balance(t, senderWallet.ID).Equal(decimal.RequireFromString("950.00")))
}
