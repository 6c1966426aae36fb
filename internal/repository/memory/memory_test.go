// internal/repository/memory/memory_test.go
package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/util"
)

func newFundedWallet(t *testing.T, repo *WalletRepository, balance string) *domain.Wallet {
	t.Helper()
	w := domain.NewWallet("owner-"+uuid.NewString()[:8], "KES")
	w.Balance = decimal.RequireFromString(balance)
	require.NoError(t, repo.CreateWallet(context.Background(), w))
	return w
}

func TestWalletRepository_CompareAndApplyDelta(t *testing.T) {
	ctx := context.Background()
	repo := NewWalletRepository()
	w := newFundedWallet(t, repo, "100.00")

	t.Run("Debit", func(t *testing.T) {
		updated, err := repo.CompareAndApplyDelta(ctx, w.ID, decimal.RequireFromString("-10.20"), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.RequireFromString("89.80")))
		assert.False(t, updated.UpdatedAt.Before(w.UpdatedAt))
	})

	t.Run("InsufficientFundsLeavesBalance", func(t *testing.T) {
		_, err := repo.CompareAndApplyDelta(ctx, w.ID, decimal.RequireFromString("-89.81"), decimal.Zero)
		assert.ErrorIs(t, err, util.ErrInsufficientFunds)

		got, err := repo.GetWalletByID(ctx, w.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.RequireFromString("89.80")))
	})

	t.Run("DrainToZero", func(t *testing.T) {
		updated, err := repo.CompareAndApplyDelta(ctx, w.ID, decimal.RequireFromString("-89.80"), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, updated.Balance.IsZero())
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.CompareAndApplyDelta(ctx, uuid.New(), decimal.NewFromInt(1), decimal.Zero)
		assert.ErrorIs(t, err, util.ErrWalletNotFound)
	})

	t.Run("CancelledContextWritesNothing", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.CompareAndApplyDelta(cancelled, w.ID, decimal.NewFromInt(5), decimal.Zero)
		assert.ErrorIs(t, err, util.ErrStorage)
		assert.ErrorIs(t, err, util.ErrNotApplied)

		got, err := repo.GetWalletByID(ctx, w.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.IsZero())
	})
}

func TestWalletRepository_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewWalletRepository()
	w := newFundedWallet(t, repo, "5.00")

	got, err := repo.GetWalletByID(ctx, w.ID)
	require.NoError(t, err)
	got.Balance = decimal.NewFromInt(1000)

	again, err := repo.GetWalletByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(decimal.NewFromInt(5)))
}

func TestWalletRepository_CreateDuplicate(t *testing.T) {
	repo := NewWalletRepository()
	w := newFundedWallet(t, repo, "1.00")
	assert.ErrorIs(t, repo.CreateWallet(context.Background(), w), util.ErrInvalidRequest)
}

func TestWalletRepository_ConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	repo := NewWalletRepository()
	w := newFundedWallet(t, repo, "50.00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.CompareAndApplyDelta(ctx, w.ID, decimal.NewFromInt(-1), decimal.Zero); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, succeeded)
	got, err := repo.GetWalletByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}

func TestTransactionRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletRepository()
	a := newFundedWallet(t, wallets, "0")
	b := newFundedWallet(t, wallets, "0")
	c := newFundedWallet(t, wallets, "0")
	log := NewTransactionRepository(wallets)

	appendCompleted := func(from, to uuid.UUID, amount string) *domain.Transaction {
		tx := domain.NewTransaction(from, to, decimal.RequireFromString(amount), decimal.Zero, "KES", "")
		require.NoError(t, tx.Complete())
		id, err := log.Append(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, tx.ID, id)
		return tx
	}

	first := appendCompleted(a.ID, b.ID, "1")
	second := appendCompleted(b.ID, c.ID, "2")
	third := appendCompleted(c.ID, a.ID, "3")

	collect := func(walletID uuid.UUID) []uuid.UUID {
		var ids []uuid.UUID
		for tx, err := range log.ListByWallet(ctx, walletID) {
			require.NoError(t, err)
			ids = append(ids, tx.ID)
		}
		return ids
	}

	assert.Equal(t, []uuid.UUID{third.ID, first.ID}, collect(a.ID))
	assert.Equal(t, []uuid.UUID{second.ID, first.ID}, collect(b.ID))
	// Restartable: ranging again yields the same sequence.
	assert.Equal(t, collect(c.ID), collect(c.ID))

	// Idempotent append.
	_, err := log.Append(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 3, log.Len())
}

func TestTransactionRepository_AppendRejects(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletRepository()
	a := newFundedWallet(t, wallets, "0")
	log := NewTransactionRepository(wallets)

	pending := domain.NewTransaction(a.ID, uuid.New(), decimal.NewFromInt(1), decimal.Zero, "KES", "")
	_, err := log.Append(ctx, pending)
	assert.ErrorIs(t, err, util.ErrInvalidRequest)

	require.NoError(t, pending.Complete())
	_, err = log.Append(ctx, pending)
	assert.ErrorIs(t, err, util.ErrWalletNotFound)
	assert.Equal(t, 0, log.Len())
}

func TestTransactionRepository_ListStopsEarly(t *testing.T) {
	ctx := context.Background()
	log := NewTransactionRepository(nil)
	wallet := uuid.New()
	for i := 0; i < 5; i++ {
		tx := domain.NewTransaction(wallet, uuid.New(), decimal.NewFromInt(1), decimal.Zero, "KES", "")
		require.NoError(t, tx.Complete())
		_, err := log.Append(ctx, tx)
		require.NoError(t, err)
	}

	seen := 0
	for range log.ListByWallet(ctx, wallet) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}
