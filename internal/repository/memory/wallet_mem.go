// internal/repository/memory/wallet_mem.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/repository"
	"finflow-transfer/internal/util"
)

type walletEntry struct {
	mu     sync.Mutex
	wallet domain.Wallet
}

// WalletRepository implements repository.WalletStore in process memory.
// Each wallet has its own mutex, so deltas on different wallets never contend.
type WalletRepository struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*walletEntry
	now     func() time.Time
}

// NewWalletRepository creates an empty in-memory WalletRepository.
func NewWalletRepository() *WalletRepository {
	return &WalletRepository{
		wallets: make(map[uuid.UUID]*walletEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.WalletStore = (*WalletRepository)(nil)

// CreateWallet stores a copy of wallet.
func (r *WalletRepository) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", util.ErrStorage, err)
	}
	if wallet.Balance.IsNegative() {
		return fmt.Errorf("%w: initial balance must not be negative", util.ErrInvalidRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[wallet.ID]; ok {
		return fmt.Errorf("%w: wallet %s already exists", util.ErrInvalidRequest, wallet.ID)
	}
	r.wallets[wallet.ID] = &walletEntry{wallet: *wallet}
	return nil
}

// GetWalletByID returns a snapshot of the wallet.
func (r *WalletRepository) GetWalletByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrStorage, err)
	}
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	w := e.wallet
	e.mu.Unlock()
	return &w, nil
}

// CompareAndApplyDelta adds delta to the balance unless it would drop below minBalanceAfter.
func (r *WalletRepository) CompareAndApplyDelta(ctx context.Context, id uuid.UUID, delta, minBalanceAfter decimal.Decimal) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", util.ErrStorage, util.ErrNotApplied, err)
	}
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.wallet.Balance.Add(delta)
	if next.LessThan(minBalanceAfter) {
		return nil, fmt.Errorf("%w: wallet %s", util.ErrInsufficientFunds, id)
	}
	e.wallet.Balance = next
	e.wallet.UpdatedAt = r.now()

	w := e.wallet
	return &w, nil
}

// TotalBalance sums the balances of all wallets.
func (r *WalletRepository) TotalBalance() decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, e := range r.wallets {
		e.mu.Lock()
		total = total.Add(e.wallet.Balance)
		e.mu.Unlock()
	}
	return total
}

func (r *WalletRepository) entry(id uuid.UUID) (*walletEntry, error) {
	r.mu.RLock()
	e, ok := r.wallets[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrWalletNotFound, id)
	}
	return e, nil
}
