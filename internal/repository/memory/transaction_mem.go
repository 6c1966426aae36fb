// internal/repository/memory/transaction_mem.go
package memory

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/repository"
	"finflow-transfer/internal/util"
)

// TransactionRepository implements repository.TransactionLog in process memory.
// Records are kept in append order; nothing is ever updated or removed.
type TransactionRepository struct {
	mu      sync.RWMutex
	records []domain.Transaction
	byID    map[uuid.UUID]int
	wallets repository.WalletStore
}

// NewTransactionRepository creates an empty in-memory log. When wallets is not nil,
// Append checks that both referenced wallets exist.
func NewTransactionRepository(wallets repository.WalletStore) *TransactionRepository {
	return &TransactionRepository{
		byID:    make(map[uuid.UUID]int),
		wallets: wallets,
	}
}

var _ repository.TransactionLog = (*TransactionRepository)(nil)

// Append stores a copy of a terminal transaction.
func (r *TransactionRepository) Append(ctx context.Context, transaction *domain.Transaction) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", util.ErrStorage, err)
	}
	if !transaction.Status.IsTerminal() {
		return uuid.Nil, fmt.Errorf("%w: cannot append transaction in status %s", util.ErrInvalidRequest, transaction.Status)
	}
	if r.wallets != nil {
		for _, id := range []uuid.UUID{transaction.SenderWalletID, transaction.ReceiverWalletID} {
			if _, err := r.wallets.GetWalletByID(ctx, id); err != nil {
				return uuid.Nil, err
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[transaction.ID]; ok {
		return transaction.ID, nil
	}
	r.byID[transaction.ID] = len(r.records)
	r.records = append(r.records, *transaction)
	return transaction.ID, nil
}

// ListByWallet walks the log from the newest record backwards.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID) iter.Seq2[domain.Transaction, error] {
	return func(yield func(domain.Transaction, error) bool) {
		r.mu.RLock()
		n := len(r.records)
		r.mu.RUnlock()

		for i := n - 1; i >= 0; i-- {
			if err := ctx.Err(); err != nil {
				yield(domain.Transaction{}, fmt.Errorf("%w: %w", util.ErrStorage, err))
				return
			}
			r.mu.RLock()
			t := r.records[i]
			r.mu.RUnlock()

			if !t.Involves(walletID) {
				continue
			}
			if !yield(t, nil) {
				return
			}
		}
	}
}

// Len returns the number of stored records.
func (r *TransactionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// TotalFees sums the fees of all completed records.
func (r *TransactionRepository) TotalFees() decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, t := range r.records {
		if t.Status == domain.TransactionStatusCompleted {
			total = total.Add(t.Fee)
		}
	}
	return total
}
