// internal/service/query_service.go
package service

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"

	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/lock"
	"finflow-transfer/internal/repository"
	"finflow-transfer/internal/util"
)

// MaxHistoryLimit caps one page of GetTransactionHistory.
const MaxHistoryLimit = 100

// QueryService defines read-only access to balances and history.
type QueryService interface {
	GetBalance(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	// GetHistory returns the wallet's transactions newest first.
	GetHistory(ctx context.Context, walletID uuid.UUID) (iter.Seq2[domain.Transaction, error], error)
	// GetTransactionHistory returns one page of history and whether more records follow.
	GetTransactionHistory(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, bool, error)
}

// queryService implements the QueryService interface.
type queryService struct {
	wallets     repository.WalletStore
	txLog       repository.TransactionLog
	locker      lock.Locker
	lockTimeout time.Duration
}

// NewQueryService creates a new instance of QueryService.
func NewQueryService(wallets repository.WalletStore, txLog repository.TransactionLog, locker lock.Locker, lockTimeout time.Duration) QueryService {
	return &queryService{
		wallets:     wallets,
		txLog:       txLog,
		locker:      locker,
		lockTimeout: lockTimeout,
	}
}

// GetBalance reads the wallet under its lock, so a debit whose credit is still
// in flight is never observed.
func (s *queryService) GetBalance(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	const op = "get balance"

	lockCtx := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	release, err := s.locker.Lock(lockCtx, walletID)
	if err != nil {
		return nil, util.NewTransferError(op, util.KindStorage, err)
	}
	defer release()

	wallet, err := s.wallets.GetWalletByID(ctx, walletID)
	if err != nil {
		return nil, asTransferError(op, err)
	}
	return wallet, nil
}

func (s *queryService) GetHistory(ctx context.Context, walletID uuid.UUID) (iter.Seq2[domain.Transaction, error], error) {
	if _, err := s.wallets.GetWalletByID(ctx, walletID); err != nil {
		return nil, asTransferError("get history", err)
	}
	return s.txLog.ListByWallet(ctx, walletID), nil
}

// GetTransactionHistory skips offset records and stops reading after limit+1,
// so only the pages needed are fetched from the log.
func (s *queryService) GetTransactionHistory(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, bool, error) {
	const op = "get transaction history"
	if limit <= 0 || limit > MaxHistoryLimit || offset < 0 {
		return nil, false, util.NewTransferError(op, util.KindInvalidRequest, util.ErrInvalidRequest)
	}

	history, err := s.GetHistory(ctx, walletID)
	if err != nil {
		return nil, false, err
	}

	transactions := make([]domain.Transaction, 0, limit)
	skipped, hasMore := 0, false
	for t, err := range history {
		if err != nil {
			return nil, false, asTransferError(op, err)
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(transactions) == limit {
			hasMore = true
			break
		}
		transactions = append(transactions, t)
	}
	return transactions, hasMore, nil
}
