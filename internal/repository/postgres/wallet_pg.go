// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/repository"
	"finflow-transfer/internal/util"
)

const walletColumns = `id, owner_id, currency, balance, created_at, updated_at`

// WalletRepository implements repository.WalletStore for PostgreSQL.
// The compare-and-apply is a single conditional UPDATE, so concurrent deltas on
// one wallet serialize on its row lock and never observe a stale balance.
type WalletRepository struct {
	db               repository.DBExecutor
	conflictAttempts int
	now              func() time.Time
}

// NewWalletRepository creates a new WalletRepository. conflictAttempts bounds how
// often a statement is retried after a serialization failure or deadlock.
func NewWalletRepository(db repository.DBExecutor, conflictAttempts int) *WalletRepository {
	return &WalletRepository{
		db:               db,
		conflictAttempts: conflictAttempts,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.WalletStore = (*WalletRepository)(nil)

// CreateWallet inserts a new wallet.
func (r *WalletRepository) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	if wallet.Balance.IsNegative() {
		return fmt.Errorf("%w: initial balance must not be negative", util.ErrInvalidRequest)
	}
	query := `INSERT INTO wallets (` + walletColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	return retryOnConflict(ctx, r.conflictAttempts, func() error {
		_, err := r.db.ExecContext(ctx, query,
			wallet.ID, wallet.OwnerID, wallet.Currency, wallet.Balance, wallet.CreatedAt, wallet.UpdatedAt)
		return classify("create wallet", err)
	})
}

// GetWalletByID retrieves a wallet by its ID.
func (r *WalletRepository) GetWalletByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	err := retryOnConflict(ctx, r.conflictAttempts, func() error {
		err := r.db.GetContext(ctx, &wallet, query, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", util.ErrWalletNotFound, id)
		}
		return classify(fmt.Sprintf("get wallet %s", id), err)
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// CompareAndApplyDelta adds delta to the balance in one statement, guarded by
// the minimum balance. When no row matches it tells a missing wallet apart from
// a failed guard.
func (r *WalletRepository) CompareAndApplyDelta(ctx context.Context, id uuid.UUID, delta, minBalanceAfter decimal.Decimal) (*domain.Wallet, error) {
	query := `
		UPDATE wallets
		SET balance = balance + $1::numeric, updated_at = $2
		WHERE id = $3 AND balance + $1::numeric >= $4::numeric
		RETURNING ` + walletColumns

	var wallet domain.Wallet
	err := retryOnConflict(ctx, r.conflictAttempts, func() error {
		err := r.db.GetContext(ctx, &wallet, query, delta, r.now(), id, minBalanceAfter)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return classify(fmt.Sprintf("apply delta to wallet %s", id), err)
		}
		return err
	})
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", util.ErrWalletNotFound, id)
	}
	return nil, fmt.Errorf("%w: wallet %s", util.ErrInsufficientFunds, id)
}

func (r *WalletRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM wallets WHERE id = $1)`, id); err != nil {
		return false, classify(fmt.Sprintf("check wallet %s", id), err)
	}
	return exists, nil
}
