// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finflow-transfer/internal/domain"
)

// WalletStore defines durable keyed storage of wallets.
type WalletStore interface {
	// CreateWallet stores a new wallet. Wallets are created by onboarding, outside the transfer path.
	CreateWallet(ctx context.Context, wallet *domain.Wallet) error
	// GetWalletByID retrieves a wallet by its ID. Returns util.ErrWalletNotFound if it does not exist.
	GetWalletByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	// CompareAndApplyDelta atomically adds delta to the wallet balance and returns the updated wallet.
	// If the resulting balance would be below minBalanceAfter the stored balance is left unchanged
	// and util.ErrInsufficientFunds is returned.
	CompareAndApplyDelta(ctx context.Context, id uuid.UUID, delta, minBalanceAfter decimal.Decimal) (*domain.Wallet, error)
}
