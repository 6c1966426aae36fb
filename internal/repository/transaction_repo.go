// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"iter"

	"github.com/google/uuid"

	"finflow-transfer/internal/domain"
)

// TransactionLog defines the append-only store of transfer records.
type TransactionLog interface {
	// Append durably stores a terminal transaction record and returns its ID.
	// Appending the same record twice is a no-op.
	Append(ctx context.Context, transaction *domain.Transaction) (uuid.UUID, error)
	// ListByWallet returns the wallet's transactions, newest first, as either sender or receiver.
	// The sequence is lazy and can be ranged over again to restart from the newest record.
	ListByWallet(ctx context.Context, walletID uuid.UUID) iter.Seq2[domain.Transaction, error]
}
