// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Wallet represents a user's wallet.
type Wallet struct {
	ID        uuid.UUID       `db:"id" json:"wallet_id"`          // Primary key, UUID in DB
	OwnerID   string          `db:"owner_id" json:"owner_id"`     // Identifier of the owning user (managed externally)
	Currency  string          `db:"currency" json:"currency"`     // e.g., "KES", "USD"
	Balance   decimal.Decimal `db:"balance" json:"balance"`       // Current balance, NUMERIC(20, 2) in DB
	CreatedAt time.Time       `db:"created_at" json:"created_at"` // Timestamp of creation
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"` // Timestamp of last balance change
}

// NewWallet creates a new Wallet instance with a zero balance.
func NewWallet(ownerID, currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Currency:  currency,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
