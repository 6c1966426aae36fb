// internal/api/types/response.go
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaginatedResponse defines a generic structure for paginated API responses.
// T represents the type of data contained in the 'Data' slice.
type PaginatedResponse[T any] struct {
	Data    []T  `json:"data"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// TransferRequest represents the request body for POST /transfers.
type TransferRequest struct {
	SenderWalletID   uuid.UUID       `json:"sender_wallet_id"`
	ReceiverWalletID uuid.UUID       `json:"receiver_wallet_id"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
}

// TransferResponse is returned for a completed transfer.
type TransferResponse struct {
	TransactionID    uuid.UUID       `json:"transaction_id"`
	SenderWalletID   uuid.UUID       `json:"sender_wallet_id"`
	ReceiverWalletID uuid.UUID       `json:"receiver_wallet_id"`
	Amount           decimal.Decimal `json:"amount"`
	Fee              decimal.Decimal `json:"fee"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description,omitempty"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// BalanceResponse is returned by GET /wallets/{walletID}/balance.
type BalanceResponse struct {
	WalletID  uuid.UUID       `json:"wallet_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ErrorResponse is the body of every non-2xx response.
// TransactionID is set only when a transfer moved money but could not be recorded.
type ErrorResponse struct {
	Error         string     `json:"error"`
	Message       string     `json:"message"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
}
