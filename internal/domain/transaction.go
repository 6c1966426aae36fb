// internal/domain/transaction.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// MaxDescriptionLength bounds Transaction.Description, counted in characters.
const MaxDescriptionLength = 200

// TransactionStatus defines the status of a transfer record.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsTerminal reports whether the status can no longer change.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// ErrTerminalStatus is returned when a terminal transaction is asked to change status.
var ErrTerminalStatus = errors.New("transaction status is terminal")

// Transaction represents a transfer between two wallets.
type Transaction struct {
	ID               uuid.UUID         `db:"id" json:"transaction_id"`                     // Primary key, generated by the service
	SenderWalletID   uuid.UUID         `db:"sender_wallet_id" json:"sender_wallet_id"`     // Debited wallet
	ReceiverWalletID uuid.UUID         `db:"receiver_wallet_id" json:"receiver_wallet_id"` // Credited wallet
	Amount           decimal.Decimal   `db:"amount" json:"amount"`                         // Amount credited to the receiver, NUMERIC(20, 2)
	Fee              decimal.Decimal   `db:"fee" json:"fee"`                               // Fee charged to the sender on top of Amount
	Currency         string            `db:"currency" json:"currency"`                     // Currency shared by both wallets
	Description      string            `db:"description" json:"description"`               // Free text, at most MaxDescriptionLength characters
	Status           TransactionStatus `db:"status" json:"status"`                         // PENDING, COMPLETED or FAILED
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`                 // Time the transfer was accepted
}

// NewTransaction creates a pending Transaction.
func NewTransaction(
	senderWalletID uuid.UUID,
	receiverWalletID uuid.UUID,
	amount decimal.Decimal,
	fee decimal.Decimal,
	currency string,
	description string,
) *Transaction {
	return &Transaction{
		ID:               uuid.New(),
		SenderWalletID:   senderWalletID,
		ReceiverWalletID: receiverWalletID,
		Amount:           amount,
		Fee:              fee,
		Currency:         currency,
		Description:      description,
		Status:           TransactionStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
}

// TotalDebit is what the sender pays: the amount plus the fee.
func (t *Transaction) TotalDebit() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}

// Involves reports whether walletID is either side of the transaction.
func (t *Transaction) Involves(walletID uuid.UUID) bool {
	return t.SenderWalletID == walletID || t.ReceiverWalletID == walletID
}

// Complete moves a pending transaction to COMPLETED.
func (t *Transaction) Complete() error {
	return t.setStatus(TransactionStatusCompleted)
}

// Fail moves a pending transaction to FAILED. No fee is charged for a failed transfer.
func (t *Transaction) Fail() error {
	if err := t.setStatus(TransactionStatusFailed); err != nil {
		return err
	}
	t.Fee = decimal.Zero
	return nil
}

func (t *Transaction) setStatus(status TransactionStatus) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrTerminalStatus, t.Status, status)
	}
	t.Status = status
	return nil
}
