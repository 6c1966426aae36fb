// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/repository"
	"finflow-transfer/internal/util"
	"finflow-transfer/pkg/db"
)

// DefaultPageSize is how many rows ListByWallet fetches per round trip.
const DefaultPageSize = 100

const transactionColumns = `id, sender_wallet_id, receiver_wallet_id, amount, fee, currency, description, status, created_at`

// Conn is what the transaction log needs from the connection pool. *sqlx.DB implements it.
type Conn interface {
	db.DBTxBeginner
	repository.DBExecutor
}

// TransactionRepository implements repository.TransactionLog for PostgreSQL.
// Rows are only ever inserted; a trigger in the schema rejects UPDATE and DELETE.
type TransactionRepository struct {
	conn             Conn
	pageSize         int
	conflictAttempts int
	beginTx          db.BeginTxFunc
	commitTx         db.CommitTxFunc
	rollbackTx       db.RollbackTxFunc
}

// NewTransactionRepository creates a new TransactionRepository. conflictAttempts
// bounds how often an append is retried after a serialization failure.
func NewTransactionRepository(
	conn Conn,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	conflictAttempts int,
) *TransactionRepository {
	return &TransactionRepository{
		conn:             conn,
		pageSize:         DefaultPageSize,
		conflictAttempts: conflictAttempts,
		beginTx:          beginTx,
		commitTx:         commitTx,
		rollbackTx:       rollbackTx,
	}
}

var _ repository.TransactionLog = (*TransactionRepository)(nil)

// Append inserts a terminal transaction record. The existence check on both
// wallets and the insert run in one database transaction. Re-appending a record
// with the same ID is a no-op.
func (r *TransactionRepository) Append(ctx context.Context, transaction *domain.Transaction) (uuid.UUID, error) {
	if !transaction.Status.IsTerminal() {
		return uuid.Nil, fmt.Errorf("%w: cannot append transaction in status %s", util.ErrInvalidRequest, transaction.Status)
	}

	err := retryOnConflict(ctx, r.conflictAttempts, func() error {
		return r.appendOnce(ctx, transaction)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return transaction.ID, nil
}

func (r *TransactionRepository) appendOnce(ctx context.Context, transaction *domain.Transaction) error {
	txController, err := r.beginTx(ctx, r.conn)
	if err != nil {
		return classify("append: begin transaction", err)
	}
	defer r.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("%w: append: transaction controller does not implement DBExecutor", util.ErrStorage)
	}

	var found int
	countQuery := `SELECT COUNT(*) FROM wallets WHERE id IN ($1, $2)`
	if err := txExecutor.GetContext(ctx, &found, countQuery, transaction.SenderWalletID, transaction.ReceiverWalletID); err != nil {
		return classify("append: check wallets", err)
	}
	if found < 2 {
		return fmt.Errorf("%w: transaction %s references an unknown wallet", util.ErrWalletNotFound, transaction.ID)
	}

	insertQuery := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`
	_, err = txExecutor.ExecContext(ctx, insertQuery,
		transaction.ID,
		transaction.SenderWalletID,
		transaction.ReceiverWalletID,
		transaction.Amount,
		transaction.Fee,
		transaction.Currency,
		transaction.Description,
		transaction.Status,
		transaction.CreatedAt,
	)
	if err != nil {
		return classify("append: insert transaction", err)
	}

	if err := r.commitTx(txController); err != nil {
		return classify("append: commit", err)
	}
	return nil
}

// ListByWallet pages through the wallet's records newest first using a
// (created_at, id) keyset, so rows appended while iterating never shift a page.
// Each range over the returned sequence starts again from the newest record.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID) iter.Seq2[domain.Transaction, error] {
	return func(yield func(domain.Transaction, error) bool) {
		var (
			cursorTime time.Time
			cursorID   uuid.UUID
			first      = true
		)
		for {
			page, err := r.page(ctx, walletID, first, cursorTime, cursorID)
			if err != nil {
				yield(domain.Transaction{}, err)
				return
			}
			for _, t := range page {
				if !yield(t, nil) {
					return
				}
			}
			if len(page) < r.pageSize {
				return
			}
			last := page[len(page)-1]
			cursorTime, cursorID, first = last.CreatedAt, last.ID, false
		}
	}
}

func (r *TransactionRepository) page(ctx context.Context, walletID uuid.UUID, first bool, cursorTime time.Time, cursorID uuid.UUID) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	var err error
	if first {
		query := `
			SELECT ` + transactionColumns + `
			FROM transactions
			WHERE sender_wallet_id = $1 OR receiver_wallet_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`
		err = r.conn.SelectContext(ctx, &transactions, query, walletID, r.pageSize)
	} else {
		query := `
			SELECT ` + transactionColumns + `
			FROM transactions
			WHERE (sender_wallet_id = $1 OR receiver_wallet_id = $1)
			  AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`
		err = r.conn.SelectContext(ctx, &transactions, query, walletID, cursorTime, cursorID, r.pageSize)
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("list transactions for wallet %s", walletID), err)
	}
	return transactions, nil
}
