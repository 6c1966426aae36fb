// internal/service/transfer_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/fee"
	"finflow-transfer/internal/lock"
	"finflow-transfer/internal/repository"
	"finflow-transfer/internal/util"
)

// TransferRequest is a request to move Amount from the sender to the receiver.
type TransferRequest struct {
	SenderWalletID   uuid.UUID
	ReceiverWalletID uuid.UUID
	Amount           decimal.Decimal
	Description      string
}

// TransferService defines the transfer engine.
type TransferService interface {
	// Transfer debits amount plus fee from the sender and credits amount to the receiver.
	// When the balances moved but the record could not be stored, the committed
	// transaction is returned together with a StorageError.
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
}

// EngineConfig bounds the time and retries the engine spends on each transfer.
type EngineConfig struct {
	StoreTimeout   time.Duration // per store call
	LockTimeout    time.Duration // waiting for both wallet locks
	AppendAttempts int           // log appends and compensation
	AppendBackoff  time.Duration // first retry delay, doubled each attempt
}

// DefaultEngineConfig returns the engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		StoreTimeout:   5 * time.Second,
		LockTimeout:    5 * time.Second,
		AppendAttempts: 5,
		AppendBackoff:  50 * time.Millisecond,
	}
}

// transferService implements the TransferService interface.
type transferService struct {
	wallets     repository.WalletStore
	txLog       repository.TransactionLog
	fees        fee.Policy
	locker      lock.Locker
	kafkaWriter KafkaWriter // optional
	cfg         EngineConfig
}

// NewTransferService creates a new instance of TransferService. kafkaWriter may be nil.
func NewTransferService(
	wallets repository.WalletStore,
	txLog repository.TransactionLog,
	fees fee.Policy,
	locker lock.Locker,
	kafkaWriter KafkaWriter,
	cfg EngineConfig,
) TransferService {
	return &transferService{
		wallets:     wallets,
		txLog:       txLog,
		fees:        fees,
		locker:      locker,
		kafkaWriter: kafkaWriter,
		cfg:         cfg,
	}
}

// Transfer runs validate, reserve and commit. Once the sender is debited the
// caller's cancellation can only trigger a rollback.
func (s *transferService) Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error) {
	const op = "transfer"

	sender, receiver, err := s.validate(ctx, req)
	if err != nil {
		util.GetLogger().Debugw("Transfer rejected", "sender_wallet_id", req.SenderWalletID, "receiver_wallet_id", req.ReceiverWalletID, "error", err)
		return nil, asTransferError(op, err)
	}

	txn := domain.NewTransaction(sender.ID, receiver.ID, req.Amount, s.fees.ComputeFee(req.Amount), sender.Currency, req.Description)
	st := newTransferState(txn.ID)

	lockCtx, cancel := s.withTimeout(ctx, s.cfg.LockTimeout)
	release, err := s.locker.Lock(lockCtx, sender.ID, receiver.ID)
	cancel()
	if err != nil {
		st.to(stateRejected)
		return nil, util.NewTransferError(op, util.KindStorage, err)
	}
	defer release()

	if _, err := s.applyDelta(ctx, sender.ID, txn.TotalDebit().Neg()); err != nil {
		st.to(stateRejected)
		return nil, asTransferError(op, err)
	}
	st.to(stateReserved)

	detached := context.WithoutCancel(ctx)
	var creditErr error
	if err := ctx.Err(); err != nil {
		creditErr = fmt.Errorf("%w: cancelled after reservation: %w", util.ErrStorage, err)
	} else {
		_, creditErr = s.applyDelta(detached, receiver.ID, txn.Amount)
	}
	if creditErr != nil {
		s.rollback(detached, st, txn, creditErr)
		return nil, asTransferError(op, creditErr)
	}
	release()

	if err := txn.Complete(); err != nil {
		return nil, util.NewTransferError(op, util.KindStorage, err)
	}
	st.to(stateCommitted)

	if err := s.appendWithRetry(detached, txn); err != nil {
		util.GetLogger().Errorw("Transfer committed but not recorded, manual reconciliation required",
			"reconciliation", true,
			"transaction_id", txn.ID,
			"sender_wallet_id", txn.SenderWalletID,
			"receiver_wallet_id", txn.ReceiverWalletID,
			"amount", txn.Amount,
			"fee", txn.Fee,
			"error", err,
		)
		return txn, util.NewTransferError(op, util.KindStorage, err)
	}

	s.publishTransaction(detached, txn)
	util.GetLogger().Infow("Transfer completed", "transaction_id", txn.ID, "amount", txn.Amount, "fee", txn.Fee, "currency", txn.Currency)
	return txn, nil
}

// validate checks the request and resolves both wallets.
func (s *transferService) validate(ctx context.Context, req TransferRequest) (*domain.Wallet, *domain.Wallet, error) {
	if req.SenderWalletID == uuid.Nil || req.ReceiverWalletID == uuid.Nil {
		return nil, nil, util.ErrMissingWalletID
	}
	if req.SenderWalletID == req.ReceiverWalletID {
		return nil, nil, util.ErrSameWalletTransfer
	}
	if !domain.IsPositiveMoney(req.Amount) {
		return nil, nil, util.ErrInvalidAmount
	}
	if utf8.RuneCountInString(req.Description) > domain.MaxDescriptionLength {
		return nil, nil, util.ErrDescriptionTooLong
	}

	sender, err := s.getWallet(ctx, req.SenderWalletID)
	if err != nil {
		return nil, nil, fmt.Errorf("sender: %w", err)
	}
	receiver, err := s.getWallet(ctx, req.ReceiverWalletID)
	if err != nil {
		return nil, nil, fmt.Errorf("receiver: %w", err)
	}
	if sender.Currency != receiver.Currency {
		return nil, nil, fmt.Errorf("%w: %s to %s", util.ErrCurrencyMismatch, sender.Currency, receiver.Currency)
	}
	return sender, receiver, nil
}

// rollback returns the reserved debit to the sender and records the failure.
// The refund is only retried while the store reports that nothing was written.
func (s *transferService) rollback(ctx context.Context, st *transferState, txn *domain.Transaction, cause error) {
	refund := txn.TotalDebit()
	err := s.retry(ctx, func() error {
		_, err := s.applyDelta(ctx, txn.SenderWalletID, refund)
		if err != nil && !errors.Is(err, util.ErrNotApplied) {
			// The refund may have landed; repeating it could credit the sender twice.
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		util.GetLogger().Errorw("Compensation failed, manual reconciliation required",
			"reconciliation", true,
			"transaction_id", txn.ID,
			"sender_wallet_id", txn.SenderWalletID,
			"refund", refund,
			"cause", cause,
			"error", err,
		)
	}
	st.to(stateRolledBack)

	if err := txn.Fail(); err != nil {
		return
	}
	if err := s.appendWithRetry(ctx, txn); err != nil {
		util.GetLogger().Warnw("Failed to record failed transfer", "transaction_id", txn.ID, "error", err)
	}
}

func (s *transferService) appendWithRetry(ctx context.Context, txn *domain.Transaction) error {
	return s.retry(ctx, func() error {
		storeCtx, cancel := s.withTimeout(ctx, s.cfg.StoreTimeout)
		defer cancel()
		_, err := s.txLog.Append(storeCtx, txn)
		if err != nil {
			util.GetLogger().Debugw("Append attempt failed", "transaction_id", txn.ID, "error", err)
		}
		return err
	})
}

// retry runs fn up to AppendAttempts times with exponential backoff. Errors that
// another attempt cannot fix stop it early.
func (s *transferService) retry(ctx context.Context, fn func() error) error {
	attempts := max(s.cfg.AppendAttempts, 1)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.cfg.AppendBackoff
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	return backoff.Retry(func() error {
		err := fn()
		switch util.KindOf(err) {
		case util.KindInvalidRequest, util.KindWalletNotFound, util.KindInsufficientFunds:
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func (s *transferService) getWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	ctx, cancel := s.withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.wallets.GetWalletByID(ctx, id)
}

func (s *transferService) applyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*domain.Wallet, error) {
	ctx, cancel := s.withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.wallets.CompareAndApplyDelta(ctx, id, delta, decimal.Zero)
}

func (s *transferService) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// asTransferError converts a store or validation error into a TransferError.
// Anything unclassified is a storage failure.
func asTransferError(op string, err error) error {
	kind := util.KindOf(err)
	if kind == util.KindUnknown || kind == util.KindConcurrencyConflict {
		kind = util.KindStorage
	}
	return util.NewTransferError(op, kind, err)
}
