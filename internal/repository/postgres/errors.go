// internal/repository/postgres/errors.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"finflow-transfer/internal/util"
)

// PostgreSQL SQLSTATE codes the stores care about.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
)

// sqlState extracts the SQLSTATE from either driver's error type.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify maps a driver error onto the util error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", util.ErrStorage, op, err)
	}
	switch sqlState(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return fmt.Errorf("%w: %s: %w", util.ErrConcurrencyConflict, op, err)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s: duplicate key: %w", util.ErrInvalidRequest, op, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s: %w", util.ErrWalletNotFound, op, err)
	case codeCheckViolation:
		return fmt.Errorf("%w: %s: %w", util.ErrInsufficientFunds, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", util.ErrStorage, op, err)
	}
}

// retryOnConflict runs fn until it succeeds, fails with anything other than a
// concurrency conflict, or maxAttempts is used up. A conflict that outlives the
// retries or the context is reported as a storage error. PostgreSQL rolls back
// a statement that fails with a conflict, so such errors also carry
// util.ErrNotApplied.
func retryOnConflict(ctx context.Context, maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 10 * time.Millisecond
	eb.MaxInterval = 250 * time.Millisecond
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxAttempts-1)), ctx)

	var lastErr error
	err := backoff.Retry(func() error {
		lastErr = fn()
		if lastErr == nil || errors.Is(lastErr, util.ErrConcurrencyConflict) {
			return lastErr
		}
		return backoff.Permanent(lastErr)
	}, policy)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, util.ErrConcurrencyConflict):
		return fmt.Errorf("%w: %w: gave up after %d attempts: %v", util.ErrStorage, util.ErrNotApplied, maxAttempts, err)
	case errors.Is(lastErr, util.ErrConcurrencyConflict):
		// The context ended while waiting to retry a conflict.
		return fmt.Errorf("%w: %w: %w (last error: %v)", util.ErrStorage, util.ErrNotApplied, err, lastErr)
	}
	return err
}
