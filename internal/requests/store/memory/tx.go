package memory

import (
	"context"
	"sync"
	"time"

	dErrors "solicitudes/pkg/domain-errors"
	"solicitudes/pkg/platform/tx"
)

// defaultTxTimeout bounds a unit of work when the caller set no deadline.
const defaultTxTimeout = 5 * time.Second

// Transactor serializes units of work with a single lock. The in-memory
// store has no rollback, so a failing fn keeps the writes it already made.
type Transactor struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewTransactor() *Transactor {
	return &Transactor{timeout: defaultTxTimeout}
}

func (t *Transactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	ctx, afterCommit := tx.WithCommitHooks(ctx)
	if err := fn(ctx); err != nil {
		return err
	}
	afterCommit(ctx)
	return nil
}
