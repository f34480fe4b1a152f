package sqlstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	dErrors "solicitudes/pkg/domain-errors"
	"solicitudes/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Transactor runs units of work in a database transaction bound to the context.
type Transactor struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db, timeout: defaultTxTimeout}
}

func (t *Transactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	// Join the caller's transaction instead of nesting.
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
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

	sqlTx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	ctx, afterCommit := tx.WithCommitHooks(ctx)
	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return err
	}
	afterCommit(ctx)
	return nil
}
