package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	dErrors "solicitudes/pkg/domain-errors"
	"solicitudes/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

type txKey struct{}

func withTx(ctx context.Context, gtx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, gtx)
}

func txFrom(ctx context.Context) (*gorm.DB, bool) {
	gtx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return gtx, ok
}

// Transactor wraps use cases in a GORM transaction carried on the context.
type Transactor struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db, timeout: defaultTxTimeout}
}

func (t *Transactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	ctx, afterCommit := tx.WithCommitHooks(ctx)
	err := t.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(withTx(ctx, gtx))
	})
	if err != nil {
		return err
	}
	afterCommit(ctx)
	return nil
}
