package aggregates

import (
	"context"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/pkg/dbctx"
	"gorm.io/gorm"
)

// TxRunner provides the shared transaction boundary for all write paths.
// Callbacks registered through dbctx.Context.AfterCommit run only once the
// transaction has committed, never on rollback.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domain.NewError(domain.CodeInternal, "tx", "transaction runner has nil db", nil)
	}
	var hooks *dbctx.HookList
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dbc dbctx.Context
		dbc, hooks = dbctx.WithHooks(ctx, tx)
		return fn(dbc)
	})
	if err != nil {
		return err
	}
	hooks.Fire(ctx)
	return nil
}
