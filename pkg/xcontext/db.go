package xcontext

import (
	"context"

	"gorm.io/gorm"
)

type (
	dbKey   struct{}
	dbTxKey struct{}
)

type dbTx struct {
	tx     *gorm.DB
	done   bool
	joined bool
}

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the running transaction of ctx if there is one, otherwise the
// root database.
func DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(dbTxKey{}).(*dbTx); ok && !tx.done {
		return tx.tx
	}

	db, _ := ctx.Value(dbKey{}).(*gorm.DB)
	return db
}

// WithDBTransaction begins a transaction. If ctx is already in a transaction,
// the returned context joins it and the outermost caller decides whether it
// is committed or rolled back.
func WithDBTransaction(ctx context.Context) context.Context {
	if tx, ok := ctx.Value(dbTxKey{}).(*dbTx); ok && !tx.done {
		return context.WithValue(ctx, dbTxKey{}, &dbTx{tx: tx.tx, joined: true})
	}

	return context.WithValue(ctx, dbTxKey{}, &dbTx{tx: DB(ctx).Begin()})
}

func WithCommitDBTransaction(ctx context.Context) error {
	tx, ok := ctx.Value(dbTxKey{}).(*dbTx)
	if !ok || tx.done {
		return nil
	}

	tx.done = true
	if tx.joined {
		return nil
	}

	return tx.tx.Commit().Error
}

func WithRollbackDBTransaction(ctx context.Context) {
	tx, ok := ctx.Value(dbTxKey{}).(*dbTx)
	if !ok || tx.done {
		return
	}

	tx.done = true
	if tx.joined {
		return
	}

	tx.tx.Rollback()
}
