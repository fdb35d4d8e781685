package db

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TransactionManager scopes repository work to one database transaction.
// The transaction rides the context, so use cases can compose several
// repositories into a single atomic unit without threading *gorm.DB through
// their signatures.
type TransactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// RunInTransaction runs fn inside a transaction carried by the derived
// context. An error from fn rolls the transaction back; nil commits it.
func (tm *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// GetTxFromContext returns the context-carried transaction when inside
// RunInTransaction, and defaultDB otherwise. Repositories call this at the
// top of every method so they participate in an ambient transaction
// transparently.
func GetTxFromContext(ctx context.Context, defaultDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return defaultDB.WithContext(ctx)
}
