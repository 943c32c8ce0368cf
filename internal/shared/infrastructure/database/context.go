package database

import "context"

type txKey struct{}

// TxInfo holds the transaction in context and whether the current unit of work started it.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx stores transaction info in the context.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxInfoFromContext extracts transaction info from the context.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// ExecutorFromContext returns the transaction if present, otherwise the connection.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if info, ok := TxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return conn
}
