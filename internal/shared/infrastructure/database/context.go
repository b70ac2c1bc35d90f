package database

import "context"

type txKey struct{}

// TxInfo is a transaction travelling through a context together with an
// ownership flag. Only the unit of work that opened the transaction (Owned)
// may commit or roll it back; nested units see Owned=false and defer to the
// outermost one.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx returns a context carrying the transaction.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxFromContext returns the transaction in the context, or nil when there is
// none.
func TxFromContext(ctx context.Context) Transaction {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return nil
	}
	return info.Tx
}

// TxInfoFromContext returns the transaction with its ownership flag.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// ExecutorFromContext picks the statement executor for the current call: the
// context's transaction when one is open, the bare connection otherwise.
// Repositories never need to know which one they got.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}
