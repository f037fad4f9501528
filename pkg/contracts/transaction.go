package contracts

import "context"

// TransactionFunc runs inside a store transaction. The context it receives
// carries the transaction, so repository calls made with it join in.
type TransactionFunc func(ctx context.Context) error

// Transactor is implemented by repositories that can group calls into one
// atomic unit, whatever the backing store.
type Transactor interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}
