package ledger

import (
	"context"

	"github.com/construct/backend/internal/domain/ledger"
	"github.com/construct/backend/internal/domain/shared"
)

// TransactionalRepositories provides access to repositories that share
// one database transaction. Number generation and the insert that
// consumes the number must go through the same instance.
type TransactionalRepositories interface {
	AccountRepo() ledger.AccountRepository
	TransactionRepo() ledger.TransactionRepository
	Sequences() shared.SequenceGenerator
}

// TransactionScope executes a function within a database transaction.
// If the function returns an error everything rolls back, including
// any sequence numbers drawn inside it.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
