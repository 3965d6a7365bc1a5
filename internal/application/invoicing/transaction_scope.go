package invoicing

import (
	"context"

	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
)

// TransactionScope runs a unit of work atomically. All repositories handed to
// fn share one store transaction, committed when fn returns nil and rolled
// back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to the billing repositories inside a transaction
type TransactionalRepositories interface {
	Customers() invoicing.CustomerRepository
	Invoices() invoicing.InvoiceRepository
	Articles() invoicing.ArticleRepository
}

// execute runs fn in scope. Taxonomy errors raised inside fn are returned as
// they are; anything else the store reports becomes a *shared.TransactionError.
func execute(ctx context.Context, scope TransactionScope, op string, fn func(repos TransactionalRepositories) error) error {
	err := scope.Execute(ctx, fn)
	if err == nil || shared.IsBusinessError(err) {
		return err
	}
	return shared.NewTransactionError(op, err)
}
