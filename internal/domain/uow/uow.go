package uow

import (
	"context"

	"loan-tracker/internal/domain/loan"
	"loan-tracker/internal/domain/payment"
)

// Repos are bound to the transaction opened by the UnitOfWork.
type Repos struct {
	Loans    loan.Repository
	Payments payment.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
