package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the row until the surrounding tx ends.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// Listings are ordered by creation time, newest first.
	ListByLender(ctx context.Context, lenderID string) ([]Loan, error)
	ListByDebtor(ctx context.Context, debtorID string) ([]Loan, error)
	Delete(ctx context.Context, loanID string) error
}
