package payment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	// ListByLoanID orders by payment date, newest first.
	ListByLoanID(ctx context.Context, loanID string) ([]Payment, error)
	// ListPendingByLender is the creditor inbox, oldest request first.
	ListPendingByLender(ctx context.Context, lenderID string) ([]Payment, error)
	// ListRecentByUser returns payments on loans where userID is either party.
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]Payment, error)
	// TransitionStatus updates only if the stored status still equals from.
	// It reports false when no row matched.
	TransitionStatus(ctx context.Context, paymentID string, from, to Status, at time.Time) (bool, error)
	DeleteByLoanID(ctx context.Context, loanID string) error
}
