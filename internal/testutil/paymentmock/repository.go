package paymentmock

import (
	"context"
	"time"

	domain "loan-tracker/internal/domain/payment"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to a no-op; reads default to context.Canceled.
type Repo struct {
	CreateFn              func(ctx context.Context, p *domain.Payment) error
	GetByPaymentIDFn      func(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListByLoanIDFn        func(ctx context.Context, loanID string) ([]domain.Payment, error)
	ListPendingByLenderFn func(ctx context.Context, lenderID string) ([]domain.Payment, error)
	ListRecentByUserFn    func(ctx context.Context, userID string, limit int) ([]domain.Payment, error)
	TransitionStatusFn    func(ctx context.Context, paymentID string, from, to domain.Status, at time.Time) (bool, error)
	DeleteByLoanIDFn      func(ctx context.Context, loanID string) error
}

func (m *Repo) Create(ctx context.Context, p *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if m.GetByPaymentIDFn != nil {
		return m.GetByPaymentIDFn(ctx, paymentID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID string) ([]domain.Payment, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListPendingByLender(ctx context.Context, lenderID string) ([]domain.Payment, error) {
	if m.ListPendingByLenderFn != nil {
		return m.ListPendingByLenderFn(ctx, lenderID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	if m.ListRecentByUserFn != nil {
		return m.ListRecentByUserFn(ctx, userID, limit)
	}
	return nil, context.Canceled
}

func (m *Repo) TransitionStatus(ctx context.Context, paymentID string, from, to domain.Status, at time.Time) (bool, error) {
	if m.TransitionStatusFn != nil {
		return m.TransitionStatusFn(ctx, paymentID, from, to, at)
	}
	return false, context.Canceled
}

func (m *Repo) DeleteByLoanID(ctx context.Context, loanID string) error {
	if m.DeleteByLoanIDFn != nil {
		return m.DeleteByLoanIDFn(ctx, loanID)
	}
	return nil
}
