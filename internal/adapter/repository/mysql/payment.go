package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	paymentDomain "loan-tracker/internal/domain/payment"
)

const joinLiveLoans = "JOIN loans ON loans.loan_id = payments.loan_id AND loans.deleted_at IS NULL"

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, p *paymentDomain.Payment) error {
	return wrapErr("payment.Create", "payment", r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*paymentDomain.Payment, error) {
	var out paymentDomain.Payment
	res := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&out)
	if res.Error != nil {
		return nil, wrapErr("payment.GetByPaymentID", "payment", res.Error)
	}
	return &out, nil
}

func (r *PaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]paymentDomain.Payment, error) {
	out := []paymentDomain.Payment{}
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("date DESC, created_at DESC, id DESC").
		Find(&out)
	if res.Error != nil {
		return nil, wrapErr("payment.ListByLoanID", "payment", res.Error)
	}
	return out, nil
}

func (r *PaymentRepository) ListPendingByLender(ctx context.Context, lenderID string) ([]paymentDomain.Payment, error) {
	out := []paymentDomain.Payment{}
	res := r.db.WithContext(ctx).
		Joins(joinLiveLoans).
		Where("loans.lender_id = ? AND payments.status = ?", lenderID, paymentDomain.StatusPending).
		Order("payments.created_at ASC, payments.id ASC").
		Find(&out)
	if res.Error != nil {
		return nil, wrapErr("payment.ListPendingByLender", "payment", res.Error)
	}
	return out, nil
}

func (r *PaymentRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]paymentDomain.Payment, error) {
	out := []paymentDomain.Payment{}
	res := r.db.WithContext(ctx).
		Joins(joinLiveLoans).
		Where("loans.lender_id = ? OR loans.debtor_id = ?", userID, userID).
		Order("payments.date DESC, payments.created_at DESC, payments.id DESC").
		Limit(limit).
		Find(&out)
	if res.Error != nil {
		return nil, wrapErr("payment.ListRecentByUser", "payment", res.Error)
	}
	return out, nil
}

// TransitionStatus is a compare-and-set on status; the storage engine makes it
// atomic against concurrent confirm/reject of the same payment.
func (r *PaymentRepository) TransitionStatus(ctx context.Context, paymentID string, from, to paymentDomain.Status, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&paymentDomain.Payment{}).
		Where("payment_id = ? AND status = ?", paymentID, from).
		Updates(map[string]any{"status": to, "status_updated_at": at})
	if res.Error != nil {
		return false, wrapErr("payment.TransitionStatus", "payment", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentRepository) DeleteByLoanID(ctx context.Context, loanID string) error {
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Delete(&paymentDomain.Payment{})
	return wrapErr("payment.DeleteByLoanID", "payment", res.Error)
}
