package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "loan-tracker/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return wrapErr("loan.Create", "loan", r.db.WithContext(ctx).Create(l).Error)
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return wrapErr("loan.Save", "loan", r.db.WithContext(ctx).Save(l).Error)
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, wrapErr("loan.GetByLoanID", "loan", res.Error)
	}
	return &out, nil
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	if res.Error != nil {
		return nil, wrapErr("loan.GetByLoanIDForUpdate", "loan", res.Error)
	}
	return &out, nil
}

func (r *LoanRepository) ListByLender(ctx context.Context, lenderID string) ([]loanDomain.Loan, error) {
	return r.list(ctx, "loan.ListByLender", "lender_id = ?", lenderID)
}

func (r *LoanRepository) ListByDebtor(ctx context.Context, debtorID string) ([]loanDomain.Loan, error) {
	return r.list(ctx, "loan.ListByDebtor", "debtor_id = ?", debtorID)
}

func (r *LoanRepository) list(ctx context.Context, op, cond, arg string) ([]loanDomain.Loan, error) {
	out := []loanDomain.Loan{}
	res := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("created_at DESC, id DESC").
		Find(&out)
	if res.Error != nil {
		return nil, wrapErr(op, "loan", res.Error)
	}
	return out, nil
}

// Delete soft-deletes the loan row.
func (r *LoanRepository) Delete(ctx context.Context, loanID string) error {
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Delete(&loanDomain.Loan{})
	return affected("loan.Delete", "loan", res)
}
