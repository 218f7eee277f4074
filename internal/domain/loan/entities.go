package loan

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loan-tracker/internal/domain/apperror"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

type Type string

const (
	TypePersonal Type = "personal"
	TypeMortgage Type = "mortgage"
	TypeAuto     Type = "auto"
	TypeStudent  Type = "student"
	TypeBusiness Type = "business"
)

func (t Type) Valid() bool {
	switch t {
	case TypePersonal, TypeMortgage, TypeAuto, TypeStudent, TypeBusiness:
		return true
	}
	return false
}

// Loan is jointly owned by a debtor and, optionally, a creditor (LenderID).
// A debtor-reported loan has no LenderID, only a free-text LenderName.
type Loan struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID         string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	Name           string          `gorm:"size:160;not null" json:"name"`
	LenderName     string          `gorm:"size:160" json:"lender_name"`
	LenderID       string          `gorm:"size:32;index:idx_loans_lender" json:"lender_id,omitempty"`
	DebtorID       string          `gorm:"size:32;index:idx_loans_debtor" json:"debtor_id"`
	OriginalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"original_amount"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"current_balance"`
	InterestRate   decimal.Decimal `gorm:"type:decimal(6,3)" json:"interest_rate"`
	MonthlyPayment decimal.Decimal `gorm:"type:decimal(18,2)" json:"monthly_payment"`
	StartDate      time.Time       `gorm:"type:date" json:"start_date"`
	EndDate        time.Time       `gorm:"type:date" json:"end_date"`
	Status         Status          `gorm:"size:16;index;default:active" json:"status"`
	Type           Type            `gorm:"size:16;default:personal" json:"type"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Validate checks the field set a loan must satisfy on create and edit.
func (l *Loan) Validate() error {
	const op = "loan.Validate"
	switch {
	case l.Name == "":
		return apperror.Validation(op, "name is required")
	case l.DebtorID == "":
		return apperror.Validation(op, "debtor is required")
	case !l.OriginalAmount.IsPositive():
		return apperror.Validation(op, "original amount must be greater than 0")
	case l.CurrentBalance.IsNegative():
		return apperror.Validation(op, "current balance must not be negative")
	case l.CurrentBalance.GreaterThan(l.OriginalAmount):
		return apperror.Validation(op, "current balance must not exceed original amount")
	case l.InterestRate.IsNegative():
		return apperror.Validation(op, "interest rate must not be negative")
	case l.MonthlyPayment.IsNegative():
		return apperror.Validation(op, "monthly payment must not be negative")
	case !l.EndDate.IsZero() && l.EndDate.Before(l.StartDate):
		return apperror.Validation(op, "end date must not precede start date")
	case !l.Type.Valid():
		return apperror.Validation(op, "unknown loan type "+string(l.Type))
	case !l.Status.Valid():
		return apperror.Validation(op, "unknown loan status "+string(l.Status))
	}
	return nil
}

// ApplyPayment deducts a confirmed payment: balance = max(0, balance - amount).
// A loan whose balance reaches zero becomes paid; otherwise status is kept.
func (l *Loan) ApplyPayment(amount decimal.Decimal) {
	nb := l.CurrentBalance.Sub(amount)
	if nb.IsNegative() {
		nb = decimal.Zero
	}
	l.CurrentBalance = nb
	if nb.IsZero() {
		l.Status = StatusPaid
	}
}

// HasCreditor is false for loans a debtor reported on their own.
func (l *Loan) HasCreditor() bool { return l.LenderID != "" }

// OwnedBy reports whether userID is either party of the loan.
func (l *Loan) OwnedBy(userID string) bool {
	return userID != "" && (l.DebtorID == userID || l.LenderID == userID)
}

// ManagedBy reports whether userID may edit or delete the loan: the creditor
// when there is one, else the debtor who reported it.
func (l *Loan) ManagedBy(userID string) bool {
	if userID == "" {
		return false
	}
	if l.HasCreditor() {
		return l.LenderID == userID
	}
	return l.DebtorID == userID
}
