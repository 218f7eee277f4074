package payment

import (
	"io"

	"github.com/shopspring/decimal"

	"loan-tracker/internal/domain/loan"
	"loan-tracker/internal/domain/payment"
)

const dateLayout = "2006-01-02"

// Proof is an uploaded proof-of-payment file.
type Proof struct {
	Name string
	Body io.Reader
}

type SubmitInput struct {
	Amount decimal.Decimal `json:"amount" form:"amount" validate:"money"`
	Date   string          `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	Proof  *Proof          `json:"-" form:"-"`
}

type PaymentDTO struct {
	payment.Payment
	StatusLabel string `json:"status_label"`
	LoanName    string `json:"loan_name,omitempty"`
}

func toDTO(p payment.Payment, loanName string) PaymentDTO {
	return PaymentDTO{Payment: p, StatusLabel: p.Status.Label(), LoanName: loanName}
}

// DecisionDTO is returned by confirm and reject with the loan as it stands
// after the decision.
type DecisionDTO struct {
	Payment        PaymentDTO      `json:"payment"`
	LoanID         string          `json:"loan_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	LoanStatus     loan.Status     `json:"loan_status"`
}
