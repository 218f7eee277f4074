package loan

import (
	"github.com/shopspring/decimal"

	"loan-tracker/internal/domain/loan"
	"loan-tracker/internal/domain/payment"
)

const dateLayout = "2006-01-02"

// LoanInput is the full editable field set, shared by create and edit.
// DebtorID is only read from creditors; debtors always report for themselves.
type LoanInput struct {
	Name           string          `json:"name" validate:"required,max=160"`
	LenderName     string          `json:"lender_name" validate:"max=160"`
	DebtorID       string          `json:"debtor_id" validate:"omitempty,hex32"`
	OriginalAmount decimal.Decimal `json:"original_amount" validate:"money"`
	CurrentBalance decimal.Decimal `json:"current_balance" validate:"gte=0,dec2"`
	InterestRate   decimal.Decimal `json:"interest_rate" validate:"gte=0,lte=100"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment" validate:"gte=0,dec2"`
	StartDate      string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	Status         loan.Status     `json:"status" validate:"omitempty,oneof=active paid overdue"`
	Type           loan.Type       `json:"type" validate:"required,oneof=personal mortgage auto student business"`
}

type LoanDTO struct {
	LoanID         string          `json:"loan_id"`
	Name           string          `json:"name"`
	LenderName     string          `json:"lender_name"`
	LenderID       string          `json:"lender_id,omitempty"`
	DebtorID       string          `json:"debtor_id"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	Status         loan.Status     `json:"status"`
	StatusLabel    string          `json:"status_label"`
	Type           loan.Type       `json:"type"`
	TypeLabel      string          `json:"type_label"`
	Progress       decimal.Decimal `json:"progress"`
}

type DashboardDTO struct {
	Summary      loan.Summary      `json:"summary"`
	Loans        []LoanDTO         `json:"loans"`
	Recent       []payment.Payment `json:"recent_payments"`
	PendingCount int               `json:"pending_count"`
}

func toDTO(l *loan.Loan) LoanDTO {
	progress, err := loan.Progress(*l)
	if err != nil {
		progress = decimal.Zero
	}
	return LoanDTO{
		LoanID:         l.LoanID,
		Name:           l.Name,
		LenderName:     l.LenderName,
		LenderID:       l.LenderID,
		DebtorID:       l.DebtorID,
		OriginalAmount: l.OriginalAmount,
		CurrentBalance: l.CurrentBalance,
		InterestRate:   l.InterestRate,
		MonthlyPayment: l.MonthlyPayment,
		StartDate:      l.StartDate.Format(dateLayout),
		EndDate:        l.EndDate.Format(dateLayout),
		Status:         l.Status,
		StatusLabel:    l.Status.Label(),
		Type:           l.Type,
		TypeLabel:      l.Type.Label(),
		Progress:       progress.Round(2),
	}
}

func toDTOs(ls []loan.Loan) []LoanDTO {
	out := make([]LoanDTO, 0, len(ls))
	for i := range ls {
		out = append(out, toDTO(&ls[i]))
	}
	return out
}
