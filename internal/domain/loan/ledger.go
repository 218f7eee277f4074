package loan

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrZeroPrincipal = errors.New("loan has zero original amount")

var hundred = decimal.NewFromInt(100)

// Progress is the repaid share of the principal, in percent.
func Progress(l Loan) (decimal.Decimal, error) {
	if l.OriginalAmount.IsZero() {
		return decimal.Zero, ErrZeroPrincipal
	}
	return l.OriginalAmount.Sub(l.CurrentBalance).Div(l.OriginalAmount).Mul(hundred), nil
}

// TotalDebt sums outstanding balances of loans that are not paid.
func TotalDebt(loans []Loan) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range loans {
		if l.Status != StatusPaid {
			sum = sum.Add(l.CurrentBalance)
		}
	}
	return sum
}

func TotalPrincipal(loans []Loan) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range loans {
		sum = sum.Add(l.OriginalAmount)
	}
	return sum
}

// MonthlyTotal sums monthly installments of active loans only.
func MonthlyTotal(loans []Loan) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range loans {
		if l.Status == StatusActive {
			sum = sum.Add(l.MonthlyPayment)
		}
	}
	return sum
}

// AverageInterestRate is the mean rate over active loans, 0 when there are none.
func AverageInterestRate(loans []Loan) decimal.Decimal {
	sum, n := decimal.Zero, int64(0)
	for _, l := range loans {
		if l.Status == StatusActive {
			sum = sum.Add(l.InterestRate)
			n++
		}
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(n))
}

// Summary backs the dashboard cards. Progress is the repaid share across all
// loans, 0 when there is no principal.
type Summary struct {
	TotalDebt           decimal.Decimal `json:"total_debt"`
	TotalPrincipal      decimal.Decimal `json:"total_principal"`
	MonthlyTotal        decimal.Decimal `json:"monthly_total"`
	AverageInterestRate decimal.Decimal `json:"average_interest_rate"`
	Progress            decimal.Decimal `json:"progress"`
	ActiveCount         int             `json:"active_count"`
	PaidCount           int             `json:"paid_count"`
	OverdueCount        int             `json:"overdue_count"`
}

func Summarize(loans []Loan) Summary {
	s := Summary{
		TotalDebt:           TotalDebt(loans),
		TotalPrincipal:      TotalPrincipal(loans),
		MonthlyTotal:        MonthlyTotal(loans),
		AverageInterestRate: AverageInterestRate(loans),
		Progress:            decimal.Zero,
	}
	outstanding := decimal.Zero
	for _, l := range loans {
		outstanding = outstanding.Add(l.CurrentBalance)
		switch l.Status {
		case StatusActive:
			s.ActiveCount++
		case StatusPaid:
			s.PaidCount++
		case StatusOverdue:
			s.OverdueCount++
		}
	}
	if s.TotalPrincipal.IsPositive() {
		s.Progress = s.TotalPrincipal.Sub(outstanding).Div(s.TotalPrincipal).Mul(hundred).Round(2)
	}
	return s
}
