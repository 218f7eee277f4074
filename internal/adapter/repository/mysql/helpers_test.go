package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	loanDomain "loan-tracker/internal/domain/loan"
	paymentDomain "loan-tracker/internal/domain/payment"
	"loan-tracker/pkg/id"
)

// openTestDB creates an in-memory sqlite DB with the full schema.
// One connection only: every new :memory: connection is a separate database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeLoan(loanID, lenderID, debtorID string) *loanDomain.Loan {
	return &loanDomain.Loan{
		LoanID:         loanID,
		Name:           "Prestito Personale",
		LenderName:     "Banca Nazionale",
		LenderID:       lenderID,
		DebtorID:       debtorID,
		OriginalAmount: dec("15000"),
		CurrentBalance: dec("8750"),
		InterestRate:   dec("12.5"),
		MonthlyPayment: dec("450"),
		StartDate:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2027, 3, 15, 0, 0, 0, 0, time.UTC),
		Status:         loanDomain.StatusActive,
		Type:           loanDomain.TypePersonal,
	}
}

func makePayment(loanID, amount string, date time.Time) *paymentDomain.Payment {
	return &paymentDomain.Payment{
		PaymentID: id.NewID32(),
		LoanID:    loanID,
		Amount:    dec(amount),
		Date:      date,
		Status:    paymentDomain.StatusPending,
	}
}

func mustCreateLoan(t *testing.T, db *gorm.DB, l *loanDomain.Loan) {
	t.Helper()
	if err := NewLoanRepository(db).Create(context.Background(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
}

func mustCreatePayment(t *testing.T, db *gorm.DB, p *paymentDomain.Payment) {
	t.Helper()
	if err := NewPaymentRepository(db).Create(context.Background(), p); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
}
