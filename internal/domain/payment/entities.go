package payment

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// Terminal states never change again.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusRejected }

// CanTransition allows only pending -> completed and pending -> rejected.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}

type Payment struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	PaymentID       string          `gorm:"size:32;uniqueIndex:ux_payments_payment_id" json:"payment_id"`
	LoanID          string          `gorm:"size:32;index:idx_payments_loan;not null" json:"loan_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Date            time.Time       `gorm:"type:date" json:"date"`
	Status          Status          `gorm:"size:16;index;default:pending" json:"status"`
	ProofURL        string          `gorm:"type:text" json:"proof_url,omitempty"`
	SubmittedBy     string          `gorm:"size:32" json:"submitted_by"`
	StatusUpdatedAt time.Time       `json:"status_updated_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Payment) TableName() string { return "payments" }
