package realtime

import (
	"context"
	"errors"
	"time"

	"loan-tracker/internal/domain/loan"
	"loan-tracker/internal/domain/payment"
	"loan-tracker/internal/domain/user"
)

type EventType string

const (
	EventPaymentInserted  EventType = "payment_inserted"
	EventPaymentConfirmed EventType = "payment_confirmed"
	EventPaymentRejected  EventType = "payment_rejected"
	EventLoanSaved        EventType = "loan_saved"
	EventLoanDeleted      EventType = "loan_deleted"
)

// Event is a change notification. Payment and Loan are copies taken at
// publish time; Payment is zero on loan events and Loan is nil on payment
// and delete events.
type Event struct {
	Type     EventType       `json:"type"`
	Payment  payment.Payment `json:"payment"`
	Loan     *loan.Loan      `json:"loan,omitempty"`
	LoanID   string          `json:"loan_id"`
	LoanName string          `json:"loan_name"`
	LenderID string          `json:"lender_id,omitempty"`
	DebtorID string          `json:"debtor_id"`
	At       time.Time       `json:"at"`
}

// Publisher is implemented by Hub (single instance) and RedisBroker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Filter func(Event) bool

// FilterFor scopes the feed: creditors see every change on loans they lend,
// debtors see nothing.
func FilterFor(role user.Role, userID string) Filter {
	if !user.ViewFor(role).ReceivesPaymentAlerts || userID == "" {
		return func(Event) bool { return false }
	}
	return func(ev Event) bool {
		return ev.LenderID == userID
	}
}

// Fanout publishes to each target in order and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoanEvent builds a loan change routed to the loan's parties.
func LoanEvent(t EventType, l *loan.Loan, at time.Time) Event {
	ev := Event{Type: t, LoanID: l.LoanID, LoanName: l.Name, LenderID: l.LenderID, DebtorID: l.DebtorID, At: at}
	if t != EventLoanDeleted {
		cp := *l
		ev.Loan = &cp
	}
	return ev
}

// PaymentEvent builds a payment change on loan l.
func PaymentEvent(t EventType, l *loan.Loan, p payment.Payment, at time.Time) Event {
	return Event{Type: t, Payment: p, LoanID: l.LoanID, LoanName: l.Name, LenderID: l.LenderID, DebtorID: l.DebtorID, At: at}
}
