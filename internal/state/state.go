// Package state holds the client-side view of loans and payments as a pure
// reducer, so the effects of realtime events and workflow actions can be
// replayed without I/O.
package state

import (
	"sort"
	"sync"
	"time"

	"loan-tracker/internal/domain/loan"
	"loan-tracker/internal/domain/payment"
)

type State struct {
	Loans    []loan.Loan       `json:"loans"`
	Payments []payment.Payment `json:"payments"`
}

type Action interface{ action() }

type (
	LoansLoaded      struct{ Loans []loan.Loan }
	PaymentsLoaded   struct{ Payments []payment.Payment }
	LoanSaved        struct{ Loan loan.Loan }
	LoanDeleted      struct{ LoanID string }
	PaymentInserted  struct{ Payment payment.Payment }
	PaymentConfirmed struct {
		PaymentID string
		At        time.Time
	}
	PaymentRejected struct {
		PaymentID string
		At        time.Time
	}
)

func (LoansLoaded) action()      {}
func (PaymentsLoaded) action()   {}
func (LoanSaved) action()        {}
func (LoanDeleted) action()      {}
func (PaymentInserted) action()  {}
func (PaymentConfirmed) action() {}
func (PaymentRejected) action()  {}

// Reduce returns the next state; s is never modified.
func Reduce(s State, a Action) State {
	next := State{
		Loans:    append([]loan.Loan(nil), s.Loans...),
		Payments: append([]payment.Payment(nil), s.Payments...),
	}

	switch a := a.(type) {
	case LoansLoaded:
		next.Loans = append([]loan.Loan(nil), a.Loans...)
	case PaymentsLoaded:
		next.Payments = append([]payment.Payment(nil), a.Payments...)
	case LoanSaved:
		if i := loanIndex(next.Loans, a.Loan.LoanID); i >= 0 {
			next.Loans[i] = a.Loan
		} else {
			next.Loans = append([]loan.Loan{a.Loan}, next.Loans...)
		}
	case LoanDeleted:
		next.Loans = filterLoans(next.Loans, func(l loan.Loan) bool { return l.LoanID != a.LoanID })
		next.Payments = filterPayments(next.Payments, func(p payment.Payment) bool { return p.LoanID != a.LoanID })
	case PaymentInserted:
		if paymentIndex(next.Payments, a.Payment.PaymentID) < 0 {
			next.Payments = append([]payment.Payment{a.Payment}, next.Payments...)
		}
	case PaymentConfirmed:
		i := paymentIndex(next.Payments, a.PaymentID)
		if i < 0 || next.Payments[i].Status != payment.StatusPending {
			break
		}
		next.Payments[i].Status = payment.StatusCompleted
		next.Payments[i].StatusUpdatedAt = a.At
		if j := loanIndex(next.Loans, next.Payments[i].LoanID); j >= 0 {
			next.Loans[j].ApplyPayment(next.Payments[i].Amount)
		}
	case PaymentRejected:
		i := paymentIndex(next.Payments, a.PaymentID)
		if i < 0 || next.Payments[i].Status != payment.StatusPending {
			break
		}
		next.Payments[i].Status = payment.StatusRejected
		next.Payments[i].StatusUpdatedAt = a.At
	}
	return next
}

func (s State) Summary() loan.Summary { return loan.Summarize(s.Loans) }

// Recent returns up to n payments, newest payment date first.
func (s State) Recent(n int) []payment.Payment {
	out := append([]payment.Payment(nil), s.Payments...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (s State) PendingCount() int {
	n := 0
	for _, p := range s.Payments {
		if p.Status == payment.StatusPending {
			n++
		}
	}
	return n
}

// Store serializes dispatches against one State.
type Store struct {
	mu sync.Mutex
	s  State
}

func NewStore(initial State) *Store { return &Store{s: Reduce(initial, nil)} }

func (st *Store) Dispatch(actions ...Action) State {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, a := range actions {
		st.s = Reduce(st.s, a)
	}
	return st.s
}

// Snapshot returns a copy that later dispatches do not affect.
func (st *Store) Snapshot() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return Reduce(st.s, nil)
}

func loanIndex(ls []loan.Loan, loanID string) int {
	for i := range ls {
		if ls[i].LoanID == loanID {
			return i
		}
	}
	return -1
}

func paymentIndex(ps []payment.Payment, paymentID string) int {
	for i := range ps {
		if ps[i].PaymentID == paymentID {
			return i
		}
	}
	return -1
}

func filterLoans(ls []loan.Loan, keep func(loan.Loan) bool) []loan.Loan {
	out := ls[:0]
	for _, l := range ls {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func filterPayments(ps []payment.Payment, keep func(payment.Payment) bool) []payment.Payment {
	out := ps[:0]
	for _, p := range ps {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
