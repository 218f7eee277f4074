package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"loan-tracker/internal/auth"
	"loan-tracker/internal/domain/apperror"
	"loan-tracker/internal/domain/loan"
	"loan-tracker/internal/domain/payment"
	"loan-tracker/internal/domain/uow"
	"loan-tracker/internal/domain/user"
	"loan-tracker/internal/infrastructure/metrics"
	"loan-tracker/internal/realtime"
	"loan-tracker/internal/state"
	"loan-tracker/pkg/id"
)

type FileStore interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

type Usecase struct {
	loans    loan.Repository
	payments payment.Repository
	uow      uow.UnitOfWork
	files    FileStore
	events   realtime.Publisher
	log      *slog.Logger
	now      func() time.Time
}

func NewUsecase(loans loan.Repository, payments payment.Repository, tx uow.UnitOfWork, files FileStore, events realtime.Publisher, log *slog.Logger) *Usecase {
	if log == nil {
		log = slog.Default()
	}
	return &Usecase{loans: loans, payments: payments, uow: tx, files: files, events: events, log: log, now: time.Now}
}

// Submit records a payment on loanID. Payments that need nobody's approval
// (no creditor on the loan, or the creditor paying in their own name) are
// confirmed in the same transaction; the rest stay pending and are announced
// on the realtime feed. A stored proof is removed again when the payment
// cannot be recorded.
func (u *Usecase) Submit(ctx context.Context, caller auth.Principal, loanID string, in SubmitInput) (*PaymentDTO, error) {
	const op = "payment.Submit"
	if !in.Amount.IsPositive() {
		return nil, apperror.Validation(op, "amount must be greater than 0")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, apperror.Validation(op, "amount must have at most 2 decimal places")
	}
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return nil, apperror.Validation(op, "date must be YYYY-MM-DD")
	}
	if !user.ViewFor(caller.Role).CanSubmitPayment {
		return nil, apperror.Forbidden(op, "role cannot submit payments")
	}

	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !l.OwnedBy(caller.UserID) {
		return nil, apperror.NotFound(op, "loan not found")
	}
	if l.Status == loan.StatusPaid {
		return nil, apperror.Validation(op, "loan is already paid off")
	}

	p := &payment.Payment{
		PaymentID:   id.NewID32(),
		LoanID:      l.LoanID,
		Amount:      in.Amount,
		Date:        date,
		Status:      payment.StatusPending,
		SubmittedBy: caller.UserID,
	}
	if in.Proof != nil && u.files != nil {
		url, err := u.files.Put(ctx, in.Proof.Name, in.Proof.Body)
		if err != nil {
			return nil, apperror.Persistence(op, err)
		}
		p.ProofURL = url
	}

	if !l.HasCreditor() || l.LenderID == caller.UserID {
		updated, err := u.submitConfirmed(ctx, p)
		if err != nil {
			u.discardProof(ctx, p.ProofURL)
			return nil, err
		}
		metrics.PaymentsSubmitted.Inc()
		// the creditor's other sessions only need the new balance
		u.publish(ctx, realtime.LoanEvent(realtime.EventLoanSaved, updated, u.now().UTC()))
		dto := toDTO(*p, l.Name)
		return &dto, nil
	}

	if err := u.payments.Create(ctx, p); err != nil {
		u.discardProof(ctx, p.ProofURL)
		return nil, err
	}
	metrics.PaymentsSubmitted.Inc()
	u.publish(ctx, realtime.PaymentEvent(realtime.EventPaymentInserted, l, *p, u.now().UTC()))
	dto := toDTO(*p, l.Name)
	return &dto, nil
}

func (u *Usecase) discardProof(ctx context.Context, url string) {
	if url == "" || u.files == nil {
		return
	}
	if err := u.files.Remove(context.WithoutCancel(ctx), url); err != nil {
		u.log.WarnContext(ctx, "orphan proof not removed", "url", url, "err", err)
	}
}

func (u *Usecase) submitConfirmed(ctx context.Context, p *payment.Payment) (*loan.Loan, error) {
	at := u.now().UTC()
	var updated *loan.Loan
	err := u.uow.WithinLoanTx(ctx, p.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}
		ok, err := r.Payments.TransitionStatus(ctx, p.PaymentID, payment.StatusPending, payment.StatusCompleted, at)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.Confirmation("payment.Submit", "payment is no longer pending")
		}
		l.ApplyPayment(p.Amount)
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.Status = payment.StatusCompleted
	p.StatusUpdatedAt = at
	metrics.PaymentTransitions.WithLabelValues(string(payment.StatusCompleted)).Inc()
	return updated, nil
}

// publish is advisory: the change is already stored. Loans without a
// creditor have nobody listening.
func (u *Usecase) publish(ctx context.Context, ev realtime.Event) {
	if u.events == nil || ev.LenderID == "" {
		return
	}
	if err := u.events.Publish(ctx, ev); err != nil {
		u.log.WarnContext(ctx, "realtime event not delivered", "type", ev.Type, "loan_id", ev.LoanID, "err", err)
	}
}

// Confirm completes a pending payment and deducts it from the loan balance
// in one transaction.
func (u *Usecase) Confirm(ctx context.Context, caller auth.Principal, paymentID string) (*DecisionDTO, error) {
	return u.decide(ctx, "payment.Confirm", caller, paymentID, payment.StatusCompleted)
}

// Reject closes a pending payment without touching the loan.
func (u *Usecase) Reject(ctx context.Context, caller auth.Principal, paymentID string) (*DecisionDTO, error) {
	return u.decide(ctx, "payment.Reject", caller, paymentID, payment.StatusRejected)
}

func (u *Usecase) decide(ctx context.Context, op string, caller auth.Principal, paymentID string, to payment.Status) (*DecisionDTO, error) {
	if !payment.CanTransition(payment.StatusPending, to) {
		return nil, apperror.Confirmation(op, "unsupported transition to "+string(to))
	}
	at := u.now().UTC()

	var (
		out     *DecisionDTO
		decided *loan.Loan
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Payments.GetByPaymentID(ctx, paymentID)
		if err != nil {
			return err
		}
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, p.LoanID)
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Confirmation(op, "owning loan not found")
		}
		if err != nil {
			return err
		}

		if l.LenderID != caller.UserID || !user.ViewFor(caller.Role).CanConfirmPayment {
			if l.OwnedBy(caller.UserID) {
				return apperror.Forbidden(op, "only the creditor can decide on this payment")
			}
			return apperror.NotFound(op, "payment not found")
		}
		if p.Status != payment.StatusPending {
			return apperror.Confirmation(op, "payment already "+string(p.Status))
		}

		ok, err := r.Payments.TransitionStatus(ctx, p.PaymentID, payment.StatusPending, to, at)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.Confirmation(op, "payment is no longer pending")
		}
		p.Status = to
		p.StatusUpdatedAt = at

		if to == payment.StatusCompleted {
			l.ApplyPayment(p.Amount)
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
		}
		out = &DecisionDTO{Payment: toDTO(*p, l.Name), LoanID: l.LoanID, CurrentBalance: l.CurrentBalance, LoanStatus: l.Status}
		decided = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentTransitions.WithLabelValues(string(to)).Inc()
	u.log.InfoContext(ctx, "payment decided", "payment_id", paymentID, "status", to, "loan_id", out.LoanID)
	evType := realtime.EventPaymentRejected
	if to == payment.StatusCompleted {
		evType = realtime.EventPaymentConfirmed
	}
	u.publish(ctx, realtime.PaymentEvent(evType, decided, out.Payment.Payment, at))
	return out, nil
}

// ListByLoan returns the payments of a loan the caller is party to, newest first.
func (u *Usecase) ListByLoan(ctx context.Context, caller auth.Principal, loanID string) ([]PaymentDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !l.OwnedBy(caller.UserID) {
		return nil, apperror.NotFound("payment.ListByLoan", "loan not found")
	}
	ps, err := u.payments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toDTO(p, l.Name))
	}
	return out, nil
}

// ListPending is the creditor inbox, oldest request first.
func (u *Usecase) ListPending(ctx context.Context, caller auth.Principal) ([]PaymentDTO, error) {
	if !user.ViewFor(caller.Role).CanConfirmPayment {
		return nil, apperror.Forbidden("payment.ListPending", "only creditors have an inbox")
	}
	ps, err := u.payments.ListPendingByLender(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	names, err := u.loanNames(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toDTO(p, names[p.LoanID]))
	}
	return out, nil
}

func (u *Usecase) Recent(ctx context.Context, caller auth.Principal, limit int) ([]PaymentDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	ps, err := u.payments.ListRecentByUser(ctx, caller.UserID, limit)
	if err != nil {
		return nil, err
	}
	names, err := u.loanNames(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toDTO(p, names[p.LoanID]))
	}
	return out, nil
}

// SessionState is the starting view of a realtime session: the creditor's
// loans and open inbox. Debtors get an empty view since nothing is routed
// to them.
func (u *Usecase) SessionState(ctx context.Context, caller auth.Principal) (state.State, error) {
	if !user.ViewFor(caller.Role).ReceivesPaymentAlerts {
		return state.State{}, nil
	}
	ls, err := u.loans.ListByLender(ctx, caller.UserID)
	if err != nil {
		return state.State{}, err
	}
	ps, err := u.payments.ListPendingByLender(ctx, caller.UserID)
	if err != nil {
		return state.State{}, err
	}
	return state.State{Loans: ls, Payments: ps}, nil
}

func (u *Usecase) loanNames(ctx context.Context, caller auth.Principal) (map[string]string, error) {
	var (
		ls  []loan.Loan
		err error
	)
	if caller.Role == user.RoleCreditor {
		ls, err = u.loans.ListByLender(ctx, caller.UserID)
	} else {
		ls, err = u.loans.ListByDebtor(ctx, caller.UserID)
	}
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(ls))
	for _, l := range ls {
		names[l.LoanID] = l.Name
	}
	return names, nil
}
