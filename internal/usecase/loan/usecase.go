package loan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"loan-tracker/internal/auth"
	"loan-tracker/internal/domain/apperror"
	"loan-tracker/internal/domain/loan"
	"loan-tracker/internal/domain/payment"
	"loan-tracker/internal/domain/uow"
	"loan-tracker/internal/domain/user"
	"loan-tracker/internal/realtime"
	"loan-tracker/internal/state"
	"loan-tracker/pkg/id"
)

const recentLimit = 10

type UserLookup interface {
	GetByUserID(ctx context.Context, userID string) (*user.User, error)
}

type Usecase struct {
	loans    loan.Repository
	payments payment.Repository
	users    UserLookup
	uow      uow.UnitOfWork
	events   realtime.Publisher
	now      func() time.Time
}

// NewUsecase wires the loan use cases. events may be nil; otherwise changes
// to creditor-owned loans are published on it.
func NewUsecase(loans loan.Repository, payments payment.Repository, users UserLookup, tx uow.UnitOfWork, events realtime.Publisher) *Usecase {
	return &Usecase{loans: loans, payments: payments, users: users, uow: tx, events: events, now: time.Now}
}

func (u *Usecase) Create(ctx context.Context, caller auth.Principal, in LoanInput) (*LoanDTO, error) {
	const op = "loan.Create"
	view := user.ViewFor(caller.Role)
	if !view.CanCreateLoan {
		return nil, apperror.Forbidden(op, "role cannot create loans")
	}

	l := &loan.Loan{LoanID: id.NewID32()}
	if view.MustSelectDebtor {
		if in.DebtorID == "" {
			return nil, apperror.Validation(op, "a debtor must be selected")
		}
		if err := u.checkDebtor(ctx, op, in.DebtorID); err != nil {
			return nil, err
		}
		l.LenderID = caller.UserID
		l.DebtorID = in.DebtorID
		if in.LenderName == "" {
			me, err := u.users.GetByUserID(ctx, caller.UserID)
			if err != nil {
				return nil, err
			}
			in.LenderName = me.FullName
		}
	} else {
		if in.LenderName == "" {
			return nil, apperror.Validation(op, "lender name is required")
		}
		l.DebtorID = caller.UserID
	}

	if err := apply(op, l, in); err != nil {
		return nil, err
	}
	if err := u.loans.Create(ctx, l); err != nil {
		return nil, err
	}
	u.publish(ctx, realtime.EventLoanSaved, l)
	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, caller auth.Principal, loanID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !l.OwnedBy(caller.UserID) {
		return nil, apperror.NotFound("loan.Get", "loan not found")
	}
	dto := toDTO(l)
	return &dto, nil
}

// List returns the caller's loans, newest first: those they lend as a
// creditor, those they owe as a debtor.
func (u *Usecase) List(ctx context.Context, caller auth.Principal) ([]LoanDTO, error) {
	ls, err := u.list(ctx, caller)
	if err != nil {
		return nil, err
	}
	return toDTOs(ls), nil
}

func (u *Usecase) list(ctx context.Context, caller auth.Principal) ([]loan.Loan, error) {
	switch caller.Role {
	case user.RoleCreditor:
		return u.loans.ListByLender(ctx, caller.UserID)
	case user.RoleDebtor:
		return u.loans.ListByDebtor(ctx, caller.UserID)
	default:
		return nil, apperror.Forbidden("loan.List", "unknown role")
	}
}

func (u *Usecase) Update(ctx context.Context, caller auth.Principal, loanID string, in LoanInput) (*LoanDTO, error) {
	const op = "loan.Update"
	var out *loan.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if err := manageable(op, l, caller); err != nil {
			return err
		}
		if l.HasCreditor() && in.DebtorID != "" && in.DebtorID != l.DebtorID {
			if err := u.checkDebtor(ctx, op, in.DebtorID); err != nil {
				return err
			}
			l.DebtorID = in.DebtorID
		}
		if in.LenderName == "" {
			in.LenderName = l.LenderName
		}
		if err := apply(op, l, in); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, realtime.EventLoanSaved, out)
	dto := toDTO(out)
	return &dto, nil
}

// Delete removes the loan and, in the same transaction, its payments.
func (u *Usecase) Delete(ctx context.Context, caller auth.Principal, loanID string) error {
	const op = "loan.Delete"
	var gone *loan.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if err := manageable(op, l, caller); err != nil {
			return err
		}
		if err := r.Payments.DeleteByLoanID(ctx, l.LoanID); err != nil {
			return err
		}
		if err := r.Loans.Delete(ctx, l.LoanID); err != nil {
			return err
		}
		gone = l
		return nil
	})
	if err != nil {
		return err
	}
	u.publish(ctx, realtime.EventLoanDeleted, gone)
	return nil
}

// publish is advisory: the change is already stored.
func (u *Usecase) publish(ctx context.Context, t realtime.EventType, l *loan.Loan) {
	if u.events == nil || !l.HasCreditor() {
		return
	}
	if err := u.events.Publish(ctx, realtime.LoanEvent(t, l, u.now().UTC())); err != nil {
		slog.WarnContext(ctx, "loan event not delivered", "type", t, "loan_id", l.LoanID, "err", err)
	}
}

// Dashboard replays the caller's loans and latest payments through the
// state store and reads the summary off the result.
func (u *Usecase) Dashboard(ctx context.Context, caller auth.Principal) (*DashboardDTO, error) {
	ls, err := u.list(ctx, caller)
	if err != nil {
		return nil, err
	}
	recent, err := u.payments.ListRecentByUser(ctx, caller.UserID, recentLimit)
	if err != nil {
		return nil, err
	}

	store := state.NewStore(state.State{})
	store.Dispatch(state.LoansLoaded{Loans: ls}, state.PaymentsLoaded{Payments: recent})

	if user.ViewFor(caller.Role).CanConfirmPayment {
		pending, err := u.payments.ListPendingByLender(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		for _, p := range pending {
			store.Dispatch(state.PaymentInserted{Payment: p})
		}
	}

	s := store.Snapshot()
	return &DashboardDTO{
		Summary:      s.Summary(),
		Loans:        toDTOs(s.Loans),
		Recent:       s.Recent(recentLimit),
		PendingCount: s.PendingCount(),
	}, nil
}

func (u *Usecase) checkDebtor(ctx context.Context, op, debtorID string) error {
	d, err := u.users.GetByUserID(ctx, debtorID)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.Validation(op, "unknown debtor")
	}
	if err != nil {
		return err
	}
	if d.Role != user.RoleDebtor {
		return apperror.Validation(op, "selected user is not a debtor")
	}
	return nil
}

// manageable hides loans of other people and forbids edits by the party
// that does not manage the loan.
func manageable(op string, l *loan.Loan, caller auth.Principal) error {
	if !l.OwnedBy(caller.UserID) {
		return apperror.NotFound(op, "loan not found")
	}
	if !l.ManagedBy(caller.UserID) {
		return apperror.Forbidden(op, "only the managing party can change this loan")
	}
	return nil
}

// apply copies the input onto l and enforces paid <=> zero balance.
func apply(op string, l *loan.Loan, in LoanInput) error {
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return apperror.Validation(op, "start date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return apperror.Validation(op, "end date must be YYYY-MM-DD")
	}

	l.Name = in.Name
	l.LenderName = in.LenderName
	l.OriginalAmount = in.OriginalAmount
	l.CurrentBalance = in.CurrentBalance
	l.InterestRate = in.InterestRate
	l.MonthlyPayment = in.MonthlyPayment
	l.StartDate = start
	l.EndDate = end
	l.Type = in.Type
	l.Status = in.Status
	if l.Status == "" {
		l.Status = loan.StatusActive
	}

	switch {
	case l.CurrentBalance.IsZero():
		l.Status = loan.StatusPaid
	case l.Status == loan.StatusPaid:
		return apperror.Validation(op, "a paid loan must have zero balance")
	}
	return l.Validate()
}
