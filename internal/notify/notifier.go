package notify

import (
	"context"
	"errors"
	"log/slog"

	"loan-tracker/internal/domain/apperror"
	"loan-tracker/internal/domain/user"
	"loan-tracker/internal/infrastructure/metrics"
	"loan-tracker/internal/infrastructure/push"
	"loan-tracker/internal/realtime"
)

type UserLookup interface {
	GetByUserID(ctx context.Context, userID string) (*user.User, error)
}

// Notifier turns payment events into push messages for creditors who
// granted permission. It is a realtime.Publisher fed by the instance that
// produced the event, so each event is pushed once across instances.
type Notifier struct {
	users   UserLookup
	pusher  push.Pusher
	queue   chan realtime.Event
	baseURL string
	log     *slog.Logger
}

func NewNotifier(users UserLookup, pusher push.Pusher, baseURL string, buffer int, log *slog.Logger) *Notifier {
	if buffer <= 0 {
		buffer = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{users: users, pusher: pusher, queue: make(chan realtime.Event, buffer), baseURL: baseURL, log: log}
}

// Publish enqueues without blocking; a full queue drops the event. Events
// that carry no toast are ignored.
func (n *Notifier) Publish(_ context.Context, ev realtime.Event) error {
	if _, ok := ToastFor(ev); !ok {
		return nil
	}
	select {
	case n.queue <- ev:
	default:
		metrics.PushFailures.Inc()
		n.log.Warn("push queue full, dropping event", "payment_id", ev.Payment.PaymentID)
	}
	return nil
}

// Run drains the queue until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-n.queue:
			if err := n.Handle(ctx, ev); err != nil {
				n.log.Error("push notification failed", "payment_id", ev.Payment.PaymentID, "err", err)
			}
		}
	}
}

// Handle pushes one event. Events without a creditor, creditors without
// push permission and unknown users are skipped silently.
func (n *Notifier) Handle(ctx context.Context, ev realtime.Event) error {
	toast, ok := ToastFor(ev)
	if !ok || ev.LenderID == "" {
		return nil
	}
	// the creditor submitted it; nothing to tell them
	if ev.Payment.SubmittedBy == ev.LenderID {
		return nil
	}

	u, err := n.users.GetByUserID(ctx, ev.LenderID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !u.PushEnabled || !user.ViewFor(u.Role).ReceivesPaymentAlerts {
		return nil
	}

	msg := push.Message{UserID: u.UserID, Title: toast.Title, Body: toast.Body, URL: n.baseURL + "/payments/pending"}
	if err := n.pusher.Push(ctx, msg); err != nil {
		metrics.PushFailures.Inc()
		return err
	}
	return nil
}
