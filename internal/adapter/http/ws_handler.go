package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"loan-tracker/internal/auth"
	"loan-tracker/internal/notify"
	"loan-tracker/internal/realtime"
	"loan-tracker/internal/state"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// Notification is one frame pushed to a websocket client. Toast is set only
// for events the user should be alerted about.
type Notification struct {
	Type         realtime.EventType `json:"type"`
	Toast        *notify.Toast      `json:"toast,omitempty"`
	Event        realtime.Event     `json:"event"`
	PendingCount int                `json:"pending_count"`
}

// SessionSource loads the view a new session starts from.
type SessionSource interface {
	SessionState(ctx context.Context, caller auth.Principal) (state.State, error)
}

// NotificationsHandler streams the realtime feed over a websocket. Each
// session keeps its own state store, seeded from the inbox, so the pending
// badge follows submissions, decisions and loan deletions.
type NotificationsHandler struct {
	hub      *realtime.Hub
	source   SessionSource
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewNotificationsHandler(hub *realtime.Hub, source SessionSource, log *slog.Logger) *NotificationsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationsHandler{
		hub:    hub,
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Stream must run behind RequireAuth, so the principal is known before the
// upgrade and unauthenticated clients get a plain 401. The session subscribes
// before loading its seed; events racing the load are replayed onto it and
// the reducer ignores the duplicates.
func (h *NotificationsHandler) Stream(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	events, unsubscribe := h.hub.Subscribe(realtime.FilterFor(p.Role, p.UserID))
	defer unsubscribe()

	seed := state.State{}
	if h.source != nil {
		if seed, err = h.source.SessionState(c.Request().Context(), p); err != nil {
			return writeError(c, err)
		}
	}
	store := state.NewStore(seed)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the error response
		h.log.Warn("websocket upgrade failed", "user_id", p.UserID, "err", err)
		return nil
	}
	defer conn.Close()
	h.log.Info("websocket client connected", "user_id", p.UserID, "role", p.Role, "pending", store.Snapshot().PendingCount())

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			h.log.Info("websocket client disconnected", "user_id", p.UserID)
			return nil
		case <-c.Request().Context().Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
				return nil
			}
			a, ok := sessionAction(ev)
			if !ok {
				continue
			}
			n := Notification{Type: ev.Type, Event: ev, PendingCount: store.Dispatch(a).PendingCount()}
			if toast, ok := notify.ToastFor(ev); ok {
				n.Toast = &toast
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(n); err != nil {
				h.log.Warn("websocket write failed", "user_id", p.UserID, "err", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}

// sessionAction maps a feed event onto the session store.
func sessionAction(ev realtime.Event) (state.Action, bool) {
	switch ev.Type {
	case realtime.EventPaymentInserted:
		return state.PaymentInserted{Payment: ev.Payment}, true
	case realtime.EventPaymentConfirmed:
		return state.PaymentConfirmed{PaymentID: ev.Payment.PaymentID, At: ev.Payment.StatusUpdatedAt}, true
	case realtime.EventPaymentRejected:
		return state.PaymentRejected{PaymentID: ev.Payment.PaymentID, At: ev.Payment.StatusUpdatedAt}, true
	case realtime.EventLoanSaved:
		if ev.Loan == nil {
			return nil, false
		}
		return state.LoanSaved{Loan: *ev.Loan}, true
	case realtime.EventLoanDeleted:
		return state.LoanDeleted{LoanID: ev.LoanID}, true
	}
	return nil, false
}

// readPump drains client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
