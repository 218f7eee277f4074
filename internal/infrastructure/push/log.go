package push

import (
	"context"
	"log/slog"
)

// LogPusher is used when no broker is configured.
type LogPusher struct{ Logger *slog.Logger }

func (p LogPusher) Push(ctx context.Context, m Message) error {
	l := p.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "push (log only)", "user_id", m.UserID, "title", m.Title, "body", m.Body)
	return nil
}
