package push

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is what an external push sender receives per notification.
type Message struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url,omitempty"`
}

func (m Message) ToJSON() ([]byte, error) { return json.Marshal(m) }

func MessageFromJSON(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode push message: %w", err)
	}
	return &m, nil
}

type Pusher interface {
	Push(ctx context.Context, m Message) error
}
