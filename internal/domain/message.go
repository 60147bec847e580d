package domain

import (
	"context"
	"time"
)

// Message is one line of the conversation history kept for admins.
type Message struct {
	ID        int64
	UserID    int64
	LeadID    *int64
	FromAdmin bool
	Text      string
	Kind      string // text/contact
	CreatedAt time.Time
}

type MessageRepository interface {
	AppendMessage(ctx context.Context, m Message) error
	ListByLead(ctx context.Context, leadID int64, limit int) ([]Message, error)
}
