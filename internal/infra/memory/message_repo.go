package memory

import (
	"context"
	"sync"

	"detailing-intake-bot/internal/domain"
)

type MessageRepo struct {
	mu     sync.RWMutex
	nextID int64
	msgs   []domain.Message
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{msgs: make([]domain.Message, 0, 256)}
}

func (r *MessageRepo) AppendMessage(_ context.Context, m domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	if m.Kind == "" {
		m.Kind = "text"
	}
	m.LeadID = cloneVal(m.LeadID)
	r.msgs = append(r.msgs, m)
	return nil
}

// ListByLead returns the last limit messages of a lead, oldest first.
func (r *MessageRepo) ListByLead(_ context.Context, leadID int64, limit int) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Message
	for _, m := range r.msgs {
		if m.LeadID != nil && *m.LeadID == leadID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
