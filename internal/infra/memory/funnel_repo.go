package memory

import (
	"context"
	"sync"

	"detailing-intake-bot/internal/usecase"
)

type funnelKey struct {
	step   usecase.Step
	chatID int64
}

// FunnelRepo remembers which chats reached which steps. Repeated hits of the
// same chat count once.
type FunnelRepo struct {
	mu   sync.RWMutex
	seen map[funnelKey]struct{}
}

func NewFunnelRepo() *FunnelRepo {
	return &FunnelRepo{seen: make(map[funnelKey]struct{})}
}

func (r *FunnelRepo) Hit(_ context.Context, step usecase.Step, chatID int64) error {
	r.mu.Lock()
	r.seen[funnelKey{step: step, chatID: chatID}] = struct{}{}
	r.mu.Unlock()
	return nil
}

func (r *FunnelRepo) Counts(context.Context) (map[usecase.Step]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[usecase.Step]int)
	for k := range r.seen {
		out[k.step]++
	}
	return out, nil
}
