package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"detailing-intake-bot/internal/usecase"
)

// keep only the tail of the history, admins look at the last few runs
const maxBroadcastStats = 100

type BroadcastStatRepo struct {
	mu      sync.RWMutex
	history []usecase.BroadcastStat
}

func NewBroadcastStatRepo() *BroadcastStatRepo {
	return &BroadcastStatRepo{}
}

func (r *BroadcastStatRepo) Save(_ context.Context, stat usecase.BroadcastStat) error {
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, stat)
	if extra := len(r.history) - maxBroadcastStats; extra > 0 {
		r.history = slices.Delete(r.history, 0, extra)
	}
	return nil
}

// ListRecent returns up to n runs, newest first.
func (r *BroadcastStatRepo) ListRecent(_ context.Context, n int) ([]usecase.BroadcastStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	from := 0
	if n > 0 && n < len(r.history) {
		from = len(r.history) - n
	}
	out := slices.Clone(r.history[from:])
	slices.Reverse(out)
	return out, nil
}
