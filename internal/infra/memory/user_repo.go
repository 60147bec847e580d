package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"detailing-intake-bot/internal/domain"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[int64]domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[int64]domain.User)}
}

func (r *UserRepo) UpsertUser(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := u.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	cur, ok := r.users[u.ChatID]
	if !ok {
		cur = domain.User{ChatID: u.ChatID, CreatedAt: now}
		if !u.CreatedAt.IsZero() {
			cur.CreatedAt = u.CreatedAt
		}
	}
	// пустое имя не затирает сохранённое
	if u.Username != "" {
		cur.Username = u.Username
	}
	if u.FirstName != "" {
		cur.FirstName = u.FirstName
	}
	if u.LastName != "" {
		cur.LastName = u.LastName
	}
	cur.UpdatedAt = now
	r.users[u.ChatID] = cur
	return nil
}

func (r *UserRepo) FindUser(_ context.Context, chatID int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[chatID]
	if !ok {
		return nil, nil
	}
	if u.AdminDialogLeadID != nil {
		u.AdminDialogLeadID = domain.Ptr(*u.AdminDialogLeadID)
	}
	return &u, nil
}

func (r *UserRepo) SetAdminDialog(_ context.Context, chatID int64, leadID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[chatID]
	if !ok {
		return fmt.Errorf("memory: user %d: %w", chatID, domain.ErrUserNotFound)
	}
	u.InAdminDialog = leadID != nil
	u.AdminDialogLeadID = nil
	if leadID != nil {
		u.AdminDialogLeadID = domain.Ptr(*leadID)
	}
	u.UpdatedAt = time.Now()
	r.users[chatID] = u
	return nil
}

func (r *UserRepo) ListChatIDs(context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]int64, 0, len(r.users))
	for id := range r.users {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res, nil
}
