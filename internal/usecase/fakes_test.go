package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"detailing-intake-bot/internal/domain"
)

type fakeLeads struct {
	mu    sync.Mutex
	seq   int64
	leads map[int64]*domain.Lead

	failUpdate error
	failCreate error
}

func newFakeLeads() *fakeLeads {
	return &fakeLeads{leads: make(map[int64]*domain.Lead)}
}

func (r *fakeLeads) sorted(userID int64) []*domain.Lead {
	out := make([]*domain.Lead, 0)
	for _, l := range r.leads {
		if userID == 0 || l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *fakeLeads) FindActiveLead(_ context.Context, userID int64) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.sorted(userID) {
		if l.Status.Active() {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLeads) CreateLead(_ context.Context, userID int64, at time.Time) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return nil, r.failCreate
	}
	r.seq++
	l := &domain.Lead{ID: r.seq, UserID: userID, Status: domain.LeadNew, CreatedAt: at, UpdatedAt: at}
	r.leads[l.ID] = l
	cp := *l
	return &cp, nil
}

func (r *fakeLeads) UpdateLead(_ context.Context, id int64, f domain.LeadFields, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	l, ok := r.leads[id]
	if !ok {
		return domain.ErrLeadNotFound
	}
	l.LeadFields = l.LeadFields.Merge(f)
	l.UpdatedAt = at
	return nil
}

func (r *fakeLeads) MarkSubmitted(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return domain.ErrLeadNotFound
	}
	l.SubmittedAt = &at
	return nil
}

func (r *fakeLeads) GetLead(_ context.Context, id int64) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLeads) LatestLead(_ context.Context, userID int64) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(userID)
	if len(all) == 0 {
		return nil, nil
	}
	cp := *all[0]
	return &cp, nil
}

func (r *fakeLeads) RecentLeadCreations(_ context.Context, userID int64, since time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []time.Time
	for _, l := range r.sorted(userID) {
		if !l.CreatedAt.Before(since) {
			out = append(out, l.CreatedAt)
		}
	}
	return out, nil
}

func (r *fakeLeads) SetStatus(_ context.Context, id int64, status domain.LeadStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return domain.ErrLeadNotFound
	}
	l.Status = status
	l.UpdatedAt = at
	if status == domain.LeadCompleted {
		l.CompletedAt = &at
	}
	return nil
}

func (r *fakeLeads) ListByStatus(_ context.Context, status domain.LeadStatus, limit int) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Lead
	for _, l := range r.sorted(0) {
		if l.Status == status && len(out) < limit {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLeads) CountByStatus(_ context.Context, status domain.LeadStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.leads {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

// seed inserts a lead created at the given time.
func (r *fakeLeads) seed(userID int64, at time.Time, status domain.LeadStatus, f domain.LeadFields) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.leads[r.seq] = &domain.Lead{ID: r.seq, UserID: userID, Status: status, LeadFields: f, CreatedAt: at, UpdatedAt: at}
	return r.seq
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]domain.User

	failFind error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[int64]domain.User)}
}

func (r *fakeUsers) UpsertUser(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.users[u.ChatID]; ok {
		if u.FirstName == "" {
			u.FirstName = cur.FirstName
		}
		if u.Username == "" {
			u.Username = cur.Username
		}
		u.InAdminDialog, u.AdminDialogLeadID = cur.InAdminDialog, cur.AdminDialogLeadID
		u.CreatedAt = cur.CreatedAt
	}
	r.users[u.ChatID] = u
	return nil
}

func (r *fakeUsers) FindUser(_ context.Context, chatID int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFind != nil {
		return nil, r.failFind
	}
	u, ok := r.users[chatID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *fakeUsers) SetAdminDialog(_ context.Context, chatID int64, leadID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[chatID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.InAdminDialog = leadID != nil
	u.AdminDialogLeadID = leadID
	r.users[chatID] = u
	return nil
}

func (r *fakeUsers) ListChatIDs(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeMessages struct {
	mu   sync.Mutex
	msgs []domain.Message
	fail error
}

func (r *fakeMessages) AppendMessage(_ context.Context, m domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	m.ID = int64(len(r.msgs) + 1)
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *fakeMessages) ListByLead(_ context.Context, leadID int64, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.msgs {
		if m.LeadID != nil && *m.LeadID == leadID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessages) all() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.msgs...)
}

type fakeFunnel struct {
	mu   sync.Mutex
	hits map[Step]map[int64]struct{}
	fail error
}

func newFakeFunnel() *fakeFunnel {
	return &fakeFunnel{hits: make(map[Step]map[int64]struct{})}
}

func (r *fakeFunnel) Hit(_ context.Context, step Step, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if r.hits[step] == nil {
		r.hits[step] = make(map[int64]struct{})
	}
	r.hits[step][chatID] = struct{}{}
	return nil
}

func (r *fakeFunnel) Counts(_ context.Context) (map[Step]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Step]int, len(r.hits))
	for s, ids := range r.hits {
		out[s] = len(ids)
	}
	return out, nil
}

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock { return &clock{now: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type countingRecorder struct {
	nopRecorder
	mu        sync.Mutex
	submitted int
	blocked   int
	failed    int
	relayed   int
}

func (r *countingRecorder) LeadSubmitted(string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitted++
}

func (r *countingRecorder) SpamBlocked() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocked++
}

func (r *countingRecorder) TurnFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

func (r *countingRecorder) Relayed(bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relayed++
}
