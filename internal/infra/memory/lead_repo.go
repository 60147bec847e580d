package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"detailing-intake-bot/internal/domain"
)

// LeadRepo keeps leads in process memory. Returned leads are copies.
type LeadRepo struct {
	mu     sync.RWMutex
	nextID int64
	leads  map[int64]*domain.Lead
}

func NewLeadRepo() *LeadRepo {
	return &LeadRepo{leads: make(map[int64]*domain.Lead)}
}

func (r *LeadRepo) FindActiveLead(_ context.Context, userID int64) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newest(func(l *domain.Lead) bool { return l.UserID == userID && l.Status.Active() }), nil
}

func (r *LeadRepo) CreateLead(_ context.Context, userID int64, at time.Time) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l := &domain.Lead{
		ID:        r.nextID,
		UserID:    userID,
		Status:    domain.LeadNew,
		CreatedAt: at.UTC(),
		UpdatedAt: at.UTC(),
	}
	r.leads[l.ID] = l
	return clone(l), nil
}

func (r *LeadRepo) UpdateLead(_ context.Context, id int64, f domain.LeadFields, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return notFound(id)
	}
	l.LeadFields = cloneFields(l.LeadFields.Merge(f))
	l.UpdatedAt = at.UTC()
	return nil
}

func (r *LeadRepo) MarkSubmitted(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return notFound(id)
	}
	l.SubmittedAt = domain.Ptr(at.UTC())
	l.UpdatedAt = at.UTC()
	return nil
}

func (r *LeadRepo) GetLead(_ context.Context, id int64) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(l), nil
}

func (r *LeadRepo) LatestLead(_ context.Context, userID int64) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newest(func(l *domain.Lead) bool { return l.UserID == userID }), nil
}

func (r *LeadRepo) RecentLeadCreations(_ context.Context, userID int64, since time.Time) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []time.Time
	for _, l := range r.sorted(func(l *domain.Lead) bool { return l.UserID == userID && !l.CreatedAt.Before(since) }) {
		out = append(out, l.CreatedAt)
	}
	return out, nil
}

func (r *LeadRepo) SetStatus(_ context.Context, id int64, status domain.LeadStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return notFound(id)
	}
	l.Status = status
	l.UpdatedAt = at.UTC()
	if status == domain.LeadCompleted {
		l.CompletedAt = domain.Ptr(at.UTC())
	}
	return nil
}

func (r *LeadRepo) ListByStatus(_ context.Context, status domain.LeadStatus, limit int) ([]domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 10
	}
	out := make([]domain.Lead, 0, limit)
	for _, l := range r.sorted(func(l *domain.Lead) bool { return l.Status == status }) {
		if len(out) == limit {
			break
		}
		out = append(out, *clone(l))
	}
	return out, nil
}

func (r *LeadRepo) CountByStatus(_ context.Context, status domain.LeadStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, l := range r.leads {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *LeadRepo) newest(match func(*domain.Lead) bool) *domain.Lead {
	list := r.sorted(match)
	if len(list) == 0 {
		return nil
	}
	return clone(list[0])
}

// sorted returns matching leads, newest first.
func (r *LeadRepo) sorted(match func(*domain.Lead) bool) []*domain.Lead {
	var list []*domain.Lead
	for _, l := range r.leads {
		if match(l) {
			list = append(list, l)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list
}

func notFound(id int64) error {
	return fmt.Errorf("memory: lead %d: %w", id, domain.ErrLeadNotFound)
}

func clone(l *domain.Lead) *domain.Lead {
	c := *l
	c.LeadFields = cloneFields(l.LeadFields)
	c.SubmittedAt = cloneVal(l.SubmittedAt)
	c.CompletedAt = cloneVal(l.CompletedAt)
	return &c
}

func cloneFields(f domain.LeadFields) domain.LeadFields {
	return domain.LeadFields{
		Service:        cloneVal(f.Service),
		Variant:        cloneVal(f.Variant),
		Zone:           cloneVal(f.Zone),
		Goal:           cloneVal(f.Goal),
		Comment:        cloneVal(f.Comment),
		VehicleBrand:   cloneVal(f.VehicleBrand),
		VehicleModel:   cloneVal(f.VehicleModel),
		VehicleYear:    cloneVal(f.VehicleYear),
		VehicleSkipped: cloneVal(f.VehicleSkipped),
		ScheduledWhen:  cloneVal(f.ScheduledWhen),
		Phone:          cloneVal(f.Phone),
		IsUrgent:       cloneVal(f.IsUrgent),
		IsRedFlag:      cloneVal(f.IsRedFlag),
	}
}

func cloneVal[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
