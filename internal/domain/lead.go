package domain

import (
	"context"
	"time"
)

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadInWork    LeadStatus = "in_work"
	LeadCompleted LeadStatus = "completed"
	LeadRejected  LeadStatus = "rejected"
)

// Active reports whether the conversation may still write into a lead with this status.
func (s LeadStatus) Active() bool {
	return s == LeadNew || s == LeadInWork
}

// Lead: заявка клиента. Поля чек-листа лежат во встроенном LeadFields.
type Lead struct {
	ID     int64
	UserID int64
	Status LeadStatus
	LeadFields

	SubmittedAt *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l Lead) Submitted() bool { return l.SubmittedAt != nil }

type LeadRepository interface {
	// FindActiveLead returns the newest new/in_work lead of the user, or nil.
	FindActiveLead(ctx context.Context, userID int64) (*Lead, error)
	CreateLead(ctx context.Context, userID int64, at time.Time) (*Lead, error)
	// UpdateLead writes only the present fields of f.
	UpdateLead(ctx context.Context, id int64, f LeadFields, at time.Time) error
	MarkSubmitted(ctx context.Context, id int64, at time.Time) error
	GetLead(ctx context.Context, id int64) (*Lead, error)
	// LatestLead returns the newest lead of the user regardless of status, or nil.
	LatestLead(ctx context.Context, userID int64) (*Lead, error)
	RecentLeadCreations(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)
	SetStatus(ctx context.Context, id int64, status LeadStatus, at time.Time) error
	ListByStatus(ctx context.Context, status LeadStatus, limit int) ([]Lead, error)
	CountByStatus(ctx context.Context, status LeadStatus) (int, error)
}
