package usecase

import (
	"context"
	"fmt"
	"time"

	"detailing-intake-bot/internal/domain"
)

const adminListLimit = 10

// LeadCard is a rendered lead ready to be shown to an administrator.
type LeadCard struct {
	LeadID int64
	Status domain.LeadStatus
	Text   string
}

// AdminDesk serves the admin-side lead workflow: counts, lists and status
// changes. The admin dialog itself lives in the Orchestrator.
type AdminDesk struct {
	leads domain.LeadRepository
	users domain.UserRepository
	now   func() time.Time
}

func NewAdminDesk(leads domain.LeadRepository, users domain.UserRepository) *AdminDesk {
	return &AdminDesk{leads: leads, users: users, now: time.Now}
}

func (d *AdminDesk) Summary(ctx context.Context) (string, error) {
	newCount, err := d.leads.CountByStatus(ctx, domain.LeadNew)
	if err != nil {
		return "", fmt.Errorf("count new leads: %w", err)
	}
	inWork, err := d.leads.CountByStatus(ctx, domain.LeadInWork)
	if err != nil {
		return "", fmt.Errorf("count in-work leads: %w", err)
	}
	return fmt.Sprintf("📊 Заявки:\n\n🆕 Новые: %d\n🔧 В работе: %d\n\nВыберите категорию:", newCount, inWork), nil
}

// Cards lists the newest leads with the given status.
func (d *AdminDesk) Cards(ctx context.Context, status domain.LeadStatus) ([]LeadCard, error) {
	leads, err := d.leads.ListByStatus(ctx, status, adminListLimit)
	if err != nil {
		return nil, fmt.Errorf("list %s leads: %w", status, err)
	}
	cards := make([]LeadCard, 0, len(leads))
	for _, l := range leads {
		u, err := d.users.FindUser(ctx, l.UserID)
		if err != nil {
			return nil, fmt.Errorf("find user %d: %w", l.UserID, err)
		}
		ev := NewHandoff(l, u, l.UpdatedAt)
		cards = append(cards, LeadCard{LeadID: l.ID, Status: l.Status, Text: FormatLeadCard(ev)})
	}
	return cards, nil
}

func (d *AdminDesk) SetInWork(ctx context.Context, leadID int64) error {
	return d.setStatus(ctx, leadID, domain.LeadInWork)
}

func (d *AdminDesk) Reject(ctx context.Context, leadID int64) error {
	return d.setStatus(ctx, leadID, domain.LeadRejected)
}

func (d *AdminDesk) Complete(ctx context.Context, leadID int64) error {
	return d.setStatus(ctx, leadID, domain.LeadCompleted)
}

func (d *AdminDesk) setStatus(ctx context.Context, leadID int64, status domain.LeadStatus) error {
	if err := d.leads.SetStatus(ctx, leadID, status, d.now()); err != nil {
		return fmt.Errorf("set lead %d %s: %w", leadID, status, err)
	}
	return nil
}

// StatusNote is appended to a card after an admin action.
func StatusNote(status domain.LeadStatus) string {
	switch status {
	case domain.LeadInWork:
		return "✅ Взято в работу"
	case domain.LeadRejected:
		return "❌ Отказ"
	case domain.LeadCompleted:
		return "🏁 Завершено"
	default:
		return ""
	}
}
