package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"detailing-intake-bot/internal/domain"
)

// HandoffEvent is emitted once per submission. Delivery to admins, the owner
// and the CRM is up to the transport.
type HandoffEvent struct {
	ID          uuid.UUID
	LeadID      int64
	UserID      int64
	DisplayName string
	Handle      string
	Fields      domain.LeadFields
	IsUrgent    bool
	IsRedFlag   bool
	SubmittedAt time.Time
}

// NewHandoff builds the event from the stored lead and whatever we know about
// the client.
func NewHandoff(lead domain.Lead, user *domain.User, at time.Time) HandoffEvent {
	ev := HandoffEvent{
		ID:          uuid.New(),
		LeadID:      lead.ID,
		UserID:      lead.UserID,
		Fields:      lead.LeadFields,
		IsUrgent:    lead.Urgent(),
		IsRedFlag:   lead.RedFlag(),
		SubmittedAt: at,
	}
	if lead.SubmittedAt != nil {
		ev.SubmittedAt = *lead.SubmittedAt
	}
	if user != nil {
		ev.DisplayName = user.FirstName
		ev.Handle = user.Username
	}
	return ev
}

// WithFields replaces the checklist and the flags derived from it.
func (ev HandoffEvent) WithFields(f domain.LeadFields) HandoffEvent {
	ev.Fields = f
	ev.IsUrgent = f.Urgent()
	ev.IsRedFlag = f.RedFlag()
	return ev
}

// FormatLeadCard renders the admin-facing card of a lead.
func FormatLeadCard(ev HandoffEvent) string {
	f := ev.Fields
	var b strings.Builder
	if ev.IsUrgent {
		b.WriteString("🚨 ЕДЕТ СЕЙЧАС!")
	} else {
		b.WriteString("🆕 Новая заявка")
	}
	fmt.Fprintf(&b, " #%d\n\n", ev.LeadID)

	name := ev.DisplayName
	if name == "" {
		name = "Не указано"
	}
	b.WriteString("👤 Клиент: " + name)
	if ev.Handle != "" {
		b.WriteString(" (@" + strings.TrimPrefix(ev.Handle, "@") + ")")
	}

	b.WriteString("\n\n📋 Услуга: " + ServiceName(deref(f.Service)))
	if f.Variant != nil {
		b.WriteString("\nВариант: " + *f.Variant)
	}
	if f.Zone != nil {
		b.WriteString("\nЗоны: " + *f.Zone)
	}

	switch {
	case f.VehicleBrand != nil:
		b.WriteString("\n\n🚗 Авто: " + *f.VehicleBrand)
		if f.VehicleModel != nil && *f.VehicleModel != "" {
			b.WriteString(" " + *f.VehicleModel)
		}
		if f.VehicleYear != nil {
			fmt.Fprintf(&b, " (%d г.)", *f.VehicleYear)
		}
	case f.VehicleSkipped != nil && *f.VehicleSkipped:
		b.WriteString("\n\n🚗 Авто: не указано")
	}

	if f.ScheduledWhen != nil {
		b.WriteString("\n\n⏰ Когда удобно: " + *f.ScheduledWhen)
	}
	if f.Phone != nil {
		b.WriteString("\n\n📞 Телефон: " + *f.Phone)
	}

	var comment []string
	if f.Goal != nil {
		comment = append(comment, *f.Goal)
	}
	if f.Comment != nil && *f.Comment != WashExtrasNone {
		comment = append(comment, *f.Comment)
	}
	if len(comment) > 0 {
		b.WriteString("\n\n💬 Комментарий: " + strings.Join(comment, "; "))
	}
	if ev.IsRedFlag {
		b.WriteString("\n\n⚠️ Требует внимания: в переписке есть жалоба или нестандартный запрос")
	}
	return b.String()
}
