package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"detailing-intake-bot/internal/domain"
	"detailing-intake-bot/internal/usecase"
)

// DeliveryObserver is told how each CRM copy went.
type DeliveryObserver interface {
	ObserveDelivery(err error)
}

// Notifier hands submitted leads to the studio: a card in the admin chat, a
// duplicate to the owner for urgent leads, and an optional CRM copy.
type Notifier struct {
	sender      *Sender
	adminChatID int64
	ownerChatID int64
	crm         usecase.LeadDelivery
	crmTimeout  time.Duration
	deliveries  DeliveryObserver
	logger      *slog.Logger

	wg sync.WaitGroup
}

type NotifierOption func(*Notifier)

func WithCRM(d usecase.LeadDelivery, obs DeliveryObserver) NotifierOption {
	return func(n *Notifier) {
		n.crm = d
		n.deliveries = obs
	}
}

func WithNotifierLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

func NewNotifier(sender *Sender, adminChatID, ownerChatID int64, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		sender:      sender,
		adminChatID: adminChatID,
		ownerChatID: ownerChatID,
		crmTimeout:  15 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify sends the lead card. The CRM copy runs in the background and never
// fails the handoff.
func (n *Notifier) Notify(ctx context.Context, ev usecase.HandoffEvent) error {
	card := usecase.FormatLeadCard(ev)
	log := n.logger.With("lead_id", ev.LeadID, "chat_id", ev.UserID, "handoff_id", ev.ID.String())

	var firstErr error
	if n.adminChatID != 0 {
		if err := n.sender.SendInline(ctx, n.adminChatID, card, cardKeyboard(ev.LeadID, domain.LeadNew)); err != nil {
			firstErr = fmt.Errorf("lead card to admin chat: %w", err)
		}
	} else {
		log.Warn("admin chat is not configured, lead card dropped")
	}
	if ev.IsUrgent && n.ownerChatID != 0 && n.ownerChatID != n.adminChatID {
		if err := n.sender.SendInline(ctx, n.ownerChatID, card, cardKeyboard(ev.LeadID, domain.LeadNew)); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("lead card to owner: %w", err)
		}
	}
	if firstErr == nil {
		log.Info("lead card sent", "urgent", ev.IsUrgent)
	}

	if n.crm != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			cctx, cancel := context.WithTimeout(context.Background(), n.crmTimeout)
			defer cancel()
			err := n.crm.DeliverLead(cctx, ev)
			if n.deliveries != nil {
				n.deliveries.ObserveDelivery(err)
			}
			if err != nil {
				log.Error("crm delivery failed", "error", err)
				return
			}
			log.Info("crm delivery success")
		}()
	}
	return firstErr
}

// Wait blocks until background CRM deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
