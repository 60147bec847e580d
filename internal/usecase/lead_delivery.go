package usecase

import "context"

// LeadDelivery описывает внешний канал доставки заявки (CRM, вебхуки и т.п.)
type LeadDelivery interface {
	DeliverLead(ctx context.Context, ev HandoffEvent) error
}

// Recorder receives conversation events for metrics.
type Recorder interface {
	Turn(flow Flow, step Step)
	LeadOpened(created bool)
	LeadSubmitted(service string, urgent bool)
	SpamBlocked()
	Relayed(fromAdmin bool)
	TurnFailed()
}

type nopRecorder struct{}

func (nopRecorder) Turn(Flow, Step)            {}
func (nopRecorder) LeadOpened(bool)            {}
func (nopRecorder) LeadSubmitted(string, bool) {}
func (nopRecorder) SpamBlocked()               {}
func (nopRecorder) Relayed(bool)               {}
func (nopRecorder) TurnFailed()                {}
