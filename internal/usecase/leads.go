package usecase

import (
	"context"
	"fmt"
	"time"

	"detailing-intake-bot/internal/domain"
)

const (
	DefaultAntiSpamWindow = time.Hour
	DefaultAntiSpamLimit  = 2
)

// SpamVerdict is the anti-spam answer for a new lead. Message is set when
// creation is refused and asks the user to confirm.
type SpamVerdict struct {
	Allowed bool
	Message string
}

// OpenResult is what Open did: Lead is nil only when Blocked.
type OpenResult struct {
	Lead    *domain.Lead
	Created bool
	Blocked bool
	Message string
}

// LeadAggregator owns the lifecycle of a lead while the client is talking to
// the bot. Closing leads is left to the admin side.
type LeadAggregator struct {
	leads  domain.LeadRepository
	now    func() time.Time
	window time.Duration
	limit  int
}

type AggregatorOption func(*LeadAggregator)

func WithClock(now func() time.Time) AggregatorOption {
	return func(a *LeadAggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithAntiSpam overrides the trailing window and the number of creations in it
// that blocks the next one. Non-positive values keep the defaults.
func WithAntiSpam(window time.Duration, limit int) AggregatorOption {
	return func(a *LeadAggregator) {
		if window > 0 {
			a.window = window
		}
		if limit > 0 {
			a.limit = limit
		}
	}
}

func NewLeadAggregator(leads domain.LeadRepository, opts ...AggregatorOption) *LeadAggregator {
	a := &LeadAggregator{
		leads:  leads,
		now:    time.Now,
		window: DefaultAntiSpamWindow,
		limit:  DefaultAntiSpamLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetOrCreateActiveLead returns the newest new/in_work lead of the user,
// creating one when there is none. It does not consult anti-spam.
func (a *LeadAggregator) GetOrCreateActiveLead(ctx context.Context, userID int64) (*domain.Lead, error) {
	lead, _, err := a.getOrCreate(ctx, userID)
	return lead, err
}

func (a *LeadAggregator) getOrCreate(ctx context.Context, userID int64) (*domain.Lead, bool, error) {
	lead, err := a.leads.FindActiveLead(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("find active lead: %w", err)
	}
	if lead != nil {
		return lead, false, nil
	}
	lead, err = a.leads.CreateLead(ctx, userID, a.now())
	if err != nil {
		return nil, false, fmt.Errorf("create lead: %w", err)
	}
	return lead, true, nil
}

// Open is the entry into a collection flow: reuse the active lead, otherwise
// create one unless anti-spam refuses and the user has not confirmed yet.
func (a *LeadAggregator) Open(ctx context.Context, userID int64, confirmed bool) (OpenResult, error) {
	lead, err := a.leads.FindActiveLead(ctx, userID)
	if err != nil {
		return OpenResult{}, fmt.Errorf("find active lead: %w", err)
	}
	if lead != nil {
		return OpenResult{Lead: lead}, nil
	}
	if !confirmed {
		v, err := a.CheckAntiSpam(ctx, userID)
		if err != nil {
			return OpenResult{}, err
		}
		if !v.Allowed {
			return OpenResult{Blocked: true, Message: v.Message}, nil
		}
	}
	lead, created, err := a.getOrCreate(ctx, userID)
	if err != nil {
		return OpenResult{}, err
	}
	return OpenResult{Lead: lead, Created: created}, nil
}

// CommitFields writes the present fields of f. Absent fields never clear
// stored values.
func (a *LeadAggregator) CommitFields(ctx context.Context, leadID int64, f domain.LeadFields) error {
	if f.IsEmpty() {
		return nil
	}
	if err := a.leads.UpdateLead(ctx, leadID, f, a.now()); err != nil {
		return fmt.Errorf("commit lead %d: %w", leadID, err)
	}
	return nil
}

func (a *LeadAggregator) CheckAntiSpam(ctx context.Context, userID int64) (SpamVerdict, error) {
	now := a.now()
	created, err := a.leads.RecentLeadCreations(ctx, userID, now.Add(-a.window))
	if err != nil {
		return SpamVerdict{}, fmt.Errorf("recent lead creations: %w", err)
	}
	if len(created) < a.limit {
		return SpamVerdict{Allowed: true}, nil
	}

	car := "ваше авто"
	last, err := a.leads.LatestLead(ctx, userID)
	if err != nil {
		return SpamVerdict{}, fmt.Errorf("latest lead: %w", err)
	}
	if last != nil && last.VehicleBrand != nil {
		car = last.VehicleLine()
	}
	return SpamVerdict{Message: fmt.Sprintf("Вы уже создали заявку на %s. Хотите составить ещё одну?", car)}, nil
}

func (a *LeadAggregator) MarkUrgent(ctx context.Context, leadID int64) error {
	return a.CommitFields(ctx, leadID, domain.LeadFields{IsUrgent: domain.Ptr(true)})
}

func (a *LeadAggregator) MarkRedFlag(ctx context.Context, leadID int64) error {
	return a.CommitFields(ctx, leadID, domain.LeadFields{IsRedFlag: domain.Ptr(true)})
}

// Submit marks the lead as handed off and returns its stored state.
func (a *LeadAggregator) Submit(ctx context.Context, leadID int64) (*domain.Lead, error) {
	if err := a.leads.MarkSubmitted(ctx, leadID, a.now()); err != nil {
		return nil, fmt.Errorf("submit lead %d: %w", leadID, err)
	}
	lead, err := a.leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("get lead %d: %w", leadID, err)
	}
	return lead, nil
}

func (a *LeadAggregator) Get(ctx context.Context, leadID int64) (*domain.Lead, error) {
	lead, err := a.leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("get lead %d: %w", leadID, err)
	}
	return lead, nil
}

func (a *LeadAggregator) Now() time.Time { return a.now() }
