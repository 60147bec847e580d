package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detailing-intake-bot/internal/domain"
)

var t0 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestLeadAggregator_AntiSpamWindow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLeads()
	clk := newClock(t0)
	agg := NewLeadAggregator(repo, WithClock(clk.Now))

	repo.seed(1, t0, domain.LeadCompleted, domain.LeadFields{})
	repo.seed(1, t0.Add(10*time.Minute), domain.LeadRejected, domain.LeadFields{
		VehicleBrand: domain.Ptr("Toyota"),
		VehicleModel: domain.Ptr("Camry"),
		VehicleYear:  domain.Ptr(2020),
	})

	clk.Set(t0.Add(30 * time.Minute))
	v, err := agg.CheckAntiSpam(ctx, 1)
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, "Вы уже создали заявку на Toyota Camry 2020. Хотите составить ещё одну?", v.Message)

	res, err := agg.Open(ctx, 1, false)
	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Nil(t, res.Lead)

	clk.Set(t0.Add(61 * time.Minute))
	v, err = agg.CheckAntiSpam(ctx, 1)
	require.NoError(t, err)
	assert.True(t, v.Allowed)
	assert.Empty(t, v.Message)
}

func TestLeadAggregator_AntiSpamPlaceholder(t *testing.T) {
	repo := newFakeLeads()
	agg := NewLeadAggregator(repo, WithClock(func() time.Time { return t0.Add(5 * time.Minute) }))
	repo.seed(1, t0, domain.LeadCompleted, domain.LeadFields{})
	repo.seed(1, t0.Add(time.Minute), domain.LeadCompleted, domain.LeadFields{})

	v, err := agg.CheckAntiSpam(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, v.Message, "ваше авто")
}

func TestLeadAggregator_ConfirmedOverridesAntiSpam(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLeads()
	agg := NewLeadAggregator(repo, WithClock(func() time.Time { return t0.Add(20 * time.Minute) }))
	repo.seed(1, t0, domain.LeadCompleted, domain.LeadFields{})
	repo.seed(1, t0.Add(time.Minute), domain.LeadCompleted, domain.LeadFields{})

	res, err := agg.Open(ctx, 1, true)
	require.NoError(t, err)
	require.NotNil(t, res.Lead)
	assert.True(t, res.Created)
	assert.Equal(t, domain.LeadNew, res.Lead.Status)
}

func TestLeadAggregator_ReusesActiveLead(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLeads()
	agg := NewLeadAggregator(repo, WithClock(func() time.Time { return t0 }))

	repo.seed(1, t0.Add(-3*time.Hour), domain.LeadCompleted, domain.LeadFields{})
	active := repo.seed(1, t0.Add(-2*time.Hour), domain.LeadInWork, domain.LeadFields{})

	lead, err := agg.GetOrCreateActiveLead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, active, lead.ID)

	// editing an existing active lead is never throttled
	repo.seed(1, t0.Add(-time.Minute), domain.LeadRejected, domain.LeadFields{})
	repo.seed(1, t0.Add(-2*time.Minute), domain.LeadRejected, domain.LeadFields{})
	res, err := agg.Open(ctx, 1, false)
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.False(t, res.Created)
	assert.Equal(t, active, res.Lead.ID)
}

func TestLeadAggregator_CommitIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLeads()
	agg := NewLeadAggregator(repo)

	lead, err := agg.GetOrCreateActiveLead(ctx, 5)
	require.NoError(t, err)

	require.NoError(t, agg.CommitFields(ctx, lead.ID, domain.LeadFields{Service: domain.Ptr("ppf"), Phone: domain.Ptr("+79990000000")}))
	require.NoError(t, agg.CommitFields(ctx, lead.ID, domain.LeadFields{VehicleBrand: domain.Ptr("Kia")}))
	require.NoError(t, agg.CommitFields(ctx, lead.ID, domain.LeadFields{}))
	require.NoError(t, agg.MarkUrgent(ctx, lead.ID))
	require.NoError(t, agg.MarkRedFlag(ctx, lead.ID))

	got, err := agg.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "ppf", *got.Service)
	assert.Equal(t, "+79990000000", *got.Phone)
	assert.Equal(t, "Kia", *got.VehicleBrand)
	assert.True(t, got.Urgent())
	assert.True(t, got.RedFlag())
}

func TestLeadAggregator_Submit(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLeads()
	agg := NewLeadAggregator(repo, WithClock(func() time.Time { return t0 }))

	lead, err := agg.GetOrCreateActiveLead(ctx, 1)
	require.NoError(t, err)
	got, err := agg.Submit(ctx, lead.ID)
	require.NoError(t, err)
	require.True(t, got.Submitted())
	assert.Equal(t, t0, *got.SubmittedAt)

	_, err = agg.Submit(ctx, 999)
	assert.True(t, errors.Is(err, domain.ErrLeadNotFound))
}

func TestLeadAggregator_CustomWindow(t *testing.T) {
	repo := newFakeLeads()
	agg := NewLeadAggregator(repo, WithAntiSpam(10*time.Minute, 1), WithClock(func() time.Time { return t0.Add(5 * time.Minute) }))
	repo.seed(1, t0, domain.LeadCompleted, domain.LeadFields{})

	v, err := agg.CheckAntiSpam(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, v.Allowed)
}
