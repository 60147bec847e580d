package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detailing-intake-bot/internal/domain"
	"detailing-intake-bot/internal/usecase"
)

var t0 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestLeadRepo_UpdateIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := NewLeadRepo()

	lead, err := repo.CreateLead(ctx, 1, t0)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateLead(ctx, lead.ID, domain.LeadFields{Service: domain.Ptr("Полировка"), Zone: domain.Ptr("фары")}, t0))
	require.NoError(t, repo.UpdateLead(ctx, lead.ID, domain.LeadFields{Phone: domain.Ptr("+79990000000")}, t0.Add(time.Minute)))

	got, err := repo.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Полировка", *got.Service)
	assert.Equal(t, "фары", *got.Zone)
	assert.Equal(t, "+79990000000", *got.Phone)

	// copies only
	*got.Service = "изменено"
	again, err := repo.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Полировка", *again.Service)

	assert.ErrorIs(t, repo.UpdateLead(ctx, 42, domain.LeadFields{}, t0), domain.ErrLeadNotFound)
	_, err = repo.GetLead(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrLeadNotFound)
}

func TestLeadRepo_ActiveAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewLeadRepo()

	first, err := repo.CreateLead(ctx, 1, t0)
	require.NoError(t, err)
	second, err := repo.CreateLead(ctx, 1, t0.Add(40*time.Minute))
	require.NoError(t, err)

	active, err := repo.FindActiveLead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	require.NoError(t, repo.SetStatus(ctx, second.ID, domain.LeadRejected, t0.Add(time.Hour)))
	active, err = repo.FindActiveLead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	latest, err := repo.LatestLead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	recent, err := repo.RecentLeadCreations(ctx, 1, t0.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{t0.Add(40 * time.Minute)}, recent)

	n, err := repo.CountByStatus(ctx, domain.LeadNew)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	none, err := repo.FindActiveLead(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo()

	require.NoError(t, repo.UpsertUser(ctx, domain.User{ChatID: 5, FirstName: "Анна"}))
	require.NoError(t, repo.UpsertUser(ctx, domain.User{ChatID: 5, Username: "anna"}))
	require.NoError(t, repo.UpsertUser(ctx, domain.User{ChatID: 2}))

	u, err := repo.FindUser(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Анна", u.FirstName)
	assert.Equal(t, "anna", u.Username)

	assert.ErrorIs(t, repo.SetAdminDialog(ctx, 9, nil), domain.ErrUserNotFound)
	require.NoError(t, repo.SetAdminDialog(ctx, 5, domain.Ptr(int64(1))))
	u, err = repo.FindUser(ctx, 5)
	require.NoError(t, err)
	assert.True(t, u.InAdminDialog)

	ids, err := repo.ListChatIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, ids)
}

func TestMessageRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepo()
	for _, txt := range []string{"a", "b", "c"} {
		require.NoError(t, repo.AppendMessage(ctx, domain.Message{UserID: 1, LeadID: domain.Ptr(int64(3)), Text: txt}))
	}
	require.NoError(t, repo.AppendMessage(ctx, domain.Message{UserID: 1, Text: "без заявки"}))

	got, err := repo.ListByLead(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Text)
	assert.Equal(t, "c", got[1].Text)
}

func TestFunnelAndBroadcastRepos(t *testing.T) {
	ctx := context.Background()
	f := NewFunnelRepo()
	require.NoError(t, f.Hit(ctx, usecase.StepCollectingPhone, 1))
	require.NoError(t, f.Hit(ctx, usecase.StepCollectingPhone, 1))
	counts, err := f.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[usecase.StepCollectingPhone])

	b := NewBroadcastStatRepo()
	require.NoError(t, b.Save(ctx, usecase.BroadcastStat{Total: 1}))
	require.NoError(t, b.Save(ctx, usecase.BroadcastStat{Total: 2}))
	got, err := b.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Total)
	assert.False(t, got[0].CreatedAt.IsZero())
}
