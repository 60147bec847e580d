package macrocrm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detailing-intake-bot/internal/domain"
	"detailing-intake-bot/internal/usecase"
)

func handoff() usecase.HandoffEvent {
	return usecase.HandoffEvent{
		ID:          uuid.MustParse("6f1c2b9e-4a0d-4c1e-9d8f-0a1b2c3d4e5f"),
		LeadID:      12,
		UserID:      100,
		DisplayName: "Иван",
		Fields: domain.LeadFields{
			Service:       domain.Ptr("ppf"),
			Variant:       domain.Ptr("Полная оклейка"),
			VehicleBrand:  domain.Ptr("BMW"),
			VehicleModel:  domain.Ptr("X5"),
			VehicleYear:   domain.Ptr(2021),
			ScheduledWhen: domain.Ptr("завтра после 18"),
			Phone:         domain.Ptr("+79991234567"),
			Goal:          domain.Ptr("защита от сколов"),
		},
		IsUrgent: true,
	}
}

func TestClient_DeliverLead(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("studio", "secret", WithBaseURL(srv.URL+"/"), WithAction("lead"))
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, c.DeliverLead(context.Background(), handoff()))
	require.NotNil(t, got)
	assert.Equal(t, "/estate/request/", got.URL.Path)
	assert.Equal(t, "studio", got.PostForm.Get("domain"))
	assert.Equal(t, "1700000000", got.PostForm.Get("time"))
	assert.Equal(t, md5Hex("studio1700000000secret"), got.PostForm.Get("token"))
	assert.Equal(t, "lead", got.PostForm.Get("action"))
	assert.Equal(t, "+79991234567", got.PostForm.Get("phone"))
	assert.Equal(t, "Иван", got.PostForm.Get("name"))

	msg := got.PostForm.Get("message")
	assert.Contains(t, msg, "Заявка из Telegram (срочно)")
	assert.Contains(t, msg, "Услуга: "+usecase.ServiceName("ppf"))
	assert.Contains(t, msg, "Авто: BMW X5 2021")
	assert.Contains(t, msg, "Когда: завтра после 18")
	assert.Contains(t, msg, "Комментарий: защита от сколов")
	assert.Contains(t, msg, "ID: 6f1c2b9e-4a0d-4c1e-9d8f-0a1b2c3d4e5f")
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad token", http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	err := NewClient("studio", "secret", WithBaseURL(srv.URL)).DeliverLead(ctx, handoff())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macrocrm: non-2xx: 403")

	err = NewClient("", "").DeliverLead(ctx, handoff())
	assert.EqualError(t, err, "macrocrm: domain/app_secret are not set")

	ev := handoff()
	ev.Fields.Phone = nil
	err = NewClient("studio", "secret", WithBaseURL(srv.URL)).DeliverLead(ctx, ev)
	assert.EqualError(t, err, "macrocrm: lead 12 has no phone")

	var nilClient *Client
	assert.Error(t, nilClient.DeliverLead(ctx, ev))
}

func TestMessage_SkippedVehicle(t *testing.T) {
	ev := handoff()
	ev.IsUrgent = false
	ev.Fields.VehicleBrand, ev.Fields.VehicleModel, ev.Fields.VehicleYear = nil, nil, nil
	ev.Fields.VehicleSkipped = domain.Ptr(true)
	ev.Fields.Goal = nil
	ev.Fields.Comment = domain.Ptr(usecase.WashExtrasNone)

	msg := Message(ev)
	assert.Contains(t, msg, "Авто: не указано")
	assert.NotContains(t, msg, "Комментарий")
	assert.NotContains(t, msg, "срочно")
}
