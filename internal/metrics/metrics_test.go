package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detailing-intake-bot/internal/usecase"
)

func TestBotMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Turn(usecase.FlowPPF, usecase.StepCollectingVehicle)
	m.Turn(usecase.FlowPPF, usecase.StepCollectingVehicle)
	m.TurnFailed()
	m.LeadOpened(true)
	m.LeadSubmitted("", true)
	m.SpamBlocked()
	m.Relayed(true)
	m.ObserveSend(nil)
	m.ObserveSend(errors.New("403"))
	m.ObserveDelivery(errors.New("timeout"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.turns.WithLabelValues(string(usecase.FlowPPF), string(usecase.StepCollectingVehicle))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.turnErrors))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.leadsOpened.WithLabelValues("true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.submitted.WithLabelValues("unknown", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.spamBlocked))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.relayed.WithLabelValues("admin_to_client")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sends.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deliveries.WithLabelValues("error")))
}

func TestBotMetrics_NilSafe(t *testing.T) {
	var m *BotMetrics
	assert.NotPanics(t, func() {
		m.Turn(usecase.FlowWash, usecase.StepSubmit)
		m.TurnFailed()
		m.LeadOpened(false)
		m.LeadSubmitted("wash", false)
		m.SpamBlocked()
		m.Relayed(false)
		m.ObserveSend(nil)
		m.ObserveDelivery(nil)
	})
}

func TestHandler_Exposes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SpamBlocked()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "intake_leads_spam_blocked_total 1")
}
