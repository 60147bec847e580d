package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"detailing-intake-bot/internal/usecase"
)

// BotMetrics counts conversation and delivery events. It implements
// usecase.Recorder. A nil *BotMetrics is a valid no-op.
type BotMetrics struct {
	turns       *prometheus.CounterVec
	turnErrors  prometheus.Counter
	leadsOpened *prometheus.CounterVec
	submitted   *prometheus.CounterVec
	spamBlocked prometheus.Counter
	relayed     *prometheus.CounterVec
	sends       *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "dialog",
			Name:      "turns_total",
			Help:      "Client messages processed, by resulting flow and step",
		}, []string{"flow", "step"}),
		turnErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "dialog",
			Name:      "turn_errors_total",
			Help:      "Turns aborted by a storage failure",
		}),
		leadsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "leads",
			Name:      "opened_total",
			Help:      "Leads attached to a conversation",
		}, []string{"created"}),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "leads",
			Name:      "submitted_total",
			Help:      "Leads handed off to the studio",
		}, []string{"service", "urgent"}),
		spamBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "leads",
			Name:      "spam_blocked_total",
			Help:      "Lead creations held back by the anti-spam window",
		}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "admin",
			Name:      "relayed_total",
			Help:      "Messages relayed through an admin dialog",
		}, []string{"direction"}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "telegram",
			Name:      "sends_total",
			Help:      "Outbound Telegram API calls",
		}, []string{"status"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "crm",
			Name:      "deliveries_total",
			Help:      "CRM copies of submitted leads",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turns, m.turnErrors, m.leadsOpened, m.submitted, m.spamBlocked, m.relayed, m.sends, m.deliveries)
	return m
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *BotMetrics) Turn(flow usecase.Flow, step usecase.Step) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(string(flow), string(step)).Inc()
}

func (m *BotMetrics) TurnFailed() {
	if m == nil {
		return
	}
	m.turnErrors.Inc()
}

func (m *BotMetrics) LeadOpened(created bool) {
	if m == nil {
		return
	}
	m.leadsOpened.WithLabelValues(strconv.FormatBool(created)).Inc()
}

func (m *BotMetrics) LeadSubmitted(service string, urgent bool) {
	if m == nil {
		return
	}
	if service == "" {
		service = "unknown"
	}
	m.submitted.WithLabelValues(service, strconv.FormatBool(urgent)).Inc()
}

func (m *BotMetrics) SpamBlocked() {
	if m == nil {
		return
	}
	m.spamBlocked.Inc()
}

func (m *BotMetrics) Relayed(fromAdmin bool) {
	if m == nil {
		return
	}
	dir := "client_to_admin"
	if fromAdmin {
		dir = "admin_to_client"
	}
	m.relayed.WithLabelValues(dir).Inc()
}

func (m *BotMetrics) ObserveSend(err error) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(status(err)).Inc()
}

func (m *BotMetrics) ObserveDelivery(err error) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ usecase.Recorder = (*BotMetrics)(nil)
