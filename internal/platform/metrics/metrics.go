package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide operator channel. It implements the
// authorization service's DecisionMetrics port and carries counters for the
// OTP flow and document releases.
type Metrics struct {
	registry *prometheus.Registry

	authzDecisions    *prometheus.CounterVec
	hierarchyFailures prometheus.Counter
	otpTransitions    *prometheus.CounterVec
	documentsReleased *prometheus.CounterVec
	renderFailures    prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		authzDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rmas_authz_decisions_total",
			Help: "Cascade authorization decisions by outcome.",
		}, []string{"outcome"}),
		hierarchyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "rmas_authz_hierarchy_lookup_failures_total",
			Help: "Location hierarchy lookups that failed and forced a deny.",
		}),
		otpTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rmas_download_otp_transitions_total",
			Help: "Download OTP state transitions by kind.",
		}, []string{"transition"}),
		documentsReleased: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rmas_documents_released_total",
			Help: "PDF artifacts released through the gated download flow.",
		}, []string{"kind"}),
		renderFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "rmas_document_render_failures_total",
			Help: "Document render calls that exhausted their attempts.",
		}),
	}
}

func (m *Metrics) Decision(allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.authzDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) HierarchyLookupFailed() {
	m.hierarchyFailures.Inc()
}

func (m *Metrics) OtpTransition(transition string) {
	m.otpTransitions.WithLabelValues(transition).Inc()
}

func (m *Metrics) DocumentReleased(kind string) {
	m.documentsReleased.WithLabelValues(kind).Inc()
}

func (m *Metrics) RenderFailed() {
	m.renderFailures.Inc()
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
