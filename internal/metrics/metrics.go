package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"facestage/internal/fsm"
)

const namespace = "facestage"

// Metrics holds the kiosk collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ticks              prometheus.Counter
	tickDuration       prometheus.Histogram
	transitions        *prometheus.CounterVec
	rejections         *prometheus.CounterVec
	state              *prometheus.GaugeVec
	controllerFailures *prometheus.CounterVec
	renderFailures     prometheus.Counter
	assetRetries       *prometheus.CounterVec
	sessions           *prometheus.CounterVec
}

// New registers all collectors plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ticks_total",
			Help: "Ticks processed by the experience loop.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "tick_duration_seconds",
			Help:    "Wall time spent per tick.",
			Buckets: []float64{.0005, .001, .002, .004, .008, .016, .033, .066},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transitions_total",
			Help: "Accepted state transitions.",
		}, []string{"event", "from", "to"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rejected_events_total",
			Help: "Events rejected by the state machine.",
		}, []string{"event"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "state",
			Help: "1 for the current experience state.",
		}, []string{"state"}),
		controllerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "controller_failures_total",
			Help: "Controller updates that returned an error or panicked.",
		}, []string{"controller"}),
		renderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "render_failures_total",
			Help: "Ticks whose render call failed.",
		}),
		assetRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "asset_load_failures_total",
			Help: "Failed asset load attempts.",
		}, []string{"asset"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_total",
			Help: "Visitor sessions by milestone reached.",
		}, []string{"milestone"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ticks, m.tickDuration, m.transitions, m.rejections, m.state,
		m.controllerFailures, m.renderFailures, m.assetRetries, m.sessions,
	)
	return m
}

// Registry returns the backing registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveTick counts a tick and its duration.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}

// Transition records an accepted transition and moves the state gauge.
func (m *Metrics) Transition(tr fsm.Transition) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(tr.Event), string(tr.From), string(tr.To)).Inc()
	m.SetState(tr.To)
}

// SetState marks s as the only current state.
func (m *Metrics) SetState(s fsm.State) {
	if m == nil {
		return
	}
	for _, st := range fsm.ExperienceStates {
		v := 0.0
		if st == s {
			v = 1
		}
		m.state.WithLabelValues(string(st)).Set(v)
	}
}

// Rejected counts an event the machine refused.
func (m *Metrics) Rejected(ev fsm.Event) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(string(ev)).Inc()
}

// ControllerFailure counts an isolated controller failure.
func (m *Metrics) ControllerFailure(name string, _ error) {
	if m == nil {
		return
	}
	m.controllerFailures.WithLabelValues(name).Inc()
}

// RenderFailure counts a failed render.
func (m *Metrics) RenderFailure() {
	if m == nil {
		return
	}
	m.renderFailures.Inc()
}

// AssetAttemptFailed counts a failed load attempt for asset id.
func (m *Metrics) AssetAttemptFailed(id string, _ int, _ error) {
	if m == nil {
		return
	}
	m.assetRetries.WithLabelValues(id).Inc()
}

// SessionMilestone counts sessions reaching milestone (started, captured,
// completed, shared).
func (m *Metrics) SessionMilestone(milestone string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(milestone).Inc()
}
