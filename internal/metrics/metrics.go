// Package metrics exposes lead and mail counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts submissions on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	leadsSaved *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	mail       *prometheus.CounterVec
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		leadsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Name:      "leads_saved_total",
			Help:      "Leads persisted to both sinks, by endpoint.",
		}, []string{"endpoint"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Name:      "submissions_rejected_total",
			Help:      "Submissions refused before persistence, by endpoint and reason.",
		}, []string{"endpoint", "reason"}),
		mail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Name:      "mail_dispatch_total",
			Help:      "Notification dispatch attempts, by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.leadsSaved,
		r.rejected,
		r.mail,
	)
	return r
}

// LeadSaved counts one persisted lead.
func (r *Recorder) LeadSaved(endpoint string) {
	r.leadsSaved.WithLabelValues(endpoint).Inc()
}

// Rejected counts one refused submission.
func (r *Recorder) Rejected(endpoint, reason string) {
	r.rejected.WithLabelValues(endpoint, reason).Inc()
}

// MailDispatched counts one dispatch outcome.
func (r *Recorder) MailDispatched(sent bool) {
	outcome := "failed"
	if sent {
		outcome = "sent"
	}
	r.mail.WithLabelValues(outcome).Inc()
}

// Handler serves the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
