// Package metrics exposes validation counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

const namespace = "planwizard"

// Recorder counts validated buildings and rule outcomes. It owns its
// registry so several recorders can coexist in one process.
type Recorder struct {
	registry    *prometheus.Registry
	buildings   *prometheus.CounterVec
	rules       *prometheus.CounterVec
	diagnostics prometheus.Counter
	files       *prometheus.CounterVec
}

// NewRecorder creates a Recorder with Go runtime and process collectors
// registered alongside the validation counters.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		buildings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buildings_validated_total",
			Help:      "Buildings validated, by verdict.",
		}, []string{"verdict"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_outcomes_total",
			Help:      "Rule evaluations, by rule and status.",
		}, []string{"rule", "status"}),
		diagnostics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_diagnostics_total",
			Help:      "Input values the adapter repaired or dropped.",
		}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Extraction files processed, by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.buildings,
		r.rules,
		r.diagnostics,
		r.files,
	)
	return r
}

// ObserveReport counts one building verdict and each of its rule results.
func (r *Recorder) ObserveReport(rep model.ValidationReport) {
	r.buildings.WithLabelValues(string(rep.Verdict())).Inc()
	for _, rule := range rep.Rules {
		status := "passed"
		if !rule.Passed {
			status = "failed"
		}
		r.rules.WithLabelValues(rule.Key(), status).Inc()
	}
}

// ObserveReports calls ObserveReport for every report.
func (r *Recorder) ObserveReports(reps []model.ValidationReport) {
	for _, rep := range reps {
		r.ObserveReport(rep)
	}
}

// ObserveDiagnostics adds n adapter diagnostics.
func (r *Recorder) ObserveDiagnostics(n int) {
	if n > 0 {
		r.diagnostics.Add(float64(n))
	}
}

// ObserveFile counts a processed file; a non-nil err counts as "error".
func (r *Recorder) ObserveFile(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.files.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the text exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
