package audit

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/powlink/internal/model"
)

// Counters tracks pass outcomes on a private registry. A nil *Counters is
// valid and counts nothing.
type Counters struct {
	registry    *prometheus.Registry
	outcomes    *prometheus.CounterVec
	lookups     *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
}

// NewCounters registers the powlink counters for one run
func NewCounters(runID, task string) *Counters {
	labels := prometheus.Labels{"run_id": runID, "task": task}

	c := &Counters{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "powlink_values_total",
			Help:        "Values seen by a linking pass, by outcome.",
			ConstLabels: labels,
		}, []string{"pass", "outcome"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "powlink_lookups_total",
			Help:        "Lookup calls, by pass and result.",
			ConstLabels: labels,
		}, []string{"pass", "result"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "powlink_diagnostics_total",
			Help:        "Diagnostics entries, by pass.",
			ConstLabels: labels,
		}, []string{"pass"}),
	}
	c.registry.MustRegister(c.outcomes, c.lookups, c.diagnostics)
	return c
}

// Outcome counts one value outcome
func (c *Counters) Outcome(pass string, o model.Outcome) {
	if c == nil {
		return
	}
	c.outcomes.WithLabelValues(pass, string(o)).Inc()
}

// Lookup counts one lookup call; result is hit, miss or error
func (c *Counters) Lookup(pass, result string) {
	if c == nil {
		return
	}
	c.lookups.WithLabelValues(pass, result).Inc()
}

// Diagnostic counts one diagnostics entry
func (c *Counters) Diagnostic(pass string) {
	if c == nil {
		return
	}
	c.diagnostics.WithLabelValues(pass).Inc()
}

// Registry exposes the registry for gathering
func (c *Counters) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the counters in the node exporter textfile format
func (c *Counters) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}
