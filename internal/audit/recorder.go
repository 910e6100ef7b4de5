package audit

import (
	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/logging"
	"github.com/ppiankov/powlink/internal/model"
)

// Recorder writes one decision to the diagnostics, the counters and the
// pass statistics at once. Linkers hold one per pass.
type Recorder struct {
	pass        string
	diagnostics *Diagnostics
	counters    *Counters
	logger      *zap.Logger
	stats       model.PassStats
}

// NewRecorder creates a recorder for pass. Any argument may be nil.
func NewRecorder(pass string, diagnostics *Diagnostics, counters *Counters, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		pass:        pass,
		diagnostics: diagnostics,
		counters:    counters,
		logger:      logger,
		stats:       model.PassStats{Name: pass},
	}
}

// Accept counts an accepted value
func (r *Recorder) Accept() {
	r.stats.Count(model.OutcomeAccepted)
	r.counters.Outcome(r.pass, model.OutcomeAccepted)
}

// Reject counts a non-accepted value and adds a diagnostics entry for it
func (r *Recorder) Reject(o model.Outcome, record, field, reason, value string) {
	r.stats.Count(o)
	r.counters.Outcome(r.pass, o)
	r.Diagnose(Entry{Record: record, Field: field, Reason: reason, Value: value})
	r.logger.Debug("value not linked",
		zap.String(logging.FieldRecord, record),
		zap.String(logging.FieldField, field),
		zap.String(logging.FieldValue, value),
		zap.String("outcome", string(o)),
		zap.String("reason", reason))
}

// Diagnose adds an entry without counting an outcome
func (r *Recorder) Diagnose(e Entry) {
	if e.Pass == "" {
		e.Pass = r.pass
	}
	if r.diagnostics != nil {
		r.diagnostics.Add(e)
	}
	r.counters.Diagnostic(r.pass)
}

// Lookup counts a lookup result
func (r *Recorder) Lookup(result string) {
	r.counters.Lookup(r.pass, result)
}

// Stats returns the pass statistics so far
func (r *Recorder) Stats() model.PassStats {
	return r.stats
}
