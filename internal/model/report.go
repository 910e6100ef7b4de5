package model

import "time"

// Report summarizes one linking run. It is written next to the link graph
// so every decision of the run can be audited.
type Report struct {
	RunID      string    `json:"run_id"`
	Task       string    `json:"task"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Links       int         `json:"links"`               // Accepted links written
	Documents   int         `json:"documents,omitempty"` // Document resource triples written
	Passes      []PassStats `json:"passes"`              // Per-pass counters
	Diagnostics int         `json:"diagnostics"`         // Row-level entries in the diagnostics file
	Assessment  Assessment  `json:"assessment"`          // Resolution index and signals
	Matcher     *MatchStats `json:"matcher,omitempty"`   // Only for the persons task
}

// PassStats counts value outcomes of a single pass
type PassStats struct {
	Name       string `json:"name"`
	Accepted   int    `json:"accepted"`
	Rejected   int    `json:"rejected"`
	Unresolved int    `json:"unresolved"`
	Ambiguous  int    `json:"ambiguous"`
}

// Count records one outcome
func (p *PassStats) Count(o Outcome) {
	switch o {
	case OutcomeAccepted:
		p.Accepted++
	case OutcomeRejected:
		p.Rejected++
	case OutcomeUnresolved:
		p.Unresolved++
	case OutcomeAmbiguous:
		p.Ambiguous++
	}
}

// Total returns the number of values seen
func (p PassStats) Total() int {
	return p.Accepted + p.Rejected + p.Unresolved + p.Ambiguous
}

// MatchStats describes the probabilistic matcher's training and scoring
type MatchStats struct {
	Sources          int       `json:"sources"`           // Person records projected
	Excluded         int       `json:"excluded"`          // Redacted records skipped
	Targets          int       `json:"targets"`           // Canonical persons projected
	CandidatePairs   int       `json:"candidate_pairs"`   // Pairs surviving blocking
	TrainingPairs    int       `json:"training_pairs"`    // Positive examples used
	DroppedTraining  int       `json:"dropped_training"`  // Training pairs not in the snapshot
	NegativeExamples int       `json:"negative_examples"` // Sampled non-matches
	Weights          []float64 `json:"weights"`           // Fitted model weights
	Threshold        float64   `json:"threshold"`
}

// Assessment grades a run by the share of values that were linked
type Assessment struct {
	Index      int      `json:"index"` // 0-100
	Confidence string   `json:"confidence"`
	Signals    []Signal `json:"signals,omitempty"`
}

// Signal is a run-level observation with the data that triggered it
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the signal
type SignalType string

const (
	SignalLowResolution   SignalType = "low_resolution"   // Most values of a pass stayed unlinked
	SignalHighRejection   SignalType = "high_rejection"   // Validators refused many candidates
	SignalAmbiguousMatch  SignalType = "ambiguous_match"  // Near-tie person matches flagged
	SignalPrunedTraining  SignalType = "pruned_training"  // Training links referenced missing records
	SignalUnidentifiedRef SignalType = "unidentified_ref" // Document references without a target
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
