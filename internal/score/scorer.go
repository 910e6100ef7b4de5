// Package score grades a finished run and raises signals for passes that
// deserve a human look.
package score

import (
	"fmt"

	"github.com/ppiankov/powlink/internal/model"
)

// Scorer calculates the resolution index and generates signals
type Scorer struct {
	lowResolution float64
	highRejection float64
}

// NewScorer creates a scorer with the linking thresholds of cfg. Zero
// ratios fall back to 0.5 and 0.25.
func NewScorer(cfg model.LinkingConfig) *Scorer {
	s := &Scorer{lowResolution: cfg.LowResolutionRatio, highRejection: cfg.HighRejectionRatio}
	if s.lowResolution <= 0 {
		s.lowResolution = 0.5
	}
	if s.highRejection <= 0 {
		s.highRejection = 0.25
	}
	return s
}

// Calculate grades the report. Signals are ordered by pass, then by kind.
func (s *Scorer) Calculate(report *model.Report) model.Assessment {
	task := model.Task(report.Task)

	var signals []model.Signal
	accepted, total := 0, 0
	for _, pass := range report.Passes {
		accepted += pass.Accepted
		total += pass.Total()

		if task.References() {
			if sig, ok := s.unidentified(pass); ok {
				signals = append(signals, sig)
			}
		} else if sig, ok := s.resolution(pass); ok {
			signals = append(signals, sig)
		}
		if sig, ok := s.rejection(pass); ok {
			signals = append(signals, sig)
		}
		if sig, ok := s.ambiguity(pass); ok {
			signals = append(signals, sig)
		}
	}

	if sig, ok := s.pruned(report.Matcher); ok {
		signals = append(signals, sig)
	}

	index := 0
	if total > 0 {
		index = accepted * 100 / total
	}

	return model.Assessment{
		Index:      index,
		Confidence: s.determineConfidence(index, total, signals),
		Signals:    signals,
	}
}

// resolution flags a pass where most values stayed unlinked
func (s *Scorer) resolution(pass model.PassStats) (model.Signal, bool) {
	total := pass.Total()
	if total == 0 {
		return model.Signal{}, false
	}

	ratio := float64(pass.Unresolved) / float64(total)
	if ratio < s.lowResolution {
		return model.Signal{}, false
	}

	severity := model.SeverityWarning
	if pass.Accepted == 0 {
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalLowResolution,
		Severity:    severity,
		Description: fmt.Sprintf("%s: %d/%d values without a candidate", pass.Name, pass.Unresolved, total),
		Data: map[string]interface{}{
			"pass":       pass.Name,
			"unresolved": pass.Unresolved,
			"total":      total,
			"ratio":      ratio,
			"threshold":  s.lowResolution,
			"formula":    "unresolved / total",
		},
	}, true
}

// rejection flags a pass whose candidates were mostly refused
func (s *Scorer) rejection(pass model.PassStats) (model.Signal, bool) {
	found := pass.Accepted + pass.Rejected
	if found == 0 || pass.Rejected == 0 {
		return model.Signal{}, false
	}

	ratio := float64(pass.Rejected) / float64(found)
	if ratio < s.highRejection {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalHighRejection,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%s: %d/%d candidates refused", pass.Name, pass.Rejected, found),
		Data: map[string]interface{}{
			"pass":      pass.Name,
			"rejected":  pass.Rejected,
			"accepted":  pass.Accepted,
			"ratio":     ratio,
			"threshold": s.highRejection,
			"formula":   "rejected / (accepted + rejected)",
		},
	}, true
}

func (s *Scorer) ambiguity(pass model.PassStats) (model.Signal, bool) {
	if pass.Ambiguous == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalAmbiguousMatch,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%s: %d near-tie matches left for review", pass.Name, pass.Ambiguous),
		Data: map[string]interface{}{
			"pass":      pass.Name,
			"ambiguous": pass.Ambiguous,
		},
	}, true
}

// unidentified reports document references that named no known target
func (s *Scorer) unidentified(pass model.PassStats) (model.Signal, bool) {
	if pass.Unresolved == 0 {
		return model.Signal{}, false
	}

	severity := model.SeverityInfo
	if pass.Accepted == 0 {
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalUnidentifiedRef,
		Severity:    severity,
		Description: fmt.Sprintf("%s: %d references without a target", pass.Name, pass.Unresolved),
		Data: map[string]interface{}{
			"pass":         pass.Name,
			"unidentified": pass.Unresolved,
			"linked":       pass.Accepted,
		},
	}, true
}

// pruned reports training links that referred to records outside the
// snapshot
func (s *Scorer) pruned(stats *model.MatchStats) (model.Signal, bool) {
	if stats == nil || stats.DroppedTraining == 0 {
		return model.Signal{}, false
	}

	severity := model.SeverityInfo
	if stats.DroppedTraining > stats.TrainingPairs {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalPrunedTraining,
		Severity:    severity,
		Description: fmt.Sprintf("%d training links dropped, %d used", stats.DroppedTraining, stats.TrainingPairs),
		Data: map[string]interface{}{
			"dropped": stats.DroppedTraining,
			"used":    stats.TrainingPairs,
		},
	}, true
}

// determineConfidence determines the confidence level based on the index
func (s *Scorer) determineConfidence(index, total int, signals []model.Signal) string {
	if total == 0 {
		return "low"
	}

	for _, sig := range signals {
		if sig.Severity == model.SeverityCritical {
			return "low"
		}
	}

	if index >= 80 {
		return "high"
	} else if index >= 50 {
		return "medium"
	} else {
		return "low"
	}
}
