package pipeline

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/convert"
	"github.com/ppiankov/powlink/internal/logging"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/normalize"
)

// Convert builds the record graph from the register CSV at in and writes it
// to out. schemaOut, when set, receives the property schema of mapping.
func (p *Pipeline) Convert(in, out, schemaOut string, mapping *convert.Mapping) (*Result, error) {
	now := p.now()
	ranges, err := p.rangeBounds()
	if err != nil {
		return nil, err
	}

	runID := audit.NewRunID()
	r := &run{
		diagnostics: audit.NewDiagnostics(),
		counters:    audit.NewCounters(runID, convert.Pass),
		logger:      p.logger.With(zap.String(logging.FieldRunID, runID), zap.String(logging.FieldTask, convert.Pass)),
	}
	rec := r.recorder(convert.Pass)

	f, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := convert.NewConverter(mapping, ranges, rec, r.logger).Convert(f)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", in, err)
	}

	report := &model.Report{
		RunID:       runID,
		Task:        convert.Pass,
		Input:       in,
		Output:      out,
		StartedAt:   now,
		Passes:      []model.PassStats{rec.Stats()},
		Diagnostics: r.diagnostics.Len(),
		FinishedAt:  p.now(),
	}
	report.Assessment = p.scorer.Calculate(report)

	res := &Result{
		Graph:       records,
		Diagnostics: r.diagnostics,
		Counters:    r.counters,
		Report:      report,
	}
	if err := p.renderer.Render(res, out, p.config.Output); err != nil {
		return nil, err
	}
	if schemaOut != "" {
		if err := p.renderer.WriteGraph(mapping.Schema(), schemaOut); err != nil {
			return nil, fmt.Errorf("write schema: %w", err)
		}
	}
	return res, nil
}

// rangeBounds reads the interval for dates embedded in free-text entries
func (p *Pipeline) rangeBounds() (normalize.Bounds, error) {
	now := p.now()
	bounds := normalize.DefaultRangeBounds(now)

	after, err := normalize.ParseBound(p.config.Dates.RangeAfter, bounds.After)
	if err != nil {
		return normalize.Bounds{}, err
	}
	before, err := normalize.ParseBound(p.config.Dates.RangeBefore, bounds.Before)
	if err != nil {
		return normalize.Bounds{}, err
	}
	return normalize.Bounds{After: after, Before: before}, nil
}
