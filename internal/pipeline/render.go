package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/model"
)

// Renderer writes the artifacts of a run
type Renderer struct {
	logger *zap.Logger
	stdout io.Writer
}

// NewRenderer creates a renderer printing summaries to stdout
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger, stdout: os.Stdout}
}

// Render writes the graph to out and every side output cfg names
func (r *Renderer) Render(res *Result, out string, cfg model.OutputConfig) error {
	if err := r.WriteGraph(res.Graph, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	r.logger.Info("wrote graph", zap.String("path", out), zap.Int("triples", res.Graph.Len()))

	switch {
	case res.Documents == nil:
	case cfg.Documents == "":
		if res.Documents.Len() > 0 {
			r.logger.Warn("document resources not written, no documents output configured",
				zap.Int("triples", res.Documents.Len()))
		}
	default:
		if err := r.WriteGraph(res.Documents, cfg.Documents); err != nil {
			return fmt.Errorf("write documents: %w", err)
		}
		r.logger.Info("wrote documents", zap.String("path", cfg.Documents), zap.Int("triples", res.Documents.Len()))
	}

	if cfg.Diagnostics != "" && res.Diagnostics != nil {
		if err := res.Diagnostics.WriteFile(cfg.Diagnostics); err != nil {
			return err
		}
		r.logger.Info("wrote diagnostics", zap.String("path", cfg.Diagnostics), zap.Int("entries", res.Diagnostics.Len()))
	}

	if cfg.Report != "" {
		if err := r.WriteJSON(res.Report, cfg.Report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if cfg.MetricsFile != "" && res.Counters != nil {
		if err := res.Counters.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if cfg.Verbose {
		return r.RenderSummary(r.stdout, res.Report)
	}
	return nil
}

// WriteGraph writes g as sorted N-Triples, creating parent directories
func (r *Renderer) WriteGraph(g *graph.Graph, path string) error {
	f, err := create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := graph.WriteNTriples(w, g); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteJSON writes the report as indented JSON
func (r *Renderer) WriteJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	f, err := create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderSummary prints the pass counters and signals of a report
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	_, _ = fmt.Fprintf(tw, "Task:\t%s\n", report.Task)
	_, _ = fmt.Fprintf(tw, "Run:\t%s\n", report.RunID)
	_, _ = fmt.Fprintf(tw, "Links:\t%d\n", report.Links)
	if report.Documents > 0 {
		_, _ = fmt.Fprintf(tw, "Documents:\t%d\n", report.Documents)
	}
	_, _ = fmt.Fprintf(tw, "Diagnostics:\t%d\n", report.Diagnostics)
	_, _ = fmt.Fprintf(tw, "Index:\t%d (%s)\n", report.Assessment.Index, report.Assessment.Confidence)

	if len(report.Passes) > 0 {
		_, _ = fmt.Fprintln(tw)
		_, _ = fmt.Fprintln(tw, "PASS\tACCEPTED\tREJECTED\tUNRESOLVED\tAMBIGUOUS")
		for _, p := range report.Passes {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", p.Name, p.Accepted, p.Rejected, p.Unresolved, p.Ambiguous)
		}
	}

	if m := report.Matcher; m != nil {
		_, _ = fmt.Fprintln(tw)
		_, _ = fmt.Fprintf(tw, "Sources:\t%d (%d excluded)\n", m.Sources, m.Excluded)
		_, _ = fmt.Fprintf(tw, "Targets:\t%d\n", m.Targets)
		_, _ = fmt.Fprintf(tw, "Candidate pairs:\t%d\n", m.CandidatePairs)
		_, _ = fmt.Fprintf(tw, "Training pairs:\t%d (%d dropped)\n", m.TrainingPairs, m.DroppedTraining)
	}

	if len(report.Assessment.Signals) > 0 {
		_, _ = fmt.Fprintln(tw)
		for _, s := range report.Assessment.Signals {
			_, _ = fmt.Fprintf(tw, "[%s]\t%s\t%s\n", s.Severity, s.Type, s.Description)
		}
	}

	return tw.Flush()
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
