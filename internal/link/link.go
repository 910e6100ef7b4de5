// Package link resolves literal fields of prisoner records against
// registries one value at a time and keeps the best candidate.
package link

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/logging"
	"github.com/ppiankov/powlink/internal/lookup"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/validate"
	"github.com/ppiankov/powlink/internal/vocab"
	"github.com/ppiankov/powlink/internal/worker"
)

// FieldTask describes one literal relation to resolve
type FieldTask struct {
	Name       string // Pass name for counters and diagnostics
	Source     string // Literal relation read from the records
	Target     string // Relation of the emitted links
	Preprocess func(string) string
	Lookup     lookup.Lookup
	Validator  validate.Validator // Optional, sees only the top candidate
	MinScore   float64            // Top candidates scoring lower count as no match
}

// Linker runs field tasks over a record graph
type Linker struct {
	diagnostics *audit.Diagnostics
	counters    *audit.Counters
	logger      *zap.Logger
	prefetch    int
}

// NewLinker creates a linker. Any argument may be nil.
func NewLinker(diagnostics *audit.Diagnostics, counters *audit.Counters, logger *zap.Logger) *Linker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{diagnostics: diagnostics, counters: counters, logger: logger}
}

// SetPrefetch makes every pass look up its distinct values on the given
// number of goroutines before the sequential pass. It only pays off when the
// task lookups are cached. Values below 2 turn prefetching off.
func (l *Linker) SetPrefetch(workers int) {
	l.prefetch = workers
}

func queryValue(task FieldTask, literal string) string {
	if task.Preprocess != nil {
		return strings.TrimSpace(task.Preprocess(literal))
	}
	return strings.TrimSpace(literal)
}

func (l *Linker) warm(ctx context.Context, records *graph.Graph, task FieldTask) {
	triples := records.WithPredicate(task.Source)
	values := make([]string, 0, len(triples))
	for _, t := range triples {
		values = append(values, queryValue(task, t.O.Value))
	}

	stats := worker.Warm(ctx, values, l.prefetch, func(ctx context.Context, v string) error {
		_, err := task.Lookup.Lookup(ctx, v)
		return err
	})
	l.logger.Debug("prefetched lookups",
		zap.String(logging.FieldTask, task.Name),
		zap.Int("values", stats.Values),
		zap.Int("failed", stats.Failed))
}

// LinkField resolves every (record, literal) pair of task.Source. Misses and
// rejections are recorded, never returned; the error is reserved for lookup
// infrastructure failures.
func (l *Linker) LinkField(ctx context.Context, records *graph.Graph, task FieldTask) (*model.LinkSet, model.PassStats, error) {
	if task.Lookup == nil {
		return nil, model.PassStats{}, fmt.Errorf("task %s has no lookup", task.Name)
	}

	rec := audit.NewRecorder(task.Name, l.diagnostics, l.counters, l.logger)
	links := model.NewLinkSet()
	field := vocab.LocalName(task.Source)

	if l.prefetch > 1 {
		l.warm(ctx, records, task)
	}

	for _, t := range records.WithPredicate(task.Source) {
		if err := ctx.Err(); err != nil {
			return nil, rec.Stats(), err
		}

		record, literal := t.S.Value, t.O.Value
		query := queryValue(task, literal)
		if query == "" {
			continue
		}

		candidates, err := task.Lookup.Lookup(ctx, query)
		if err != nil {
			rec.Lookup("error")
			return nil, rec.Stats(), fmt.Errorf("%s: lookup %q: %w", task.Name, query, err)
		}
		if len(candidates) == 0 {
			rec.Lookup("miss")
			rec.Reject(model.OutcomeUnresolved, record, field, "no candidate", literal)
			continue
		}
		rec.Lookup("hit")

		top := candidates[0]
		if task.MinScore > 0 && top.Score < task.MinScore {
			rec.Reject(model.OutcomeRejected, record, field,
				fmt.Sprintf("score %.2f below %.2f for %s", top.Score, task.MinScore, top.URI), literal)
			continue
		}

		target := top.URI
		if task.Validator != nil {
			uri, ok := task.Validator.Validate(candidates, literal, record)
			if !ok {
				rec.Reject(model.OutcomeRejected, record, field, "validation failed for "+top.URI, literal)
				continue
			}
			target = uri
		}

		link := model.Link{
			Record:   record,
			Relation: task.Target,
			Target:   target,
			Score:    top.Score,
			Literal:  literal,
			Source:   strings.Join(records.Sources(t), "; "),
		}
		if links.Add(link) {
			rec.Accept()
			l.logger.Debug("accepted link",
				zap.String(logging.FieldRecord, record),
				zap.String(logging.FieldField, field),
				zap.String(logging.FieldValue, literal),
				zap.String(logging.FieldTarget, target),
				zap.Float64(logging.FieldScore, top.Score))
		}
	}

	stats := rec.Stats()
	l.logger.Info("pass finished",
		zap.String(logging.FieldTask, task.Name),
		zap.Int("links", links.Len()),
		zap.Int("accepted", stats.Accepted),
		zap.Int("rejected", stats.Rejected),
		zap.Int("unresolved", stats.Unresolved))
	return links, stats, nil
}

// LinkFields runs tasks in order and merges their links
func (l *Linker) LinkFields(ctx context.Context, records *graph.Graph, tasks ...FieldTask) (*model.LinkSet, []model.PassStats, error) {
	all := model.NewLinkSet()
	stats := make([]model.PassStats, 0, len(tasks))
	for _, task := range tasks {
		links, s, err := l.LinkField(ctx, records, task)
		if err != nil {
			return nil, stats, err
		}
		all.Merge(links)
		stats = append(stats, s)
	}
	return all, stats, nil
}

